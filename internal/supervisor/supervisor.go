package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"
	"go.uber.org/zap"

	"github.com/sparse/dp/internal/device"
	"github.com/sparse/dp/internal/logging"
)

const (
	// FinalWithdrawTimeout bounds the byebye sent on shutdown.
	FinalWithdrawTimeout = 2 * time.Second

	// ServiceTimeout is how long a service gets to return after its
	// context is cancelled.
	ServiceTimeout = 10 * time.Second
)

// Withdrawer withdraws a record from the network.
type Withdrawer interface {
	Withdraw(ctx context.Context, rec *device.Record) error
}

// Supervisor owns the service tree.
type Supervisor struct {
	tree  *suture.Supervisor
	store *device.Store
	adv   Withdrawer
}

// New builds a tree running services. On shutdown the current record in
// store is withdrawn through adv.
func New(store *device.Store, adv Withdrawer, services ...suture.Service) *Supervisor {
	tree := suture.New("dp", Spec())
	for _, svc := range services {
		tree.Add(svc)
	}
	return &Supervisor{tree: tree, store: store, adv: adv}
}

// Spec is the suture spec used for the tree, logging events through zap.
func Spec() suture.Spec {
	return suture.Spec{
		EventHook: logEvent,
		Timeout:   ServiceTimeout,
	}
}

func logEvent(e suture.Event) {
	switch ev := e.(type) {
	case suture.EventServiceTerminate:
		logging.Warn("Service terminated",
			zap.String("service", ev.ServiceName),
			zap.Bool("restarting", ev.Restarting),
			zap.Float64("failures", ev.CurrentFailures),
			zap.String("error", fmt.Sprint(ev.Err)))
	case suture.EventServicePanic:
		logging.Error("Service panicked",
			zap.String("service", ev.ServiceName),
			zap.String("panic", ev.PanicMsg),
			zap.String("stacktrace", ev.Stacktrace))
	case suture.EventStopTimeout:
		logging.Warn("Service did not stop in time", zap.String("service", ev.ServiceName))
	default:
		logging.Info("Supervisor event", zap.Stringer("event", e))
	}
}

// Run serves the tree until ctx is done, then withdraws the current record.
// A cancelled context is a clean shutdown and returns nil.
func (s *Supervisor) Run(ctx context.Context) error {
	err := s.tree.Serve(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		logging.Error("Supervisor stopped", zap.Error(err))
	}

	if werr := s.finalWithdraw(); werr != nil {
		logging.Warn("Final withdrawal incomplete", zap.Error(werr))
	}
	return err
}

func (s *Supervisor) finalWithdraw() error {
	rec := s.store.Load()
	if !rec.Published() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), FinalWithdrawTimeout)
	defer cancel()

	logging.Info("Withdrawing device before exit", zap.Stringer("device", rec))
	done := make(chan error, 1)
	go func() { done <- s.adv.Withdraw(ctx, rec) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("final withdraw: %w", ctx.Err())
	}
}
