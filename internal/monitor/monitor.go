package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/sparse/dp/internal/device"
	"github.com/sparse/dp/internal/logging"
)

// DefaultInterval is how often the interface address is polled.
const DefaultInterval = 10 * time.Second

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(c clock.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

// Monitor is the only writer of its Store.
type Monitor struct {
	store    *device.Store
	resolver Resolver
	adv      Advertiser
	interval time.Duration
	clock    clock.Clock

	// unannounced is set while the current record's announcement has
	// not gone out successfully.
	unannounced bool
}

// New returns a Monitor that publishes changes of r's address through adv.
func New(store *device.Store, r Resolver, adv Advertiser, opts ...Option) *Monitor {
	m := &Monitor{
		store:    store,
		resolver: r,
		adv:      adv,
		interval: DefaultInterval,
		clock:    clock.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Poll resolves the interface address once and reacts to a change. It
// reports whether the record was replaced.
func (m *Monitor) Poll(ctx context.Context) (bool, error) {
	metricPolls.Inc()

	addr, err := m.resolver.Resolve(ctx)
	if err != nil {
		metricResolveFailures.Inc()
		return false, fmt.Errorf("resolve interface address: %w", err)
	}

	cur := m.store.Load()
	if cur.BoundAddress == addr {
		return false, m.retryAnnounce(ctx, cur)
	}

	next := cur.WithAddress(addr)
	old := m.store.Swap(next)
	metricAddressChanges.Inc()

	logging.Info("Interface address changed",
		zap.String("old", addrString(old.BoundAddress)),
		zap.String("new", addrString(addr)),
		zap.String("location", next.LocationURL))

	var errs []error
	if old.Published() {
		if err := m.adv.Withdraw(ctx, old); err != nil {
			errs = append(errs, fmt.Errorf("withdraw %s: %w", old.LocationURL, err))
		}
	}
	m.unannounced = true
	if err := m.retryAnnounce(ctx, next); err != nil {
		errs = append(errs, err)
	}

	if doc, err := device.Render(next); err == nil {
		logging.Info("Device description", zap.ByteString("xml", doc))
	}

	return true, errors.Join(errs...)
}

// retryAnnounce announces rec if its last announcement failed.
func (m *Monitor) retryAnnounce(ctx context.Context, rec *device.Record) error {
	if !m.unannounced || !rec.Published() {
		return nil
	}
	if err := m.adv.Announce(ctx, rec); err != nil {
		return fmt.Errorf("announce %s: %w", rec.LocationURL, err)
	}
	m.unannounced = false
	return nil
}

// Serve polls immediately and then on every tick until ctx is done.
// Iteration errors are logged and never end the loop.
func (m *Monitor) Serve(ctx context.Context) error {
	ticker := m.clock.Ticker(m.interval)
	defer ticker.Stop()

	for {
		if _, err := m.Poll(ctx); err != nil {
			logging.Warn("Address poll failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (m *Monitor) String() string {
	return fmt.Sprintf("monitor.Monitor@%p", m)
}

func addrString(a netip.Addr) string {
	if !a.IsValid() {
		return "none"
	}
	return a.String()
}
