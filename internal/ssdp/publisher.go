package ssdp

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sparse/dp/internal/device"
	"github.com/sparse/dp/internal/logging"
)

// ErrUnpublished is returned when asked to announce a record that has no
// bound address.
var ErrUnpublished = errors.New("device record has no bound address")

// minReannounce bounds the ticker for lifetimes below two seconds.
const minReannounce = time.Second

// ReannounceInterval is half the cache lifetime, so peers see a fresh alive
// well before their cached entry expires.
func ReannounceInterval(cacheLifetime time.Duration) time.Duration {
	d := cacheLifetime / 2
	if d < minReannounce {
		return minReannounce
	}
	return d
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithClock replaces the wall clock, for tests.
func WithClock(c clock.Clock) Option {
	return func(p *Publisher) { p.clock = c }
}

// WithServer sets the SERVER header value.
func WithServer(server string) Option {
	return func(p *Publisher) { p.server = server }
}

// WithSearchDelay caps the random delay before answering searches. Zero
// answers immediately.
func WithSearchDelay(limit time.Duration) Option {
	return func(p *Publisher) { p.maxDelay = limit }
}

// Publisher announces at most one record at a time.
type Publisher struct {
	transport Transport
	clock     clock.Clock
	server    string
	interval  time.Duration
	maxDelay  time.Duration

	mu        sync.Mutex // serializes announcement sends
	published atomic.Pointer[device.Record]
}

// NewPublisher returns a Publisher sending over t. cacheLifetime sets the
// re-announcement interval.
func NewPublisher(t Transport, cacheLifetime time.Duration, opts ...Option) *Publisher {
	p := &Publisher{
		transport: t,
		clock:     clock.New(),
		server:    DefaultServer(),
		interval:  ReannounceInterval(cacheLifetime),
		maxDelay:  MaxSearchDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Published returns the record currently alive, or nil.
func (p *Publisher) Published() *device.Record {
	return p.published.Load()
}

// Announce sends ssdp:alive for every identity of rec and makes it the
// published record. Individual send failures are logged and returned
// joined; the record is still considered published since the next
// re-announcement retries.
func (p *Publisher) Announce(ctx context.Context, rec *device.Record) error {
	if !rec.Published() {
		return ErrUnpublished
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.sendAll(ctx, kindAlive, rec)
	if p.published.Swap(rec) != rec {
		logging.Info("Device announced", zap.Stringer("device", rec))
	}
	metricPublished.Set(1)
	return err
}

// Withdraw sends ssdp:byebye for every identity of rec. If rec is the
// published record the publisher becomes unpublished. Unbound records were
// never announced and are ignored.
func (p *Publisher) Withdraw(ctx context.Context, rec *device.Record) error {
	if !rec.Published() {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.sendAll(ctx, kindByebye, rec)
	if cur := p.published.Load(); cur != nil && cur.LocationURL == rec.LocationURL {
		p.published.Store(nil)
		metricPublished.Set(0)
	}
	logging.Info("Device withdrawn", zap.Stringer("device", rec))
	return err
}

// Reannounce repeats the alive notifications for the published record, if
// any.
func (p *Publisher) Reannounce(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec := p.published.Load()
	if rec == nil {
		return nil
	}
	return p.sendAll(ctx, kindAlive, rec)
}

// sendAll must be called with p.mu held.
func (p *Publisher) sendAll(ctx context.Context, kind string, rec *device.Record) error {
	var errs []error
	for _, id := range Identities(rec) {
		var msg []byte
		if kind == kindAlive {
			msg = AliveMessage(rec, id, p.server)
		} else {
			msg = ByebyeMessage(id)
		}
		if err := p.transport.Multicast(ctx, msg); err != nil {
			metricSendFailures.WithLabelValues(kind).Inc()
			logging.Warn("Failed to send SSDP notification",
				zap.String("nts", kind),
				zap.String("usn", id.USN),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s %s: %w", kind, id.USN, err))
			continue
		}
		metricMessagesSent.WithLabelValues(kind).Inc()
		logging.LogSSDPMessage("sent", MulticastAddress, msg)
	}
	return errors.Join(errs...)
}

// RespondToSearch unicasts one response per identity of rec matching req.
// Responses are serialized with Announce and Withdraw.
func (p *Publisher) RespondToSearch(ctx context.Context, req *SearchRequest, rec *device.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.respond(ctx, req, rec)
}

// respond must be called with p.mu held.
func (p *Publisher) respond(ctx context.Context, req *SearchRequest, rec *device.Record) error {
	if !rec.Published() {
		return ErrUnpublished
	}
	var errs []error
	for _, id := range req.Matches(rec) {
		msg := SearchResponse(rec, id, p.server, p.clock.Now())
		if err := p.transport.Unicast(ctx, msg, req.From); err != nil {
			metricSendFailures.WithLabelValues(kindResponse).Inc()
			errs = append(errs, fmt.Errorf("response %s to %s: %w", id.USN, addrString(req.From), err))
			continue
		}
		metricMessagesSent.WithLabelValues(kindResponse).Inc()
		logging.LogSSDPMessage("sent", addrString(req.From), msg)
	}
	return errors.Join(errs...)
}

// Serve re-announces the published record every half cache lifetime and
// answers searches until ctx is done.
func (p *Publisher) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.reannounceLoop(ctx) })
	g.Go(func() error { return p.receiveLoop(ctx) })
	return g.Wait()
}

func (p *Publisher) reannounceLoop(ctx context.Context) error {
	ticker := p.clock.Ticker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.Reannounce(ctx); err != nil {
				logging.Debug("Re-announcement incomplete", zap.Error(err))
			}
		}
	}
}

func (p *Publisher) receiveLoop(ctx context.Context) error {
	for {
		pkt, err := p.transport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive SSDP: %w", err)
		}

		logging.LogSSDPMessage("received", addrString(pkt.From), pkt.Data)

		req, err := ParseSearch(pkt.Data, pkt.From)
		if err != nil {
			if !errors.Is(err, ErrNotSearch) {
				logging.Debug("Ignoring SSDP datagram",
					zap.String("peer", addrString(pkt.From)),
					zap.Error(err))
				logging.LogRawBytes("Malformed SSDP datagram", pkt.Data)
			}
			continue
		}
		metricSearchesReceived.Inc()
		go p.answer(ctx, req)
	}
}

func (p *Publisher) answer(ctx context.Context, req *SearchRequest) {
	if limit := req.MaxDelay(p.maxDelay); limit > 0 {
		select {
		case <-p.clock.After(rand.N(limit)):
		case <-ctx.Done():
			return
		}
	}

	// Holding p.mu keeps a response for a withdrawn record from going out
	// after the byebye.
	p.mu.Lock()
	defer p.mu.Unlock()

	rec := p.published.Load()
	if rec == nil {
		return
	}
	if err := p.respond(ctx, req, rec); err != nil {
		logging.Warn("Failed to answer M-SEARCH",
			zap.String("st", req.ST),
			zap.Error(err))
	}
}

func (p *Publisher) String() string {
	return fmt.Sprintf("ssdp.Publisher@%p", p)
}

func addrString(a net.Addr) string {
	if a == nil {
		return "unknown"
	}
	return a.String()
}
