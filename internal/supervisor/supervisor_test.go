package supervisor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/huin/goupnp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparse/dp/internal/device"
	"github.com/sparse/dp/internal/monitor"
	"github.com/sparse/dp/internal/server"
	"github.com/sparse/dp/internal/ssdp"
)

// recordingTransport keeps every multicast message as "<NTS> <LOCATION>".
type recordingTransport struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTransport) Multicast(_ context.Context, data []byte) error {
	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(data)))
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ev := req.Header.Get("NTS")
	if loc := req.Header.Get("LOCATION"); loc != "" {
		ev += " " + loc
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingTransport) Unicast(context.Context, []byte, net.Addr) error { return nil }

func (r *recordingTransport) Receive(ctx context.Context) (ssdp.Packet, error) {
	<-ctx.Done()
	return ssdp.Packet{}, ctx.Err()
}

func (r *recordingTransport) Close() error { return nil }

// collapsed returns the events with consecutive duplicates removed, so
// re-announcements and per-identity repeats do not matter.
func (r *recordingTransport) collapsed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		if len(out) > 0 && out[len(out)-1] == ev {
			continue
		}
		out = append(out, ev)
	}
	return out
}

type harness struct {
	transport *recordingTransport
	clock     *clock.Mock
	addr      atomic.Pointer[netip.Addr]
	store     *device.Store
	srv       *server.Server
	sup       *Supervisor
}

func newHarness(t *testing.T, initial string) *harness {
	t.Helper()
	h := &harness{
		transport: &recordingTransport{},
		clock:     clock.NewMock(),
	}
	h.setAddr(initial)

	h.store = device.NewStore(device.New(device.Info{
		UUID:         "8d7c6f4e-1b2a-4c3d-9e8f-0a1b2c3d4e5f",
		FriendlyName: "discovery-app",
		Manufacturer: "sparse",
		ModelName:    "discovery-protocol",
	}, device.Endpoint{Port: 8080, LocationPath: "/desc.xml"}, time.Minute))

	var err error
	h.srv, err = server.Listen(0, "/desc.xml", h.store)
	require.NoError(t, err)

	pub := ssdp.NewPublisher(h.transport, time.Minute,
		ssdp.WithClock(h.clock), ssdp.WithSearchDelay(0))
	resolver := monitor.ResolverFunc(func(context.Context) (netip.Addr, error) {
		return *h.addr.Load(), nil
	})
	mon := monitor.New(h.store, resolver, pub,
		monitor.WithClock(h.clock), monitor.WithInterval(10*time.Second))

	h.sup = New(h.store, pub, h.srv, pub, mon)
	return h
}

func (h *harness) setAddr(s string) {
	a := netip.MustParseAddr(s)
	h.addr.Store(&a)
}

func (h *harness) fetch(t *testing.T) *goupnp.RootDevice {
	t.Helper()
	loc, err := url.Parse(fmt.Sprintf("http://127.0.0.1:%d/desc.xml", h.srv.Port()))
	require.NoError(t, err)

	var root *goupnp.RootDevice
	require.Eventually(t, func() bool {
		root, err = goupnp.DeviceByURLCtx(context.Background(), loc)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	return root
}

func TestPublishFollowAddressAndWithdraw(t *testing.T) {
	h := newHarness(t, "10.0.0.5")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- h.sup.Run(ctx) }()

	const (
		oldLoc = "http://10.0.0.5:8080/desc.xml"
		newLoc = "http://10.0.0.9:8080/desc.xml"
	)

	// Startup: the first poll binds 10.0.0.5 and announces it.
	require.Eventually(t, func() bool {
		return len(h.transport.collapsed()) > 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"ssdp:alive " + oldLoc}, h.transport.collapsed())

	root := h.fetch(t)
	assert.Equal(t, oldLoc, root.URLBaseStr)
	assert.Equal(t, "uuid:8d7c6f4e-1b2a-4c3d-9e8f-0a1b2c3d4e5f", root.Device.UDN)
	assert.Equal(t, "discovery-app", root.Device.FriendlyName)

	// Address change: byebye for the old location, then alive for the new.
	h.setAddr("10.0.0.9")
	require.Eventually(t, func() bool {
		h.clock.Add(10 * time.Second)
		ev := h.transport.collapsed()
		return ev[len(ev)-1] == "ssdp:alive "+newLoc
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{
		"ssdp:alive " + oldLoc,
		"ssdp:byebye",
		"ssdp:alive " + newLoc,
	}, h.transport.collapsed())

	root = h.fetch(t)
	assert.Equal(t, newLoc, root.URLBaseStr)

	// Shutdown: a final byebye for the current record.
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(ServiceTimeout):
		t.Fatal("Run did not return after cancel")
	}

	ev := h.transport.collapsed()
	assert.Equal(t, []string{
		"ssdp:alive " + oldLoc,
		"ssdp:byebye",
		"ssdp:alive " + newLoc,
		"ssdp:byebye",
	}, ev)
}

type countingWithdrawer struct {
	calls atomic.Int32
}

func (c *countingWithdrawer) Withdraw(context.Context, *device.Record) error {
	c.calls.Add(1)
	return nil
}

type failingService struct {
	runs atomic.Int32
}

func (f *failingService) Serve(ctx context.Context) error {
	if f.runs.Add(1) == 1 {
		return errors.New("transient failure")
	}
	<-ctx.Done()
	return nil
}

type steadyService struct {
	starts atomic.Int32
}

func (s *steadyService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	<-ctx.Done()
	return nil
}

func TestRunRestartsFailedServiceOnly(t *testing.T) {
	store := device.NewStore(device.New(device.Info{UUID: "x"}, device.Endpoint{}, time.Minute))
	w := &countingWithdrawer{}
	failing, steady := &failingService{}, &steadyService{}
	sup := New(store, w, failing, steady)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	require.Eventually(t, func() bool { return failing.runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), steady.starts.Load())

	cancel()
	require.NoError(t, <-done)

	// The record was never bound, so there is nothing to withdraw.
	assert.Equal(t, int32(0), w.calls.Load())
}

func TestRunWithdrawsPublishedRecordOnce(t *testing.T) {
	rec := device.New(device.Info{UUID: "x"}, device.Endpoint{Port: 80}, time.Minute).
		WithAddress(netip.MustParseAddr("10.0.0.5"))
	w := &countingWithdrawer{}
	sup := New(device.NewStore(rec), w, &steadyService{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, sup.Run(ctx))
	assert.Equal(t, int32(1), w.calls.Load())
}

// hangingWithdrawer ignores its context and blocks until released.
type hangingWithdrawer struct {
	release chan struct{}
}

func (h *hangingWithdrawer) Withdraw(context.Context, *device.Record) error {
	<-h.release
	return nil
}

func TestRunBoundsFinalWithdraw(t *testing.T) {
	rec := device.New(device.Info{UUID: "x"}, device.Endpoint{Port: 80}, time.Minute).
		WithAddress(netip.MustParseAddr("10.0.0.5"))
	w := &hangingWithdrawer{release: make(chan struct{})}
	defer close(w.release)
	sup := New(device.NewStore(rec), w, &steadyService{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	start := time.Now()
	go func() { done <- sup.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.Less(t, time.Since(start), FinalWithdrawTimeout+time.Second)
	case <-time.After(FinalWithdrawTimeout + 2*time.Second):
		t.Fatal("Run blocked on a withdraw that ignores its deadline")
	}
}
