package monitor

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sparse/dp/internal/device"
	"github.com/sparse/dp/internal/logging"
)

type recordingAdvertiser struct {
	mu     sync.Mutex
	events []string
	err    error

	announceFailures int // Announce fails this many more times
}

func (r *recordingAdvertiser) Announce(_ context.Context, rec *device.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "alive "+rec.LocationURL)
	if r.announceFailures > 0 {
		r.announceFailures--
		return errors.New("announce failed")
	}
	return r.err
}

func (r *recordingAdvertiser) Withdraw(_ context.Context, rec *device.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "byebye "+rec.LocationURL)
	return r.err
}

func (r *recordingAdvertiser) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type step struct {
	addr string
	err  error
}

// scriptedResolver returns its steps in order and then repeats the last one.
type scriptedResolver struct {
	mu    sync.Mutex
	steps []step
	calls int
}

func (s *scriptedResolver) Resolve(context.Context) (netip.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	s.calls++
	st := s.steps[i]
	if st.err != nil {
		return netip.Addr{}, st.err
	}
	return netip.MustParseAddr(st.addr), nil
}

func (s *scriptedResolver) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestStore() *device.Store {
	return device.NewStore(device.New(device.Info{
		UUID:         "8d7c6f4e-1b2a-4c3d-9e8f-0a1b2c3d4e5f",
		FriendlyName: "discovery-app",
	}, device.Endpoint{Port: 8080, LocationPath: "/desc.xml"}, time.Minute))
}

var errNoAddress = errors.New("no IPv4 address")

func TestPollFirstResolutionIsAChange(t *testing.T) {
	store := newTestStore()
	adv := &recordingAdvertiser{}
	m := New(store, &scriptedResolver{steps: []step{{addr: "10.0.0.5"}}}, adv)

	changed, err := m.Poll(context.Background())

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"alive http://10.0.0.5:8080/desc.xml"}, adv.Events())
	assert.Equal(t, "http://10.0.0.5:8080/desc.xml", store.Load().LocationURL)
}

func TestPollAddressFlap(t *testing.T) {
	store := newTestStore()
	adv := &recordingAdvertiser{}
	m := New(store, &scriptedResolver{steps: []step{
		{addr: "10.0.0.5"},
		{addr: "10.0.0.5"},
		{addr: "10.0.0.9"},
		{addr: "10.0.0.5"},
	}}, adv)

	var changes []bool
	for range 4 {
		changed, err := m.Poll(context.Background())
		require.NoError(t, err)
		changes = append(changes, changed)
	}

	assert.Equal(t, []bool{true, false, true, true}, changes)
	assert.Equal(t, []string{
		"alive http://10.0.0.5:8080/desc.xml",
		"byebye http://10.0.0.5:8080/desc.xml",
		"alive http://10.0.0.9:8080/desc.xml",
		"byebye http://10.0.0.9:8080/desc.xml",
		"alive http://10.0.0.5:8080/desc.xml",
	}, adv.Events())
}

func TestPollResolveFailuresKeepRecord(t *testing.T) {
	store := newTestStore()
	adv := &recordingAdvertiser{}
	r := &scriptedResolver{steps: []step{
		{addr: "10.0.0.5"},
		{err: errNoAddress},
	}}
	m := New(store, r, adv)

	_, err := m.Poll(context.Background())
	require.NoError(t, err)
	before := store.Load()

	for range 5 {
		changed, err := m.Poll(context.Background())
		assert.False(t, changed)
		assert.ErrorIs(t, err, errNoAddress)
	}

	assert.Same(t, before, store.Load())
	assert.Len(t, adv.Events(), 1)
}

func TestPollNeverResolved(t *testing.T) {
	store := newTestStore()
	adv := &recordingAdvertiser{}
	m := New(store, &scriptedResolver{steps: []step{{err: errNoAddress}}}, adv)

	for range 3 {
		_, err := m.Poll(context.Background())
		assert.Error(t, err)
	}

	assert.Empty(t, adv.Events())
	assert.False(t, store.Load().Published())
}

func TestPollAdvertiserErrorStillSwaps(t *testing.T) {
	store := newTestStore()
	adv := &recordingAdvertiser{err: errors.New("send failed")}
	m := New(store, &scriptedResolver{steps: []step{{addr: "10.0.0.5"}}}, adv)

	changed, err := m.Poll(context.Background())

	assert.True(t, changed)
	assert.ErrorContains(t, err, "send failed")
	assert.True(t, store.Load().Published())
}

func TestPollRetriesFailedAnnounce(t *testing.T) {
	store := newTestStore()
	adv := &recordingAdvertiser{announceFailures: 1}
	m := New(store, &scriptedResolver{steps: []step{{addr: "10.0.0.5"}}}, adv)

	changed, err := m.Poll(context.Background())
	assert.True(t, changed)
	assert.ErrorContains(t, err, "announce failed")

	changed, err = m.Poll(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = m.Poll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"alive http://10.0.0.5:8080/desc.xml",
		"alive http://10.0.0.5:8080/desc.xml",
	}, adv.Events())
}

func TestPollLogsDescriptionOnChange(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logging.SetLogger(zap.New(core))
	t.Cleanup(func() { logging.SetLogger(nil) })

	store := newTestStore()
	m := New(store, &scriptedResolver{steps: []step{{addr: "10.0.0.5"}}}, &recordingAdvertiser{})

	_, err := m.Poll(context.Background())
	require.NoError(t, err)
	_, err = m.Poll(context.Background())
	require.NoError(t, err)

	entries := logs.FilterMessage("Device description").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["xml"], "<URLBase>http://10.0.0.5:8080/desc.xml</URLBase>")
}

func TestServePollsOnTicks(t *testing.T) {
	store := newTestStore()
	adv := &recordingAdvertiser{}
	r := &scriptedResolver{steps: []step{
		{addr: "10.0.0.5"},
		{addr: "10.0.0.9"},
	}}
	mock := clock.NewMock()
	m := New(store, r, adv, WithClock(mock), WithInterval(10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Serve(ctx) }()

	require.Eventually(t, func() bool { return len(adv.Events()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, r.Calls())
	assert.Equal(t, []string{"alive http://10.0.0.5:8080/desc.xml"}, adv.Events())

	require.Eventually(t, func() bool {
		mock.Add(10 * time.Second)
		return len(adv.Events()) >= 3
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{
		"alive http://10.0.0.5:8080/desc.xml",
		"byebye http://10.0.0.5:8080/desc.xml",
		"alive http://10.0.0.9:8080/desc.xml",
	}, adv.Events())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestAdvertisersFanOut(t *testing.T) {
	a := &recordingAdvertiser{}
	b := &recordingAdvertiser{err: errors.New("b failed")}
	c := &recordingAdvertiser{}
	rec := newTestStore().Load().WithAddress(netip.MustParseAddr("10.0.0.5"))

	err := Advertisers{a, b, c}.Announce(context.Background(), rec)

	assert.ErrorContains(t, err, "b failed")
	for _, r := range []*recordingAdvertiser{a, b, c} {
		assert.Equal(t, []string{"alive http://10.0.0.5:8080/desc.xml"}, r.Events())
	}

	require.Error(t, Advertisers{a, b}.Withdraw(context.Background(), rec))
	assert.Equal(t, "byebye http://10.0.0.5:8080/desc.xml", a.Events()[1])
}

func TestResolverFunc(t *testing.T) {
	want := netip.MustParseAddr("192.168.1.20")
	var r Resolver = ResolverFunc(func(context.Context) (netip.Addr, error) { return want, nil })

	got, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
