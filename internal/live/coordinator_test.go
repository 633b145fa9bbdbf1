package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook-dev/tallybook/internal/notify"
	"github.com/tallybook-dev/tallybook/internal/view"
)

// fakeConn feeds scripted frames to the coordinator.
type fakeConn struct {
	frames chan []byte
	once   sync.Once
	closed chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan []byte, 16), closed: make(chan struct{})}
}

func (f *fakeConn) send(frame string) {
	f.frames <- []byte(frame)
}

func (f *fakeConn) fault() {
	f.once.Do(func() { close(f.closed) })
}

func (f *fakeConn) Next() ([]byte, error) {
	select {
	case data := <-f.frames:
		return data, nil
	case <-f.closed:
		return nil, errors.New("connection reset")
	}
}

func (f *fakeConn) Close() error {
	f.fault()
	return nil
}

// fakeDialer hands out conns in sequence, optionally failing first.
type fakeDialer struct {
	mu       sync.Mutex
	conns    []*fakeConn
	failures int
	dials    int
}

func (d *fakeDialer) Dial(ctx context.Context) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.failures > 0 {
		d.failures--
		return nil, errors.New("connection refused")
	}
	if len(d.conns) == 0 {
		return nil, errors.New("no more conns scripted")
	}
	conn := d.conns[0]
	d.conns = d.conns[1:]
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// fakeView counts refresh triggers.
type fakeView struct {
	key view.Key

	mu      sync.Mutex
	count   int
	settled []func()
}

func (f *fakeView) Key() view.Key { return f.key }

func (f *fakeView) Refresh(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
}

func (f *fakeView) OnSettled(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settled = append(f.settled, fn)
}

func (f *fakeView) refreshes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func (f *fakeView) settle() {
	f.mu.Lock()
	fns := make([]func(), len(f.settled))
	copy(fns, f.settled)
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func startCoordinator(t *testing.T, dialer Dialer, views ...view.Refresher) (*Coordinator, *fakeView, *recordingNotifier) {
	t.Helper()

	basicInfo := &fakeView{key: view.KeyBasicInfo}
	rec := &recordingNotifier{}
	c := NewCoordinator(Config{
		Dialer:         dialer,
		BasicInfo:      basicInfo,
		ReloadViews:    views,
		Notifier:       rec,
		Log:            zerolog.Nop(),
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("coordinator did not stop")
		}
	})

	return c, basicInfo, rec
}

func TestConnectedEvent(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	c, basicInfo, rec := startCoordinator(t, dialer)

	conn.send(`{"type": "Connected"}`)

	require.Eventually(t, func() bool {
		return c.Connectivity() == Connected
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, 1, basicInfo.refreshes(), "connect refreshes basic info")
	assert.Contains(t, rec.cleared(), offlineNoticeID)
}

func TestReloadRefreshesEveryView(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	accounts := &fakeView{key: view.KeyAccounts}
	journal := &fakeView{key: view.KeyJournal}
	c, _, _ := startCoordinator(t, dialer, accounts, journal)

	conn.send(`{"type": "Connected"}`)
	conn.send(`{"type": "Reload"}`)

	require.Eventually(t, func() bool {
		return accounts.refreshes() == 1 && journal.refreshes() == 1
	}, 2*time.Second, time.Millisecond)

	pending := c.State().PendingInvalidations()
	assert.ElementsMatch(t, []view.Key{view.KeyAccounts, view.KeyJournal}, pending)

	accounts.settle()
	assert.ElementsMatch(t, []view.Key{view.KeyJournal}, c.State().PendingInvalidations())
}

func TestBackToBackReloads(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	accounts := &fakeView{key: view.KeyAccounts}
	_, _, _ = startCoordinator(t, dialer, accounts)

	conn.send(`{"type": "Connected"}`)
	conn.send(`{"type": "Reload"}`)
	conn.send(`{"type": "Reload"}`)
	conn.send(`{"type": "Reload"}`)

	// Every reload fires a fetch even before any completes.
	require.Eventually(t, func() bool {
		return accounts.refreshes() == 3
	}, 2*time.Second, time.Millisecond)
}

func TestNewVersionFound(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	accounts := &fakeView{key: view.KeyAccounts}
	c, _, _ := startCoordinator(t, dialer, accounts)

	conn.send(`{"type": "Connected"}`)
	conn.send(`{"type": "NewVersionFound", "version": "2.0.0"}`)

	require.Eventually(t, func() bool {
		return c.LatestAdvisoryVersion() == "2.0.0"
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, 0, accounts.refreshes(), "advisory version invalidates nothing")
}

func TestChannelFaultGoesOfflineAndRedials(t *testing.T) {
	first := newFakeConn()
	second := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{first, second}}
	c, _, rec := startCoordinator(t, dialer)

	first.send(`{"type": "Connected"}`)
	require.Eventually(t, func() bool {
		return c.Connectivity() == Connected
	}, 2*time.Second, time.Millisecond)

	first.fault()

	require.Eventually(t, func() bool {
		return dialer.dialCount() >= 2
	}, 2*time.Second, time.Millisecond)

	var sawOffline bool
	for _, n := range rec.shown() {
		if n.ID == offlineNoticeID {
			sawOffline = true
			assert.True(t, n.Sticky, "offline notice is a persistent banner")
		}
	}
	assert.True(t, sawOffline)

	second.send(`{"type": "Connected"}`)
	require.Eventually(t, func() bool {
		return c.Connectivity() == Connected
	}, 2*time.Second, time.Millisecond)
}

func TestDialFailureBacksOff(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}, failures: 3}
	c, _, _ := startCoordinator(t, dialer)

	conn.send(`{"type": "Connected"}`)
	require.Eventually(t, func() bool {
		return c.Connectivity() == Connected
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, 4, dialer.dialCount())
}

func TestMalformedEventIgnored(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	c, _, _ := startCoordinator(t, dialer)

	conn.send(`not json`)
	conn.send(`{"no": "type"}`)
	conn.send(`{"type": "Connected"}`)

	require.Eventually(t, func() bool {
		return c.Connectivity() == Connected
	}, 2*time.Second, time.Millisecond)
}

func TestOnReloadCallback(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	c, _, _ := startCoordinator(t, dialer)

	fired := make(chan struct{}, 1)
	c.OnReload(func() { fired <- struct{}{} })

	conn.send(`{"type": "Connected"}`)
	conn.send(`{"type": "Reload"}`)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("reload callback never fired")
	}
}

type recordingNotifier struct {
	mu       sync.Mutex
	notices  []notify.Notice
	clearIDs []string
}

func (r *recordingNotifier) Show(n notify.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recordingNotifier) Clear(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearIDs = append(r.clearIDs, id)
}

func (r *recordingNotifier) shown() []notify.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

func (r *recordingNotifier) cleared() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.clearIDs))
	copy(out, r.clearIDs)
	return out
}
