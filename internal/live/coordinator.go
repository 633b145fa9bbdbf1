// Package live keeps the client's cached views consistent with the
// server. A Coordinator owns the single push connection of a session,
// tracks its state machine, and turns inbound events into batched view
// refreshes. Reconnection is the coordinator's own job: the transport is
// a plain bidirectional stream with no native retry, so faults are
// followed by bounded exponential backoff.
package live

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/tallybook-dev/tallybook/internal/metrics"
	"github.com/tallybook-dev/tallybook/internal/notify"
	"github.com/tallybook-dev/tallybook/internal/view"
)

const offlineNoticeID = "offline"

// Config wires a Coordinator. Dialer is required; everything else has a
// workable zero value.
type Config struct {
	Dialer Dialer

	// BasicInfo is refreshed when the server acknowledges the channel.
	BasicInfo view.Refresher
	// ReloadViews are refreshed, concurrently and as one batch, on
	// every reload event.
	ReloadViews []view.Refresher

	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Log      zerolog.Logger

	// InitialBackoff and MaxBackoff bound the reconnect delay.
	// Defaults: 500ms and 30s.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Coordinator runs the synchronization state machine. Events are handled
// strictly in arrival order on a single goroutine; only the view
// refreshes it triggers run concurrently.
type Coordinator struct {
	dialer      Dialer
	state       *SyncState
	basicInfo   view.Refresher
	reloadViews []view.Refresher
	notifier    notify.Notifier
	metrics     *metrics.Metrics
	log         zerolog.Logger

	initialBackoff time.Duration
	maxBackoff     time.Duration

	mu       sync.Mutex
	onReload []func()
}

// NewCoordinator builds a Coordinator around a fresh SyncState.
func NewCoordinator(cfg Config) *Coordinator {
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop{}
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}

	c := &Coordinator{
		dialer:         cfg.Dialer,
		state:          NewSyncState(),
		basicInfo:      cfg.BasicInfo,
		reloadViews:    cfg.ReloadViews,
		notifier:       cfg.Notifier,
		metrics:        cfg.Metrics,
		log:            cfg.Log.With().Str("component", "live").Logger(),
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
	}
	for _, v := range c.reloadViews {
		key := v.Key()
		v.OnSettled(func() { c.state.clearPending(key) })
	}
	return c
}

// State returns the coordinator's SyncState for observation.
func (c *Coordinator) State() *SyncState {
	return c.state
}

// Connectivity reports the current channel state.
func (c *Coordinator) Connectivity() Connectivity {
	return c.state.Connectivity()
}

// LatestAdvisoryVersion returns the newest advertised server version,
// or "" if none arrived yet.
func (c *Coordinator) LatestAdvisoryVersion() string {
	return c.state.AdvisoryVersion()
}

// OnReload registers fn to run after each reload event's refresh batch
// has been triggered.
func (c *Coordinator) OnReload(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReload = append(c.onReload, fn)
}

// Run connects and processes events until ctx is canceled. Channel
// faults never propagate out; they mark the session disconnected,
// surface an offline notice, and schedule a redial.
func (c *Coordinator) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialBackoff
	bo.MaxInterval = c.maxBackoff
	bo.MaxElapsedTime = 0

	for {
		c.state.setConnectivity(Connecting)
		if c.metrics != nil {
			c.metrics.ReconnectAttempts.Inc()
		}

		conn, err := c.dialer.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.goOffline(err)
			if !c.sleep(ctx, bo.NextBackOff()) {
				return ctx.Err()
			}
			continue
		}
		bo.Reset()

		err = c.readLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			c.state.setConnectivity(Disconnected)
			return ctx.Err()
		}
		c.goOffline(err)
		if !c.sleep(ctx, bo.NextBackOff()) {
			return ctx.Err()
		}
	}
}

// readLoop handles frames until the channel faults or ctx is canceled.
func (c *Coordinator) readLoop(ctx context.Context, conn Conn) error {
	// ReadMessage has no context; closing the conn unblocks it.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		data, err := conn.Next()
		if err != nil {
			return err
		}
		event, err := decodeEvent(data)
		if err != nil {
			// Malformed payloads are dropped without a transition.
			c.log.Warn().Err(err).Msg("ignoring malformed push event")
			continue
		}
		c.handle(ctx, event)
	}
}

func (c *Coordinator) handle(ctx context.Context, event Event) {
	if c.metrics != nil {
		c.metrics.EventsByType.WithLabelValues(string(event.Type)).Inc()
	}

	switch event.Type {
	case EventConnected:
		c.state.setConnectivity(Connected)
		c.notifier.Clear(offlineNoticeID)
		c.notifier.Show(notify.Notice{
			ID:    "connected",
			Title: "Connected to server",
		})
		c.log.Info().Msg("server acknowledged connection")
		if c.basicInfo != nil {
			c.refresh(ctx, c.basicInfo)
		}

	case EventReload:
		c.log.Info().Msg("ledger reloaded, refreshing views")
		for _, v := range c.reloadViews {
			c.state.markPending(v.Key())
			c.refresh(ctx, v)
		}
		c.mu.Lock()
		callbacks := make([]func(), len(c.onReload))
		copy(callbacks, c.onReload)
		c.mu.Unlock()
		for _, fn := range callbacks {
			fn()
		}

	case EventNewVersionFound:
		c.state.setAdvisoryVersion(event.Version)
		c.log.Info().Str("version", event.Version).Msg("newer server version available")

	default:
		c.log.Debug().Str("type", string(event.Type)).Msg("ignoring unknown push event")
	}
}

func (c *Coordinator) refresh(ctx context.Context, v view.Refresher) {
	// Views count their own refreshes; nothing extra to record here.
	v.Refresh(ctx)
}

// goOffline marks the session disconnected and raises the persistent
// offline banner. Cached views keep their last-known-good data; losing
// connectivity must not blank anything.
func (c *Coordinator) goOffline(err error) {
	c.state.setConnectivity(Disconnected)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.log.Warn().Err(err).Msg("push channel fault")
	}
	c.notifier.Show(notify.Notice{
		ID:      offlineNoticeID,
		Title:   "Server offline",
		Message: "client cannot reach the ledger server",
		Sticky:  true,
	})
}

func (c *Coordinator) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
