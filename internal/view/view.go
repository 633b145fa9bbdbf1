// Package view implements independently cached, on-demand-refreshable
// projections of backend data. Each refresh is tagged with a generation
// at trigger time and its completion is applied only if no newer refresh
// was triggered for the same view in the meantime, so the cached value is
// always the result of the most recently initiated fetch.
package view

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tallybook-dev/tallybook/internal/metrics"
	"github.com/tallybook-dev/tallybook/internal/notify"
)

// Key identifies one cached view.
type Key string

const (
	KeyBasicInfo      Key = "basic-info"
	KeyAccounts       Key = "accounts"
	KeyErrors         Key = "errors"
	KeyCommodities    Key = "commodities"
	KeyJournal        Key = "journal"
	KeyNewTransaction Key = "new-transaction"
)

// Fetch loads a fresh value from the backend.
type Fetch[T any] func(ctx context.Context) (T, error)

// Refresher is the view surface the coordinator drives. Every View
// implements it regardless of value type.
type Refresher interface {
	Key() Key
	Refresh(ctx context.Context)
	OnSettled(fn func())
}

// View caches one value of type T. A failed refresh keeps the last-known-
// good value so losing the backend never blanks what the user already
// sees.
type View[T any] struct {
	key      Key
	fetch    Fetch[T]
	log      zerolog.Logger
	notifier notify.Notifier
	metrics  *metrics.Metrics

	mu      sync.Mutex
	gen     uint64
	value   T
	ok      bool
	subs    []func(T)
	settled []func()
}

// New creates a view. The notifier receives a transient notice when a
// refresh fails; metrics may be nil.
func New[T any](key Key, fetch Fetch[T], log zerolog.Logger, notifier notify.Notifier, m *metrics.Metrics) *View[T] {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &View[T]{
		key:      key,
		fetch:    fetch,
		log:      log.With().Str("view", string(key)).Logger(),
		notifier: notifier,
		metrics:  m,
	}
}

// Key returns the view's identity.
func (v *View[T]) Key() Key {
	return v.key
}

// Refresh initiates an asynchronous fetch. Concurrent refreshes never
// interleave partial writes: each one fires its own fetch, but only the
// most recently initiated one may become the cached value.
func (v *View[T]) Refresh(ctx context.Context) {
	gen := v.begin()
	go func() {
		value, err := v.fetch(ctx)
		v.complete(gen, value, err)
	}()
}

// Value returns the cached value and whether any refresh has succeeded.
func (v *View[T]) Value() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value, v.ok
}

// Subscribe registers fn to run with each newly applied value. fn is
// called outside the view's lock.
func (v *View[T]) Subscribe(fn func(T)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.subs = append(v.subs, fn)
}

// OnSettled registers fn to run after every refresh completion, whether
// it was applied, failed, or discarded as stale.
func (v *View[T]) OnSettled(fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.settled = append(v.settled, fn)
}

func (v *View[T]) begin() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	if v.metrics != nil {
		v.metrics.RefreshesByView.WithLabelValues(string(v.key)).Inc()
	}
	return v.gen
}

func (v *View[T]) complete(gen uint64, value T, err error) {
	if err != nil {
		v.log.Warn().Err(err).Msg("view refresh failed, keeping cached value")
		if v.metrics != nil {
			v.metrics.RefreshFailures.WithLabelValues(string(v.key)).Inc()
		}
		v.notifier.Show(notify.Notice{
			ID:      "refresh-" + string(v.key),
			Title:   "Refresh failed",
			Message: string(v.key) + ": " + err.Error(),
		})
		v.notifySettled()
		return
	}

	v.mu.Lock()
	if gen != v.gen {
		v.mu.Unlock()
		v.log.Debug().Uint64("gen", gen).Msg("stale refresh result discarded")
		if v.metrics != nil {
			v.metrics.StaleDiscarded.WithLabelValues(string(v.key)).Inc()
		}
		v.notifySettled()
		return
	}
	v.value = value
	v.ok = true
	subs := make([]func(T), len(v.subs))
	copy(subs, v.subs)
	v.mu.Unlock()

	for _, fn := range subs {
		fn(value)
	}
	v.notifySettled()
}

func (v *View[T]) notifySettled() {
	v.mu.Lock()
	settled := make([]func(), len(v.settled))
	copy(settled, v.settled)
	v.mu.Unlock()
	for _, fn := range settled {
		fn()
	}
}
