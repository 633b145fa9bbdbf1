package live

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/tallybook-dev/tallybook/internal/view"
)

// Connectivity is the push channel's observable connection state.
type Connectivity int

const (
	Disconnected Connectivity = iota
	Connecting
	Connected
)

func (c Connectivity) String() string {
	switch c {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// SyncState models the one physical push connection of a client session:
// its connectivity, the advisory server version, and which views have a
// refresh in flight. It is written only by the coordinator and read by
// any number of observers; construct it once per session and pass it
// down, never share it as a package-level singleton.
type SyncState struct {
	mu              sync.Mutex
	connectivity    Connectivity
	advisoryVersion string
	pending         mapset.Set[view.Key]
}

// NewSyncState returns a disconnected SyncState.
func NewSyncState() *SyncState {
	return &SyncState{pending: mapset.NewSet[view.Key]()}
}

// Connectivity returns the current connection state.
func (s *SyncState) Connectivity() Connectivity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectivity
}

// AdvisoryVersion returns the newest server version advertised over the
// channel, or "" if none was.
func (s *SyncState) AdvisoryVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advisoryVersion
}

// PendingInvalidations returns the views with a refresh in flight.
func (s *SyncState) PendingInvalidations() []view.Key {
	return s.pending.ToSlice()
}

func (s *SyncState) setConnectivity(c Connectivity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectivity = c
}

func (s *SyncState) setAdvisoryVersion(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advisoryVersion = v
}

func (s *SyncState) markPending(key view.Key) {
	s.pending.Add(key)
}

func (s *SyncState) clearPending(key view.Key) {
	s.pending.Remove(key)
}
