// Package notify carries user-visible notices from the core to whatever
// surface renders them. The core never blocks on a notice; a Notifier is
// fire-and-forget.
package notify

import "github.com/rs/zerolog"

// Notice is one user-visible message. Sticky notices stay up until
// cleared by ID (offline banner); non-sticky ones are transient and
// dismissible (refresh failure toast).
type Notice struct {
	ID      string
	Title   string
	Message string
	Sticky  bool
}

// Notifier receives notices. Implementations must be safe for concurrent
// use; the coordinator and view refreshes call from different goroutines.
type Notifier interface {
	Show(n Notice)
	Clear(id string)
}

// LogNotifier writes notices to a structured log. It is the default sink
// for headless use; a UI replaces it with its own implementation.
type LogNotifier struct {
	Log zerolog.Logger
}

func (l LogNotifier) Show(n Notice) {
	l.Log.Info().
		Str("id", n.ID).
		Str("message", n.Message).
		Bool("sticky", n.Sticky).
		Msg(n.Title)
}

func (l LogNotifier) Clear(id string) {
	l.Log.Debug().Str("id", id).Msg("notice cleared")
}

// Nop discards all notices.
type Nop struct{}

func (Nop) Show(Notice)  {}
func (Nop) Clear(string) {}
