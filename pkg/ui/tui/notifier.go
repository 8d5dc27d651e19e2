package tui

import (
	"sync"

	"pixgallery/pkg/gallery"
)

// Notifier queues gallery notifications until the model turns them into
// toasts. The controller notifies from command goroutines, so the queue is
// locked.
type Notifier struct {
	mu      sync.Mutex
	pending []gallery.Notification
	mirror  gallery.Notifier
}

// NewNotifier creates a queue. mirror, if set, also receives every
// notification (e.g. for desktop delivery).
func NewNotifier(mirror gallery.Notifier) *Notifier {
	return &Notifier{mirror: mirror}
}

// Notify implements gallery.Notifier
func (n *Notifier) Notify(note gallery.Notification) {
	n.mu.Lock()
	n.pending = append(n.pending, note)
	n.mu.Unlock()

	if n.mirror != nil {
		n.mirror.Notify(note)
	}
}

// Drain returns and clears the queued notifications
func (n *Notifier) Drain() []gallery.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := n.pending
	n.pending = nil
	return out
}
