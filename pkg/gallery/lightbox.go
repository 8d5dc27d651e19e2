package gallery

import (
	"fmt"
	"sync"

	"pixgallery/pkg/pixabay"
)

// Lightbox is the full-size overlay over the rendered cards. It is bound
// to the item set the controller rendered last and is safe for concurrent
// use.
type Lightbox struct {
	mu        sync.Mutex
	items     []pixabay.Hit
	index     int
	open      bool
	refreshes int
}

// NewLightbox returns a closed lightbox with no items
func NewLightbox() *Lightbox {
	return &Lightbox{}
}

// Refresh rebinds the lightbox to items. An open lightbox stays on the
// same index if it still exists and closes otherwise.
func (lb *Lightbox) Refresh(items []pixabay.Hit) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.items = append(lb.items[:0:0], items...)
	lb.refreshes++
	if lb.open && lb.index >= len(lb.items) {
		lb.open = false
		lb.index = 0
	}
}

// Open shows item i
func (lb *Lightbox) Open(i int) error {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if i < 0 || i >= len(lb.items) {
		return fmt.Errorf("lightbox: index %d out of range [0,%d)", i, len(lb.items))
	}
	lb.index = i
	lb.open = true
	return nil
}

func (lb *Lightbox) Close() {
	lb.mu.Lock()
	lb.open = false
	lb.mu.Unlock()
}

func (lb *Lightbox) IsOpen() bool {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.open
}

// Next moves to the following item, wrapping at the end
func (lb *Lightbox) Next() {
	lb.step(1)
}

// Prev moves to the previous item, wrapping at the start
func (lb *Lightbox) Prev() {
	lb.step(-1)
}

func (lb *Lightbox) step(delta int) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	n := len(lb.items)
	if !lb.open || n == 0 {
		return
	}
	lb.index = ((lb.index+delta)%n + n) % n
}

// Current returns the item on display
func (lb *Lightbox) Current() (pixabay.Hit, bool) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if !lb.open || lb.index >= len(lb.items) {
		return pixabay.Hit{}, false
	}
	return lb.items[lb.index], true
}

// Position reports the displayed index and the number of bound items
func (lb *Lightbox) Position() (index, total int) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.index, len(lb.items)
}

// Items returns a copy of the bound item set
func (lb *Lightbox) Items() []pixabay.Hit {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return append([]pixabay.Hit(nil), lb.items...)
}

// Refreshes counts calls to Refresh
func (lb *Lightbox) Refreshes() int {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.refreshes
}
