package album

import (
	"sync"
	"time"
)

// debounceDelay is how long after the last photo of a media group we wait
// before treating the album as complete. Telegram delivers album items as
// separate updates with no terminator.
const debounceDelay = 2 * time.Second

type key struct {
	userID  int64
	albumID string
}

type group struct {
	fileIDs []string
	timer   *time.Timer
	flushed bool
}

// Buffer collects photos belonging to one Telegram media group and delivers
// them in a single callback once the group has gone quiet.
type Buffer struct {
	mu      sync.Mutex
	pending map[key]*group
	delay   time.Duration
	flush   func(userID int64, fileIDs []string)
}

// NewBuffer creates a buffer that invokes flush once per settled album.
// flush runs on a timer goroutine; it must be safe to call concurrently
// with update handling.
func NewBuffer(flush func(userID int64, fileIDs []string)) *Buffer {
	return &Buffer{
		pending: make(map[key]*group),
		delay:   debounceDelay,
		flush:   flush,
	}
}

// SetDelay overrides the debounce window. Tests only.
func (b *Buffer) SetDelay(d time.Duration) { b.delay = d }

// Add registers one photo of a media group and restarts the group's
// debounce timer.
func (b *Buffer) Add(userID int64, albumID, fileID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := key{userID: userID, albumID: albumID}
	g, ok := b.pending[k]
	if !ok {
		g = &group{}
		b.pending[k] = g
	}
	g.fileIDs = append(g.fileIDs, fileID)

	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(b.delay, func() { b.fire(k) })
}

// fire flushes one group exactly once, even if a stopped timer still ran.
func (b *Buffer) fire(k key) {
	b.mu.Lock()
	g, ok := b.pending[k]
	if !ok || g.flushed {
		b.mu.Unlock()
		return
	}
	g.flushed = true
	delete(b.pending, k)
	fileIDs := g.fileIDs
	b.mu.Unlock()

	b.flush(k.userID, fileIDs)
}

// Drain removes and returns every photo still buffered for the user, used
// when the user finishes the photo step without waiting out the debounce
// window. The flush callback is not invoked; callers handle the result
// themselves, already holding whatever lock the timer path would take.
func (b *Buffer) Drain(userID int64) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var fileIDs []string
	for k, g := range b.pending {
		if k.userID != userID {
			continue
		}
		if g.timer != nil {
			g.timer.Stop()
		}
		g.flushed = true
		delete(b.pending, k)
		fileIDs = append(fileIDs, g.fileIDs...)
	}
	return fileIDs
}
