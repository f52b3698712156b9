package web

import (
	"context"
	"sync"
	"time"

	"gpsfix/internal/gps"
)

// Broadcaster fans gps snapshots out to WebSocket clients. It keeps the most
// recent value so new subscribers get an immediate sample.
type Broadcaster struct {
	mu       sync.RWMutex
	subs     map[int]chan gps.Snapshot
	nextID   int
	last     gps.Snapshot
	haveLast bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan gps.Snapshot)}
}

func (b *Broadcaster) Subscribe(buffer int) (int, <-chan gps.Snapshot) {
	if buffer <= 0 {
		buffer = 2
	}
	ch := make(chan gps.Snapshot, buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	last, have := b.last, b.haveLast
	b.mu.Unlock()
	if have {
		ch <- last
	}
	return id, ch
}

func (b *Broadcaster) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers snap to every subscriber. A subscriber whose buffer is
// full misses this value and gets the next one.
func (b *Broadcaster) Publish(snap gps.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = snap
	b.haveLast = true
	for _, ch := range b.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Watch polls src every interval and publishes when a sentence has committed
// or the last error changed. It returns when ctx ends.
func (b *Broadcaster) Watch(ctx context.Context, src SnapshotSource, interval time.Duration) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := src.Snapshot()
	b.Publish(prev)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		cur := src.Snapshot()
		if cur.Seq == prev.Seq && cur.LastError == prev.LastError && cur.Valid == prev.Valid {
			continue
		}
		prev = cur
		b.Publish(cur)
	}
}
