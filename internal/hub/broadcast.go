package hub

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/soar/thtrack/internal/control"
)

const (
	fullSyncInterval = 5 * time.Second
	frameBuffer      = 64
)

// Broadcaster receives loop frames and broadcasts them to the hub.
type Broadcaster struct {
	hub    *Hub
	frames chan control.Frame

	mu        sync.RWMutex
	lastFrame control.Frame
	seq       int64
	dropped   int64
}

func NewBroadcaster(h *Hub) *Broadcaster {
	return &Broadcaster{
		hub:    h,
		frames: make(chan control.Frame, frameBuffer),
	}
}

// Publish queues a frame without blocking. It is meant to be the loop's
// observer, so a slow monitor drops frames instead of delaying key events.
func (b *Broadcaster) Publish(f control.Frame) {
	select {
	case b.frames <- f:
	default:
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
	}
}

// LastFrame returns the most recent frame handled by Run.
func (b *Broadcaster) LastFrame() control.Frame {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastFrame
}

// Run starts the broadcaster loop. Should be run in a goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case f := <-b.frames:
			b.mu.Lock()
			prev := b.lastFrame
			b.lastFrame = f
			b.mu.Unlock()

			for _, ev := range frameEvents(prev, f) {
				b.send(NewEventMessage(b.nextSeq(), ev[0], ev[1]))
			}
			b.send(NewFrameMessage(b.nextSeq(), &f))

		case <-ticker.C:
			b.mu.Lock()
			dropped := b.dropped
			b.dropped = 0
			last := b.lastFrame
			b.mu.Unlock()

			if dropped > 0 {
				log.Printf("Monitor dropped %d frames", dropped)
			}
			if last.Seq > 0 {
				b.send(NewFullMessage(b.nextSeq(), &last))
			}
		}
	}
}

// frameEvents lists the [event, detail] pairs implied by moving from prev to f.
func frameEvents(prev, f control.Frame) [][2]string {
	var events [][2]string
	if f.Toggled {
		events = append(events, [2]string{EventNavMode, f.Mode.String()})
	}
	switch {
	case f.Err != "" && prev.Err == "":
		events = append(events, [2]string{EventSampleError, f.Err})
	case f.Err == "" && prev.Err != "" && f.Seq > 0:
		events = append(events, [2]string{EventSampleOK, ""})
	}
	return events
}

func (b *Broadcaster) nextSeq() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	return b.seq
}

// SendInitialState sends the last frame to a newly connected client.
func (b *Broadcaster) SendInitialState(c *Client) {
	last := b.LastFrame()
	data, err := json.Marshal(NewFullMessage(b.nextSeq(), &last))
	if err != nil {
		log.Printf("Error marshaling initial state: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (b *Broadcaster) send(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling %s message: %v", msg.Type, err)
		return
	}
	b.hub.Broadcast(data)
}
