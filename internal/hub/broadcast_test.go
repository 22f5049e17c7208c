package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/soar/thtrack/internal/control"
)

func recv(t *testing.T, c *Client) WSMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad message %s: %v", data, err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
	}
	return WSMessage{}
}

func TestBroadcasterFanOut(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := &Client{hub: h, send: make(chan []byte, 16)}
	h.Register(c)

	b := NewBroadcaster(h)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	b.Publish(control.Frame{Seq: 1, Mode: control.ModeActive, Toggled: true, Held: "N"})

	ev := recv(t, c)
	if ev.Type != "event" || ev.Event != EventNavMode || ev.Detail != "active" {
		t.Errorf("first message = %+v, want nav_mode event", ev)
	}
	fr := recv(t, c)
	if fr.Type != "frame" || fr.Frame == nil || fr.Frame.Held != "N" || fr.Frame.Mode != control.ModeActive {
		t.Errorf("second message = %+v, want frame", fr)
	}
	if fr.Seq <= ev.Seq {
		t.Errorf("sequence not increasing: %d then %d", ev.Seq, fr.Seq)
	}

	deadline := time.Now().Add(2 * time.Second)
	for b.LastFrame().Seq != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if b.LastFrame().Seq != 1 {
		t.Errorf("LastFrame().Seq = %d, want 1", b.LastFrame().Seq)
	}

	b.SendInitialState(c)
	if full := recv(t, c); full.Type != "full" || full.Frame == nil || full.Frame.Seq != 1 {
		t.Errorf("initial state = %+v", full)
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	b := NewBroadcaster(NewHub())
	done := make(chan struct{})
	go func() {
		for i := 0; i < frameBuffer*4; i++ {
			b.Publish(control.Frame{Seq: uint64(i + 1)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with nobody draining")
	}
}

func TestFrameEvents(t *testing.T) {
	ok := control.Frame{Seq: 2}
	failed := control.Frame{Seq: 3, Err: "short read"}

	if ev := frameEvents(ok, failed); len(ev) != 1 || ev[0][0] != EventSampleError || ev[0][1] != "short read" {
		t.Errorf("ok -> failed: %v", ev)
	}
	if ev := frameEvents(failed, failed); len(ev) != 0 {
		t.Errorf("repeated failure should not repeat the event: %v", ev)
	}
	if ev := frameEvents(failed, control.Frame{Seq: 4}); len(ev) != 1 || ev[0][0] != EventSampleOK {
		t.Errorf("failed -> ok: %v", ev)
	}
}
