package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/soar/thtrack/internal/psmove"
)

// GamePosition is the character position read from the game process.
type GamePosition struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// PositionSampler reads the character position from the game.
type PositionSampler interface {
	Sample() (GamePosition, error)
}

// KeySink receives key transitions. Sync commits everything written since the
// previous Sync.
type KeySink interface {
	Key(code uint16, down bool) error
	Sync() error
}

// Source yields tracker signals, blocking until one is available.
type Source interface {
	Next() (psmove.Signal, error)
}

// State is everything the loop remembers between updates.
type State struct {
	Mode     Mode
	Held     DirectionSet
	Buttons  psmove.ButtonSet
	ShotDown bool

	toggleDown bool
}

// Frame describes one completed iteration.
type Frame struct {
	Seq       uint64        `json:"seq"`
	Update    psmove.Update `json:"update"`
	Mode      Mode          `json:"mode"`
	Toggled   bool          `json:"toggled,omitempty"`
	Game      *Point        `json:"game,omitempty"`
	Target    *Point        `json:"target,omitempty"`
	Precision float64       `json:"precision,omitempty"`
	Held      string        `json:"held"`
	Events    []KeyEvent    `json:"events,omitempty"`
	Err       string        `json:"error,omitempty"`
}

// Loop drives the sink from tracker updates. It owns its State and must only
// be used from one goroutine.
type Loop struct {
	cfg     Config
	focus   psmove.Button
	sampler PositionSampler
	sink    KeySink
	state   State
	seq     uint64

	observe func(Frame)
	verbose bool
}

// NewLoop builds a loop in nav mode. cfg must already be validated.
func NewLoop(cfg Config, sampler PositionSampler, sink KeySink) *Loop {
	l := &Loop{
		cfg:     cfg,
		sampler: sampler,
		sink:    sink,
		state:   State{Mode: ModeNav},
	}
	if a, ok := cfg.Action(ActionFocus); ok {
		l.focus = a.Button
	}
	return l
}

// Observe registers fn to receive a Frame after every iteration. fn runs on
// the loop goroutine and must not block.
func (l *Loop) Observe(fn func(Frame)) {
	l.observe = fn
}

// SetVerbose enables per-frame debug logging.
func (l *Loop) SetVerbose(v bool) {
	l.verbose = v
}

// State returns a copy of the loop state.
func (l *Loop) State() State {
	return l.state
}

// Step runs one iteration for u. The only error it returns is a sink failure.
func (l *Loop) Step(u psmove.Update) error {
	l.seq++
	frame := Frame{Seq: l.seq, Update: u}

	events, toggled := ToggleNav(&l.state, l.cfg.NavToggle, u.Buttons, l.cfg.Arrows)
	if toggled {
		frame.Toggled = true
		log.Printf("Navigation mode: %s", l.state.Mode)
	}

	pos, err := l.sampler.Sample()
	if err != nil {
		log.Printf("Position read failed: %v", err)
		frame.Err = err.Error()
		return l.finish(&frame, events)
	}
	game := Point{X: float64(pos.X), Y: float64(pos.Y)}
	frame.Game = &game

	p := Point{X: u.X, Y: u.Y}
	if l.cfg.Clamp {
		p = Point{X: l.cfg.Controller.X.Clamp(p.X), Y: l.cfg.Controller.Y.Clamp(p.Y)}
	}
	target, err := Target(p, l.cfg.Controller, l.cfg.Game)
	if err != nil {
		log.Printf("Target mapping failed: %v", err)
		frame.Err = err.Error()
		return l.finish(&frame, events)
	}
	frame.Target = &target

	if l.state.Mode == ModeActive {
		prec := l.cfg.PrecisionNormal
		if u.Buttons.Has(l.focus) {
			prec = l.cfg.PrecisionFocus
		}
		frame.Precision = prec
		next := Quantize(target.X-game.X, target.Y-game.Y, prec)
		events = append(events, arrowEvents(l.state.Held, next, l.cfg.Arrows)...)
		l.state.Held = next
	}

	events = append(events, RemapButtons(l.state.Buttons, u.Buttons, l.cfg.Actions, l.cfg.SmartShot, l.state.Mode, &l.state.ShotDown)...)
	l.state.Buttons = u.Buttons

	return l.finish(&frame, events)
}

// arrowEvents emits a transition for every arrow that differs between held and next.
func arrowEvents(held, next DirectionSet, keys ArrowKeys) []KeyEvent {
	var events []KeyEvent
	for _, a := range held.SymmetricDifference(next).Arrows() {
		events = append(events, KeyEvent{Code: keys.Key(a), Down: next.Has(a)})
	}
	return events
}

func (l *Loop) finish(frame *Frame, events []KeyEvent) error {
	for _, ev := range events {
		if err := l.sink.Key(ev.Code, ev.Down); err != nil {
			return fmt.Errorf("write key %d: %w", ev.Code, err)
		}
	}
	if len(events) > 0 {
		if err := l.sink.Sync(); err != nil {
			return fmt.Errorf("sync: %w", err)
		}
	}

	frame.Mode = l.state.Mode
	frame.Held = l.state.Held.String()
	frame.Events = events
	if l.verbose {
		log.Printf("[DEBUG] frame=%d mode=%s held=%s events=%d", frame.Seq, frame.Mode, frame.Held, len(events))
	}
	if l.observe != nil {
		l.observe(*frame)
	}
	return nil
}

// Run consumes src until the session ends, src is exhausted, ctx is
// cancelled between updates, or the sink fails.
func (l *Loop) Run(ctx context.Context, src Source) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		sig, err := src.Next()
		if errors.Is(err, io.EOF) {
			log.Println("Tracker stream closed")
			return nil
		}
		if errors.Is(err, psmove.ErrMalformedUpdate) {
			log.Printf("Ignoring update: %v", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("read tracker stream: %w", err)
		}

		switch sig.Kind {
		case psmove.SignalEnd:
			log.Println("Received PS signal, session over")
			return nil
		case psmove.SignalUpdate:
			if err := l.Step(sig.Update); err != nil {
				return err
			}
		default:
			log.Printf("Received unknown signal: %q", sig.Token)
		}
	}
}
