package control

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/soar/thtrack/internal/psmove"
)

type fakeSampler struct {
	pos   GamePosition
	err   error
	calls int
}

func (f *fakeSampler) Sample() (GamePosition, error) {
	f.calls++
	return f.pos, f.err
}

type fakeSink struct {
	events []KeyEvent
	syncs  int
	fail   error
}

func (f *fakeSink) Key(code uint16, down bool) error {
	if f.fail != nil {
		return f.fail
	}
	f.events = append(f.events, KeyEvent{Code: code, Down: down})
	return nil
}

func (f *fakeSink) Sync() error {
	f.syncs++
	return nil
}

func (f *fakeSink) reset() {
	f.events = nil
	f.syncs = 0
}

func testConfig() Config {
	return Config{
		Controller:      Area{X: Range{-1, 1}, Y: Range{-1, 1}},
		Game:            Area{X: Range{0, 100}, Y: Range{0, 100}},
		Clamp:           true,
		PrecisionNormal: 2,
		PrecisionFocus:  0.5,
		Arrows:          testArrows,
		Actions:         testActions,
		NavToggle:       psmove.ButtonStart,
	}
}

func newTestLoop(cfg Config) (*Loop, *fakeSampler, *fakeSink) {
	sampler := &fakeSampler{pos: GamePosition{X: 50, Y: 50}}
	sink := &fakeSink{}
	return NewLoop(cfg, sampler, sink), sampler, sink
}

func update(x, y float64, bs ...psmove.Button) psmove.Update {
	return psmove.Update{X: x, Y: y, Buttons: buttons(bs...)}
}

func TestLoopStartsInNav(t *testing.T) {
	l, _, sink := newTestLoop(testConfig())

	// Target is the top edge; nav mode must not move.
	if err := l.Step(update(0, -1)); err != nil {
		t.Fatal(err)
	}
	if len(sink.events) != 0 || sink.syncs != 0 {
		t.Errorf("nav mode produced events %v (syncs %d)", sink.events, sink.syncs)
	}
	if l.State().Mode != ModeNav {
		t.Errorf("mode = %s, want nav", l.State().Mode)
	}
}

func TestLoopMovesAfterToggle(t *testing.T) {
	l, _, sink := newTestLoop(testConfig())

	if err := l.Step(update(0, -1, psmove.ButtonStart)); err != nil {
		t.Fatal(err)
	}
	if want := []KeyEvent{{testArrows.Up, true}}; !reflect.DeepEqual(sink.events, want) {
		t.Errorf("events = %v, want %v", sink.events, want)
	}
	if sink.syncs != 1 {
		t.Errorf("syncs = %d, want 1", sink.syncs)
	}
	if l.State().Held != DirN {
		t.Errorf("held = %s, want N", l.State().Held)
	}

	// Controller moves to the top-left corner of the camera, which is the
	// top-right of the game after mirroring.
	sink.reset()
	if err := l.Step(update(-1, -1)); err != nil {
		t.Fatal(err)
	}
	if want := []KeyEvent{{testArrows.Right, true}}; !reflect.DeepEqual(sink.events, want) {
		t.Errorf("events = %v, want %v", sink.events, want)
	}
	if l.State().Held != DirNE {
		t.Errorf("held = %s, want NE", l.State().Held)
	}

	// Reaching the target releases everything.
	sink.reset()
	if err := l.Step(update(0, 0)); err != nil {
		t.Fatal(err)
	}
	want := []KeyEvent{{testArrows.Right, false}, {testArrows.Up, false}}
	if !reflect.DeepEqual(sink.events, want) {
		t.Errorf("events = %v, want %v", sink.events, want)
	}
	if sink.syncs != 1 {
		t.Errorf("syncs = %d, want 1", sink.syncs)
	}
}

func TestLoopNavToggleReleasesArrows(t *testing.T) {
	l, _, sink := newTestLoop(testConfig())

	steps := []psmove.Update{
		update(0, -1, psmove.ButtonStart),
		update(0, -1),
	}
	for _, u := range steps {
		if err := l.Step(u); err != nil {
			t.Fatal(err)
		}
	}
	if l.State().Held != DirN {
		t.Fatalf("held = %s, want N", l.State().Held)
	}

	sink.reset()
	if err := l.Step(update(0, -1, psmove.ButtonStart)); err != nil {
		t.Fatal(err)
	}
	if want := []KeyEvent{{testArrows.Up, false}}; !reflect.DeepEqual(sink.events, want) {
		t.Errorf("events = %v, want %v", sink.events, want)
	}
	if sink.syncs != 1 {
		t.Errorf("syncs = %d, want 1", sink.syncs)
	}
	if st := l.State(); st.Held != DirNone || st.Mode != ModeNav {
		t.Errorf("state = %+v, want nav with nothing held", st)
	}
}

func TestLoopFocusPrecision(t *testing.T) {
	l, sampler, sink := newTestLoop(testConfig())
	sampler.pos = GamePosition{X: 50, Y: 49}

	if err := l.Step(update(0, 0, psmove.ButtonStart)); err != nil {
		t.Fatal(err)
	}
	if len(sink.events) != 0 {
		t.Fatalf("within normal precision: got %v", sink.events)
	}

	if err := l.Step(update(0, 0, psmove.ButtonSquare)); err != nil {
		t.Fatal(err)
	}
	want := []KeyEvent{{testArrows.Down, true}, {keyShift, true}}
	if !reflect.DeepEqual(sink.events, want) {
		t.Errorf("events = %v, want %v", sink.events, want)
	}
}

func TestLoopSampleFailureSkipsIteration(t *testing.T) {
	l, sampler, sink := newTestLoop(testConfig())

	for _, u := range []psmove.Update{update(0, -1, psmove.ButtonStart), update(0, -1)} {
		if err := l.Step(u); err != nil {
			t.Fatal(err)
		}
	}
	before := l.State()
	sink.reset()

	sampler.err = errors.New("short read: got 3 of 8 bytes")
	if err := l.Step(update(1, 1, psmove.ButtonT, psmove.ButtonMove)); err != nil {
		t.Fatalf("sample failure must not be fatal: %v", err)
	}
	if len(sink.events) != 0 || sink.syncs != 0 {
		t.Errorf("failed sample emitted %v (syncs %d)", sink.events, sink.syncs)
	}
	after := l.State()
	if after.Held != before.Held || after.Buttons != before.Buttons {
		t.Errorf("state changed on failed sample: before %+v after %+v", before, after)
	}

	// The next good sample sees the button edges again.
	sampler.err = nil
	if err := l.Step(update(0, -1, psmove.ButtonT, psmove.ButtonMove)); err != nil {
		t.Fatal(err)
	}
	if want := []KeyEvent{{keyZ, true}, {keyX, true}}; !reflect.DeepEqual(sink.events, want) {
		t.Errorf("events = %v, want %v", sink.events, want)
	}
}

func TestLoopSampleFailureKeepsNavRelease(t *testing.T) {
	l, sampler, sink := newTestLoop(testConfig())
	for _, u := range []psmove.Update{update(0, -1, psmove.ButtonStart), update(0, -1)} {
		if err := l.Step(u); err != nil {
			t.Fatal(err)
		}
	}
	sink.reset()

	sampler.err = errors.New("process exited")
	if err := l.Step(update(0, -1, psmove.ButtonStart)); err != nil {
		t.Fatal(err)
	}
	if want := []KeyEvent{{testArrows.Up, false}}; !reflect.DeepEqual(sink.events, want) {
		t.Errorf("events = %v, want %v", sink.events, want)
	}
	if sink.syncs != 1 {
		t.Errorf("syncs = %d, want 1", sink.syncs)
	}

	// START is still held on the next frame: no second toggle.
	sampler.err = nil
	if err := l.Step(update(0, -1, psmove.ButtonStart)); err != nil {
		t.Fatal(err)
	}
	if l.State().Mode != ModeNav {
		t.Errorf("mode = %s, want nav", l.State().Mode)
	}
}

func TestLoopSmartShotReverse(t *testing.T) {
	cfg := testConfig()
	cfg.SmartShot = SmartShotReverse
	l, _, sink := newTestLoop(cfg)

	if err := l.Step(update(0, 0, psmove.ButtonStart)); err != nil {
		t.Fatal(err)
	}
	sink.reset()

	if err := l.Step(update(0, 0, psmove.ButtonT)); err != nil {
		t.Fatal(err)
	}
	if want := []KeyEvent{{keyZ, false}}; !reflect.DeepEqual(sink.events, want) {
		t.Errorf("press: events = %v, want %v", sink.events, want)
	}

	sink.reset()
	if err := l.Step(update(0, 0)); err != nil {
		t.Fatal(err)
	}
	if want := []KeyEvent{{keyZ, true}}; !reflect.DeepEqual(sink.events, want) {
		t.Errorf("release: events = %v, want %v", sink.events, want)
	}
}

func TestLoopSinkFailure(t *testing.T) {
	l, _, sink := newTestLoop(testConfig())
	sink.fail = errors.New("device gone")
	if err := l.Step(update(0, -1, psmove.ButtonStart)); err == nil {
		t.Error("expected sink failure to be returned")
	}
}

func TestLoopObserve(t *testing.T) {
	l, sampler, _ := newTestLoop(testConfig())
	var frames []Frame
	l.Observe(func(f Frame) { frames = append(frames, f) })

	_ = l.Step(update(0, -1, psmove.ButtonStart))
	sampler.err = errors.New("boom")
	_ = l.Step(update(0, -1))

	if len(frames) != 2 {
		t.Fatalf("observed %d frames, want 2", len(frames))
	}
	if f := frames[0]; !f.Toggled || f.Mode != ModeActive || f.Held != "N" || f.Target == nil {
		t.Errorf("frame 1 = %+v", f)
	}
	if f := frames[1]; f.Err != "boom" || f.Game != nil || f.Seq != 2 {
		t.Errorf("frame 2 = %+v", f)
	}
}

func TestLoopRun(t *testing.T) {
	l, sampler, _ := newTestLoop(testConfig())
	input := strings.Join([]string{
		"update 0 -1 2048 0",
		"hello there",
		"update 0 0",
		"update 0 -1 0 0",
		"PS",
		"update 0 -1 2048 0",
	}, "\n")

	if err := l.Run(context.Background(), psmove.NewStream(strings.NewReader(input))); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sampler.calls != 2 {
		t.Errorf("sampled %d times, want 2 (lines after PS must be ignored)", sampler.calls)
	}
}

func TestLoopRunEOF(t *testing.T) {
	l, _, _ := newTestLoop(testConfig())
	if err := l.Run(context.Background(), psmove.NewStream(strings.NewReader("update 0 0 0 0\n"))); err != nil {
		t.Errorf("EOF should end the session cleanly, got %v", err)
	}
}

func TestLoopRunCancelled(t *testing.T) {
	l, _, _ := newTestLoop(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Run(ctx, psmove.NewStream(strings.NewReader("update 0 0 0 0\n")))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := testConfig()
	bad.Game.Y = Range{5, 5}
	if err := bad.Validate(); !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("expected ErrDivisionByZero, got %v", err)
	}

	bad = testConfig()
	bad.Actions = testActions[1:]
	if err := bad.Validate(); err == nil {
		t.Error("missing shot action should be rejected")
	}

	bad = testConfig()
	bad.PrecisionFocus = -1
	if err := bad.Validate(); err == nil {
		t.Error("negative precision should be rejected")
	}
}
