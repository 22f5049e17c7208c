package control

import (
	"reflect"
	"testing"

	"github.com/soar/thtrack/internal/psmove"
)

var testArrows = ArrowKeys{Right: 106, Up: 103, Left: 105, Down: 108}

func TestToggleNavRisingEdgeOnly(t *testing.T) {
	s := State{Mode: ModeNav}
	start := buttons(psmove.ButtonStart)

	if _, toggled := ToggleNav(&s, psmove.ButtonStart, start, testArrows); !toggled || s.Mode != ModeActive {
		t.Fatalf("first press: toggled=%v mode=%s, want active", toggled, s.Mode)
	}
	if _, toggled := ToggleNav(&s, psmove.ButtonStart, start, testArrows); toggled {
		t.Error("holding the button must not toggle again")
	}
	if _, toggled := ToggleNav(&s, psmove.ButtonStart, 0, testArrows); toggled {
		t.Error("release must not toggle")
	}
	if _, toggled := ToggleNav(&s, psmove.ButtonStart, start, testArrows); !toggled || s.Mode != ModeNav {
		t.Errorf("second press: toggled=%v mode=%s, want nav", toggled, s.Mode)
	}
}

func TestToggleNavReleasesHeldArrows(t *testing.T) {
	s := State{Mode: ModeActive, Held: DirN}
	events, toggled := ToggleNav(&s, psmove.ButtonStart, buttons(psmove.ButtonStart), testArrows)
	if !toggled {
		t.Fatal("expected toggle")
	}
	if want := []KeyEvent{{testArrows.Up, false}}; !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	if s.Held != DirNone {
		t.Errorf("held = %s, want none", s.Held)
	}
}

func TestToggleNavIntoActiveKeepsHeld(t *testing.T) {
	s := State{Mode: ModeNav}
	events, _ := ToggleNav(&s, psmove.ButtonStart, buttons(psmove.ButtonStart), testArrows)
	if len(events) != 0 {
		t.Errorf("entering active emitted %v", events)
	}
}
