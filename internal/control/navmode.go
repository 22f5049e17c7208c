package control

import (
	"fmt"

	"github.com/soar/thtrack/internal/psmove"
)

// Mode gates whether the loop drives the arrow keys.
type Mode int

const (
	// ModeNav leaves the arrows alone so the player can use menus.
	ModeNav Mode = iota
	// ModeActive steers the character toward the controller.
	ModeActive
)

func (m Mode) String() string {
	if m == ModeActive {
		return "active"
	}
	return "nav"
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "active":
		*m = ModeActive
	case "nav":
		*m = ModeNav
	default:
		return fmt.Errorf("unknown mode %q", b)
	}
	return nil
}

// ToggleNav flips the mode on a rising edge of the toggle button. Entering
// nav mode releases every held arrow and clears s.Held.
//
// The toggle button's previous state is tracked separately from s.Buttons so
// an iteration that skips button processing cannot produce a second edge.
func ToggleNav(s *State, toggle psmove.Button, buttons psmove.ButtonSet, keys ArrowKeys) (events []KeyEvent, toggled bool) {
	pressed := buttons.Has(toggle)
	rising := pressed && !s.toggleDown
	s.toggleDown = pressed
	if !rising {
		return nil, false
	}

	if s.Mode == ModeNav {
		s.Mode = ModeActive
		return nil, true
	}

	s.Mode = ModeNav
	for _, a := range s.Held.Arrows() {
		events = append(events, KeyEvent{Code: keys.Key(a), Down: false})
	}
	s.Held = DirNone
	return events, true
}
