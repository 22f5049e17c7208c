package control

import (
	"errors"
	"fmt"
	"strings"

	"github.com/soar/thtrack/internal/psmove"
)

// Action names, in the order their key events are emitted.
const (
	ActionShot  = "shot"
	ActionBomb  = "bomb"
	ActionFocus = "focus"
	ActionSkip  = "skip"
	ActionPause = "pause"
)

// ActionNames is the fixed action table order.
var ActionNames = []string{ActionShot, ActionBomb, ActionFocus, ActionSkip, ActionPause}

// SmartShot selects how the shot key follows the shot button outside nav mode.
type SmartShot int

const (
	SmartShotNone SmartShot = iota
	// SmartShotReverse holds the shot key while the button is up.
	SmartShotReverse
	// SmartShotToggle flips the shot key on every button press.
	SmartShotToggle
)

var ErrUnknownSmartShot = errors.New("unknown smart_shot value")

// ParseSmartShot accepts none, reverse or toggle in any case.
// An empty string means none.
func ParseSmartShot(s string) (SmartShot, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SmartShotNone, nil
	case "reverse":
		return SmartShotReverse, nil
	case "toggle":
		return SmartShotToggle, nil
	}
	return SmartShotNone, fmt.Errorf("%w: %q (supported: none, reverse, toggle)", ErrUnknownSmartShot, s)
}

func (s SmartShot) String() string {
	switch s {
	case SmartShotReverse:
		return "reverse"
	case SmartShotToggle:
		return "toggle"
	}
	return "none"
}

// Action binds a controller button to a keyboard key.
type Action struct {
	Name   string
	Button psmove.Button
	Key    uint16
}

// ArrowKeys holds the key codes sent for each movement arrow.
type ArrowKeys struct {
	Right uint16
	Up    uint16
	Left  uint16
	Down  uint16
}

// Key returns the key code for a.
func (k ArrowKeys) Key(a Arrow) uint16 {
	switch a {
	case ArrowRight:
		return k.Right
	case ArrowUp:
		return k.Up
	case ArrowLeft:
		return k.Left
	case ArrowDown:
		return k.Down
	}
	return 0
}

// Config is the validated remapping configuration. It is read-only once the
// loop starts.
type Config struct {
	Controller Area
	Game       Area
	// Clamp limits controller coordinates to the controller area before mapping.
	Clamp bool

	PrecisionNormal float64
	PrecisionFocus  float64

	Arrows    ArrowKeys
	Actions   []Action
	SmartShot SmartShot
	NavToggle psmove.Button
}

// Action looks up an action by name.
func (c *Config) Action(name string) (Action, bool) {
	for _, a := range c.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}

// Keys returns every key code the loop may emit, arrows first.
func (c *Config) Keys() []uint16 {
	keys := []uint16{c.Arrows.Right, c.Arrows.Up, c.Arrows.Left, c.Arrows.Down}
	for _, a := range c.Actions {
		keys = append(keys, a.Key)
	}
	return keys
}

// Validate checks everything the loop relies on without rechecking.
func (c *Config) Validate() error {
	for _, r := range []struct {
		name string
		rng  Range
	}{
		{"controller x", c.Controller.X},
		{"controller y", c.Controller.Y},
		{"game x", c.Game.X},
		{"game y", c.Game.Y},
	} {
		if err := r.rng.Validate(); err != nil {
			return fmt.Errorf("%s range: %w", r.name, err)
		}
	}
	if c.PrecisionNormal < 0 || c.PrecisionFocus < 0 {
		return fmt.Errorf("precision must not be negative (normal %g, focus %g)", c.PrecisionNormal, c.PrecisionFocus)
	}
	if c.NavToggle == 0 {
		return errors.New("nav toggle button not set")
	}

	seen := make(map[string]bool, len(c.Actions))
	for _, a := range c.Actions {
		if seen[a.Name] {
			return fmt.Errorf("action %q configured twice", a.Name)
		}
		seen[a.Name] = true
		if a.Button == 0 {
			return fmt.Errorf("action %q has no button", a.Name)
		}
		if a.Key == 0 {
			return fmt.Errorf("action %q has no key code", a.Name)
		}
	}
	for _, name := range []string{ActionShot, ActionFocus} {
		if !seen[name] {
			return fmt.Errorf("action %q is required", name)
		}
	}
	return nil
}
