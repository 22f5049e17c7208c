package psmove

import (
	"errors"
	"fmt"
	"strings"
)

// Button is a single PS Move button bit as reported by psmoveapi.
type Button uint32

const (
	ButtonTriangle Button = 1 << 4
	ButtonCircle   Button = 1 << 5
	ButtonCross    Button = 1 << 6
	ButtonSquare   Button = 1 << 7
	ButtonSelect   Button = 1 << 8
	ButtonStart    Button = 1 << 11
	ButtonPS       Button = 1 << 16
	ButtonMove     Button = 1 << 19
	ButtonT        Button = 1 << 20
)

// ErrUnknownButton is returned when a name does not match any supported button.
var ErrUnknownButton = errors.New("unknown button")

// buttonNames is ordered by bit value so Names output is stable.
var buttonNames = []struct {
	Button Button
	Name   string
}{
	{ButtonTriangle, "TRIANGLE"},
	{ButtonCircle, "CIRCLE"},
	{ButtonCross, "CROSS"},
	{ButtonSquare, "SQUARE"},
	{ButtonSelect, "SELECT"},
	{ButtonStart, "START"},
	{ButtonPS, "PS"},
	{ButtonMove, "MOVE"},
	{ButtonT, "T"},
}

// ParseButton resolves a configured button name (case-insensitive).
func ParseButton(name string) (Button, error) {
	want := strings.ToUpper(strings.TrimSpace(name))
	for _, bn := range buttonNames {
		if bn.Name == want {
			return bn.Button, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownButton, name)
}

func (b Button) String() string {
	for _, bn := range buttonNames {
		if bn.Button == b {
			return bn.Name
		}
	}
	return fmt.Sprintf("Button(0x%x)", uint32(b))
}

// ButtonSet is the set of buttons held in one sample.
type ButtonSet uint32

// Has reports whether b is in the set.
func (s ButtonSet) Has(b Button) bool {
	return uint32(s)&uint32(b) != 0
}

// Changed returns the buttons whose state differs between s and other.
func (s ButtonSet) Changed(other ButtonSet) ButtonSet {
	return s ^ other
}

// With returns s with b added.
func (s ButtonSet) With(b Button) ButtonSet {
	return s | ButtonSet(b)
}

// Without returns s with b removed.
func (s ButtonSet) Without(b Button) ButtonSet {
	return s &^ ButtonSet(b)
}

// Names lists the known buttons in the set. Unknown bits are dropped.
func (s ButtonSet) Names() []string {
	names := make([]string, 0, len(buttonNames))
	for _, bn := range buttonNames {
		if s.Has(bn.Button) {
			names = append(names, bn.Name)
		}
	}
	return names
}
