package uinput

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	buinput "github.com/bendahl/uinput"
)

// Arrow key codes. Movement always uses the arrow keys.
const (
	KeyUp    = uint16(buinput.KeyUp)
	KeyLeft  = uint16(buinput.KeyLeft)
	KeyRight = uint16(buinput.KeyRight)
	KeyDown  = uint16(buinput.KeyDown)
)

var ErrUnknownKey = errors.New("unknown key")

var keyNames = map[string]int{
	"ESC":        buinput.KeyEsc,
	"ENTER":      buinput.KeyEnter,
	"SPACE":      buinput.KeySpace,
	"TAB":        buinput.KeyTab,
	"BACKSPACE":  buinput.KeyBackspace,
	"LEFTCTRL":   buinput.KeyLeftctrl,
	"RIGHTCTRL":  buinput.KeyRightctrl,
	"LEFTSHIFT":  buinput.KeyLeftshift,
	"RIGHTSHIFT": buinput.KeyRightshift,
	"LEFTALT":    buinput.KeyLeftalt,
	"UP":         buinput.KeyUp,
	"DOWN":       buinput.KeyDown,
	"LEFT":       buinput.KeyLeft,
	"RIGHT":      buinput.KeyRight,
	"A":          buinput.KeyA,
	"C":          buinput.KeyC,
	"D":          buinput.KeyD,
	"Q":          buinput.KeyQ,
	"R":          buinput.KeyR,
	"S":          buinput.KeyS,
	"V":          buinput.KeyV,
	"W":          buinput.KeyW,
	"X":          buinput.KeyX,
	"Z":          buinput.KeyZ,
	"F1":         buinput.KeyF1,
	"F2":         buinput.KeyF2,
	"F10":        buinput.KeyF10,
	"F12":        buinput.KeyF12,
}

// ParseKey accepts a key name with or without the KEY_ prefix ("KEY_Z",
// "leftshift") or a numeric evdev code ("44", "0x2c").
func ParseKey(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 0, 16); err == nil {
		if n == 0 {
			return 0, fmt.Errorf("%w: code 0 is KEY_RESERVED", ErrUnknownKey)
		}
		return uint16(n), nil
	}
	name := strings.TrimPrefix(strings.ToUpper(s), "KEY_")
	if code, ok := keyNames[name]; ok {
		return uint16(code), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKey, s)
}

// KeyName returns the KEY_ name for code, or its number when unnamed.
func KeyName(code uint16) string {
	for name, c := range keyNames {
		if uint16(c) == code {
			return "KEY_" + name
		}
	}
	return strconv.Itoa(int(code))
}
