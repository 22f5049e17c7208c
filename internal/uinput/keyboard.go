package uinput

import (
	"fmt"

	buinput "github.com/bendahl/uinput"
)

// Keyboard is a KeySink on top of bendahl/uinput's virtual keyboard. That
// library reports every key immediately, so Sync has nothing left to do.
type Keyboard struct {
	kb buinput.Keyboard
}

func OpenKeyboard(path, name string) (*Keyboard, error) {
	kb, err := buinput.CreateKeyboard(path, []byte(name))
	if err != nil {
		return nil, fmt.Errorf("create keyboard: %w", err)
	}
	return &Keyboard{kb: kb}, nil
}

func (k *Keyboard) Key(code uint16, down bool) error {
	if down {
		return k.kb.KeyDown(int(code))
	}
	return k.kb.KeyUp(int(code))
}

func (k *Keyboard) Sync() error {
	return nil
}

func (k *Keyboard) Close() error {
	return k.kb.Close()
}
