package control

import "github.com/soar/thtrack/internal/psmove"

// KeyEvent is a single key transition to send to the sink.
type KeyEvent struct {
	Code uint16 `json:"code"`
	Down bool   `json:"down"`
}

// RemapButtons turns button edges between prev and next into key events,
// in action table order. Outside nav mode the shot action goes through the
// smart shot policy; shotDown is the last state emitted for the shot key and
// is updated whenever a shot event is produced.
func RemapButtons(prev, next psmove.ButtonSet, actions []Action, smart SmartShot, mode Mode, shotDown *bool) []KeyEvent {
	changed := prev.Changed(next)
	if changed == 0 {
		return nil
	}

	var events []KeyEvent
	for _, a := range actions {
		if !changed.Has(a.Button) {
			continue
		}
		down := next.Has(a.Button)

		if a.Name == ActionShot && mode == ModeActive {
			switch smart {
			case SmartShotReverse:
				down = !down
			case SmartShotToggle:
				if !down {
					continue
				}
				down = !*shotDown
			}
		}
		if a.Name == ActionShot {
			*shotDown = down
		}
		events = append(events, KeyEvent{Code: a.Key, Down: down})
	}
	return events
}
