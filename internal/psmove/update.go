package psmove

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Update is one tracker sample.
type Update struct {
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	Buttons ButtonSet `json:"buttons"`
	Trigger int       `json:"trigger"`
}

type SignalKind int

const (
	// SignalUpdate carries a controller sample.
	SignalUpdate SignalKind = iota
	// SignalEnd is the tracker's "PS" line: the session is over.
	SignalEnd
	// SignalUnknown is any other first token.
	SignalUnknown
)

func (k SignalKind) String() string {
	switch k {
	case SignalUpdate:
		return "update"
	case SignalEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Signal is one parsed line of the tracker stream.
type Signal struct {
	Kind   SignalKind
	Update Update
	Token  string // first token as received, kept for logging unknown signals
}

// ErrMalformedUpdate is returned for an "update" line whose fields do not parse.
var ErrMalformedUpdate = errors.New("malformed update")

// ParseLine parses a single line of tracker output.
func ParseLine(line string) (Signal, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Signal{Kind: SignalUnknown}, nil
	}

	sig := Signal{Token: fields[0]}
	switch fields[0] {
	case "PS":
		sig.Kind = SignalEnd
		return sig, nil
	case "update":
	default:
		sig.Kind = SignalUnknown
		return sig, nil
	}

	if len(fields) != 5 {
		return sig, fmt.Errorf("%w: want 4 fields, got %d", ErrMalformedUpdate, len(fields)-1)
	}
	x, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return sig, fmt.Errorf("%w: x: %v", ErrMalformedUpdate, err)
	}
	y, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return sig, fmt.Errorf("%w: y: %v", ErrMalformedUpdate, err)
	}
	buttons, err := strconv.ParseUint(fields[3], 10, 32)
	if err != nil {
		return sig, fmt.Errorf("%w: buttons: %v", ErrMalformedUpdate, err)
	}
	trigger, err := strconv.Atoi(fields[4])
	if err != nil {
		return sig, fmt.Errorf("%w: trigger: %v", ErrMalformedUpdate, err)
	}

	sig.Kind = SignalUpdate
	sig.Update = Update{
		X:       x,
		Y:       y,
		Buttons: ButtonSet(buttons),
		Trigger: trigger,
	}
	return sig, nil
}
