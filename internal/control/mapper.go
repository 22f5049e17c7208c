package control

import (
	"errors"
	"fmt"
)

// ErrDivisionByZero is returned when a source range has zero width.
var ErrDivisionByZero = errors.New("division by zero: empty source range")

// Range is a closed coordinate interval on one axis.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Validate rejects ranges that cannot be used as a mapping source.
func (r Range) Validate() error {
	if r.Max == r.Min {
		return fmt.Errorf("%w: [%g, %g]", ErrDivisionByZero, r.Min, r.Max)
	}
	return nil
}

// Clamp limits v to the range, whichever way round Min and Max are.
func (r Range) Clamp(v float64) float64 {
	lo, hi := r.Min, r.Max
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MapRange rescales value from src to dst.
func MapRange(value float64, src, dst Range) (float64, error) {
	if src.Max == src.Min {
		return 0, ErrDivisionByZero
	}
	return dst.Min + (value-src.Min)*(dst.Max-dst.Min)/(src.Max-src.Min), nil
}

// Point is a position in either coordinate space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Area is a pair of axis ranges.
type Area struct {
	X Range `json:"x"`
	Y Range `json:"y"`
}

// Target maps a controller position into game space. The game X axis runs
// opposite to the camera's, so the mapped X is mirrored inside the game range.
func Target(p Point, controller, game Area) (Point, error) {
	x, err := MapRange(p.X, controller.X, game.X)
	if err != nil {
		return Point{}, fmt.Errorf("x axis: %w", err)
	}
	y, err := MapRange(p.Y, controller.Y, game.Y)
	if err != nil {
		return Point{}, fmt.Errorf("y axis: %w", err)
	}
	return Point{X: (game.X.Max + game.X.Min) - x, Y: y}, nil
}
