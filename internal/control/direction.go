package control

import (
	"math"
	"strings"
)

// Arrow is one of the four movement keys.
type Arrow uint8

const (
	ArrowRight Arrow = 1 << iota
	ArrowUp
	ArrowLeft
	ArrowDown
)

// arrowOrder fixes the order arrows are visited when emitting events.
var arrowOrder = [...]Arrow{ArrowRight, ArrowUp, ArrowLeft, ArrowDown}

func (a Arrow) String() string {
	switch a {
	case ArrowRight:
		return "right"
	case ArrowUp:
		return "up"
	case ArrowLeft:
		return "left"
	case ArrowDown:
		return "down"
	}
	return "none"
}

// DirectionSet is the set of arrows currently held.
type DirectionSet uint8

// Compass directions, indexed counter-clockwise from east in 45 degree steps.
const (
	DirNone DirectionSet = 0
	DirE                 = DirectionSet(ArrowRight)
	DirNE                = DirectionSet(ArrowUp | ArrowRight)
	DirN                 = DirectionSet(ArrowUp)
	DirNW                = DirectionSet(ArrowUp | ArrowLeft)
	DirW                 = DirectionSet(ArrowLeft)
	DirSW                = DirectionSet(ArrowDown | ArrowLeft)
	DirS                 = DirectionSet(ArrowDown)
	DirSE                = DirectionSet(ArrowDown | ArrowRight)
)

var compass = [8]DirectionSet{DirE, DirNE, DirN, DirNW, DirW, DirSW, DirS, DirSE}

// Has reports whether a is held.
func (d DirectionSet) Has(a Arrow) bool {
	return d&DirectionSet(a) != 0
}

// Union returns the arrows held in either set.
func (d DirectionSet) Union(o DirectionSet) DirectionSet {
	return d | o
}

// SymmetricDifference returns the arrows whose state differs between the sets.
func (d DirectionSet) SymmetricDifference(o DirectionSet) DirectionSet {
	return d ^ o
}

// Arrows lists the held arrows in emission order.
func (d DirectionSet) Arrows() []Arrow {
	var out []Arrow
	for _, a := range arrowOrder {
		if d.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

// Canonical reports whether d is empty or one of the eight compass sets.
func (d DirectionSet) Canonical() bool {
	if d == DirNone {
		return true
	}
	for _, c := range compass {
		if d == c {
			return true
		}
	}
	return false
}

func (d DirectionSet) String() string {
	names := map[DirectionSet]string{
		DirNone: "none", DirE: "E", DirNE: "NE", DirN: "N", DirNW: "NW",
		DirW: "W", DirSW: "SW", DirS: "S", DirSE: "SE",
	}
	if n, ok := names[d]; ok {
		return n
	}
	parts := make([]string, 0, 4)
	for _, a := range d.Arrows() {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, "+")
}

// Quantize picks the compass direction that moves the character along
// (dx, dy), or DirNone once it is within precision of the target.
// Screen Y grows downward, so dy is negated before taking the angle.
// Sectors are centred on multiples of 45 degrees and an angle exactly on a
// 22.5 degree boundary rounds half up to the next sector.
func Quantize(dx, dy, precision float64) DirectionSet {
	dist := math.Hypot(dx, dy)
	if dist <= precision || math.IsNaN(dist) || math.IsInf(dist, 0) {
		return DirNone
	}
	angle := math.Atan2(-dy, dx) * 180 / math.Pi
	angle = math.Mod(angle+360, 360)
	index := int(math.Round(angle/45)) % 8
	return compass[index]
}
