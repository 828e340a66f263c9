package vec

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Vec2 is a point or direction in world space.
//
// All operations return new values; a Vec2 is only ever changed by assigning
// the result of an operation back to the field that holds it.
type Vec2 struct {
	X float64 `json:"x" toml:"x" yaml:"x"`
	Y float64 `json:"y" toml:"y" yaml:"y"`
}

// New returns the vector (x, y).
func New(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

// Zero returns the origin.
func Zero() Vec2 { return Vec2{} }

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v * s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the Euclidean distance between v and o.
func (v Vec2) Dist(o Vec2) float64 { return o.Sub(v).Len() }

// Normalize returns v scaled to unit length.
// The second result is false when v has zero length, in which case the
// direction is undefined and the zero vector is returned.
func (v Vec2) Normalize() (Vec2, bool) {
	l := v.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec2{}, false
	}
	return Vec2{v.X / l, v.Y / l}, true
}

// Lerp returns the linear interpolation v*(1-t) + o*t.
func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return v.Scale(1 - t).Add(o.Scale(t))
}

// IsFinite reports whether both components are neither NaN nor infinite.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// String formats v as "(x, y)" with two decimals.
func (v Vec2) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

// Mean returns the arithmetic mean of ps. It panics when ps is empty.
func Mean(ps ...Vec2) Vec2 {
	if len(ps) == 0 {
		panic("vec: mean of zero points")
	}
	var sum Vec2
	for _, p := range ps {
		sum = sum.Add(p)
	}
	return sum.Scale(1 / float64(len(ps)))
}

// Rect is an axis-aligned area of world space.
type Rect struct {
	Min Vec2 `json:"min"`
	Max Vec2 `json:"max"`
}

// FromRadii returns the rectangle centred on the origin that extends rx to
// either side horizontally and ry vertically.
func FromRadii(rx, ry float64) Rect {
	return Rect{Min: Vec2{-rx, -ry}, Max: Vec2{rx, ry}}
}

// Size returns the width and height of r as a vector.
func (r Rect) Size() Vec2 { return r.Max.Sub(r.Min) }

// Center returns the midpoint of r.
func (r Rect) Center() Vec2 { return r.Min.Lerp(r.Max, 0.5) }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Elevate maps a unit-square parameter u (both components in [0,1]) into r.
func (r Rect) Elevate(u Vec2) Vec2 {
	return Vec2{
		X: r.Min.X + u.X*(r.Max.X-r.Min.X),
		Y: r.Min.Y + u.Y*(r.Max.Y-r.Min.Y),
	}
}

// Random returns a uniformly distributed point inside r.
func (r Rect) Random(rng *rand.Rand) Vec2 {
	return r.Elevate(Vec2{rng.Float64(), rng.Float64()})
}
