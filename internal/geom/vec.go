// Package geom holds the planar vector helpers used by the network and train
// geometry. Vectors are orb.Point values: X is the first component, Y the second.
package geom

import (
	"math"

	"github.com/paulmach/orb"
)

func Add(a, b orb.Point) orb.Point { return orb.Point{a[0] + b[0], a[1] + b[1]} }

func Sub(a, b orb.Point) orb.Point { return orb.Point{a[0] - b[0], a[1] - b[1]} }

func Scale(v orb.Point, f float64) orb.Point { return orb.Point{v[0] * f, v[1] * f} }

func Dot(a, b orb.Point) float64 { return a[0]*b[0] + a[1]*b[1] }

func Length(v orb.Point) float64 { return math.Hypot(v[0], v[1]) }

// Normalize returns v scaled to unit length. The zero vector is returned as is.
func Normalize(v orb.Point) orb.Point {
	l := Length(v)
	if l == 0 {
		return v
	}
	return Scale(v, 1/l)
}

// Perp rotates v by 90 degrees counter-clockwise.
func Perp(v orb.Point) orb.Point { return orb.Point{-v[1], v[0]} }

// Mat2 is a 2x2 row-major matrix.
type Mat2 [2]orb.Point

// Orientation returns the matrix whose rows are the unit direction of d and its
// counter-clockwise perpendicular.
func Orientation(d orb.Point) Mat2 {
	u := Normalize(d)
	return Mat2{u, Perp(u)}
}

// Apply maps a local (along, across) vector into world space: along the first
// row, across the second.
func (m Mat2) Apply(local orb.Point) orb.Point {
	return Add(Scale(m[0], local[0]), Scale(m[1], local[1]))
}
