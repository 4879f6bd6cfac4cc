package network

import (
	"math"

	"github.com/paulmach/orb"

	"transit-map/internal/geom"
)

// LaneKey identifies which lane of a bundle a line runs on. Lines sharing a key
// share the lane.
type LaneKey uint32

// Bundle is the corridor between two adjacent stations.
type Bundle struct {
	orthogonal orb.Point
	lanes      map[LaneKey]int
	order      []LaneKey
}

func newBundle(direction orb.Point) *Bundle {
	return &Bundle{
		orthogonal: geom.Normalize(geom.Perp(direction)),
		lanes:      make(map[LaneKey]int),
	}
}

func (b *Bundle) Orthogonal() orb.Point { return b.orthogonal }

// Len is the number of lanes allocated so far.
func (b *Bundle) Len() int { return len(b.order) }

// Keys returns lane keys in allocation order.
func (b *Bundle) Keys() []LaneKey { return append([]LaneKey(nil), b.order...) }

// FetchTrack returns the lane for key, allocating the next lane number the
// first time key is seen. Lane numbers are dense from 0 and never reused.
func (b *Bundle) FetchTrack(direction orb.Point, key LaneKey) Track {
	number, ok := b.lanes[key]
	if !ok {
		number = len(b.order)
		b.lanes[key] = number
		b.order = append(b.order, key)
	}
	return newTrack(direction, b.orthogonal, number)
}

// Track is one lane of a bundle seen from one of its endpoints.
type Track struct {
	Direction  orb.Point
	Orthogonal orb.Point
	Number     int

	orientation geom.Mat2
}

func newTrack(direction, orthogonal orb.Point, number int) Track {
	return Track{
		Direction:   direction,
		Orthogonal:  orthogonal,
		Number:      number,
		orientation: geom.Orientation(direction),
	}
}

// LaneOffset maps lane numbers 0,1,2,3,4,... to 0,+1,-1,+2,-2,...
func LaneOffset(number int) float64 {
	o := math.Ceil(float64(number) / 2)
	if number%2 == 0 {
		return -o
	}
	return o
}

// Offset is the lane's signed displacement along Orthogonal, in lane widths.
func (t Track) Offset() float64 { return LaneOffset(t.Number) }

// Reverse is the same lane seen from the other endpoint.
func (t Track) Reverse() Track {
	return newTrack(geom.Scale(t.Direction, -1), t.Orthogonal, t.Number)
}

// Normal is the unit left normal of Direction.
func (t Track) Normal() orb.Point { return t.orientation[1] }

// Displacement is Offset expressed along Normal instead of the bundle's
// orthogonal, so Normal*Displacement is the same point for both directions.
func (t Track) Displacement() float64 {
	if geom.Dot(t.Orthogonal, t.Normal()) < 0 {
		return -t.Offset()
	}
	return t.Offset()
}

// Orientation has the unit direction and its perpendicular as rows.
func (t Track) Orientation() geom.Mat2 { return t.orientation }

// Shift is the vector from the corridor centerline to the lane center.
func (t Track) Shift(width float64) orb.Point {
	return geom.Scale(t.Orthogonal, t.Offset()*width)
}
