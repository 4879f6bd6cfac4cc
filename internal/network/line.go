package network

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"transit-map/internal/geom"
)

var ErrShortLine = errors.New("line needs at least two stops")

// LineStop is a station on a line together with the tracks leading to the
// previous stop (Preceding, pointing backwards) and to the next one (Following).
type LineStop struct {
	Station   *Station
	Preceding *Track
	Following *Track
}

func (s *LineStop) Position() orb.Point { return s.Station.Position }

func (s *LineStop) IsTerminal() bool { return s.Preceding == nil || s.Following == nil }

// FollowingPosition is where a train leaving towards the next stop starts.
func (s *LineStop) FollowingPosition(width float64) orb.Point {
	return geom.Add(s.Position(), s.Following.Shift(width))
}

// PrecedingPosition is where a train leaving towards the previous stop starts.
func (s *LineStop) PrecedingPosition(width float64) orb.Point {
	return geom.Add(s.Position(), s.Preceding.Shift(width))
}

// Vertices returns the ribbon boundary points at this stop: one pair, or two
// pairs when the line changes lane here. Each pair runs from the right to the
// left edge in travel direction. A positive miterLimit caps the miter length
// in lane widths.
func (s *LineStop) Vertices(width, miterLimit float64) []orb.Point {
	switch {
	case s.Preceding == nil && s.Following == nil:
		return nil
	case s.Preceding == nil:
		return s.pair(s.Following.Normal(), s.Following.Displacement(), width)
	case s.Following == nil:
		// Preceding points backwards, so the travel-direction frame is mirrored.
		return s.pair(geom.Scale(s.Preceding.Normal(), -1), -s.Preceding.Displacement(), width)
	}

	np := geom.Scale(s.Preceding.Normal(), -1)
	nf := s.Following.Normal()
	m := miter(np, nf, miterLimit)

	dp := -s.Preceding.Displacement()
	df := s.Following.Displacement()
	vs := s.pair(m, dp, width)
	if dp != df {
		vs = append(vs, s.pair(m, df, width)...)
	}
	return vs
}

func (s *LineStop) pair(v orb.Point, displacement, width float64) []orb.Point {
	return []orb.Point{
		geom.Add(s.Position(), geom.Scale(v, (displacement-0.5)*width)),
		geom.Add(s.Position(), geom.Scale(v, (displacement+0.5)*width)),
	}
}

// miter joins the unit normals of the incoming and outgoing segment. The
// result projects to length 1 on both normals, so ribbon width stays constant
// through the bend. Straight joins give the normal itself. A segment doubling
// back has no join, so the incoming normal is kept.
func miter(np, nf orb.Point, limit float64) orb.Point {
	if 1+geom.Dot(np, nf) < 1e-9 {
		return np
	}
	m := geom.Scale(geom.Add(np, nf), 1/(1+geom.Dot(np, nf)))
	if limit > 0 && geom.Length(m) > limit {
		m = geom.Scale(geom.Normalize(m), limit)
	}
	return m
}

type Line struct {
	Name  string
	Color Color
	Stops []LineStop
}

// BuildLine walks consecutive station pairs and allocates a lane for the
// line's color in every bundle it passes.
func BuildLine(n *Network, name string, color Color, stations []StationID) (*Line, error) {
	if len(stations) < 2 {
		return nil, fmt.Errorf("line %q: %w", name, ErrShortLine)
	}
	l := &Line{Name: name, Color: color, Stops: make([]LineStop, len(stations))}
	for i, id := range stations {
		st := n.Station(id)
		if st == nil {
			return nil, fmt.Errorf("line %q stop %d: unknown station %d", name, i, id)
		}
		l.Stops[i].Station = st
	}
	for i := 0; i < len(stations)-1; i++ {
		from, to := l.Stops[i].Station, l.Stops[i+1].Station
		direction := geom.Sub(to.Position, from.Position)
		track := n.TrackTo(from.ID, to.ID, direction, color.Key())
		reversed := track.Reverse()
		l.Stops[i].Following = &track
		l.Stops[i+1].Preceding = &reversed
	}
	return l, nil
}

// Vertices concatenates the boundary points of all stops into one
// triangle strip.
func (l *Line) Vertices(width, miterLimit float64) []orb.Point {
	var vs []orb.Point
	for i := range l.Stops {
		vs = append(vs, l.Stops[i].Vertices(width, miterLimit)...)
	}
	return vs
}
