// Package train advances scheduled trips along a line's track geometry.
//
// A trip's arrivals and departures are indexed in travel order: index 0 is the
// first stop the train visits, which is the last stop of the line when it
// travels downstream.
package train

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"

	"transit-map/internal/geom"
	"transit-map/internal/network"
)

// Local rectangle of a rendered train, in output units.
const (
	HalfLength = 4.5
	HalfWidth  = 3.0
)

// VerticesPerTrain is the number of vertices Quad emits (two triangles).
const VerticesPerTrain = 6

var (
	ErrDirection      = errors.New("unknown direction")
	ErrScheduleLength = errors.New("schedule does not match stop count")
	ErrScheduleOrder  = errors.New("schedule times out of order")
)

type Direction int

const (
	Upstream Direction = iota
	Downstream
)

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "upstream":
		return Upstream, nil
	case "downstream":
		return Downstream, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrDirection, s)
}

func (d Direction) String() string {
	if d == Downstream {
		return "downstream"
	}
	return "upstream"
}

type State int

const (
	Pending State = iota
	Running
	Finished
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Finished:
		return "finished"
	}
	return "pending"
}

// Step scans forward from index past every arrival earlier than time.
func Step(arrivals []float64, index int, time float64) int {
	for index < len(arrivals) && time > arrivals[index] {
		index++
	}
	return index
}

// Seek finds the index Step would reach from 0, by binary search. arrivals
// must be non-decreasing.
func Seek(arrivals []float64, time float64) int {
	return sort.Search(len(arrivals), func(i int) bool { return time <= arrivals[i] })
}

// CheckOrder returns the first stop whose times break the schedule order, or
// -1. Arrivals and departures must both be non-decreasing and no train may
// leave a stop before it arrives.
func CheckOrder(arrivals, departures []float64) int {
	for i := range arrivals {
		if i < len(departures) && departures[i] < arrivals[i] {
			return i
		}
		if i > 0 && (arrivals[i] < arrivals[i-1] || (i < len(departures) && departures[i] < departures[i-1])) {
			return i
		}
	}
	return -1
}

// StateAt classifies a forward index.
func StateAt(arrivals []float64, index int, time float64) State {
	n := len(arrivals)
	switch {
	case index == 0:
		return Pending
	case index >= n || time >= arrivals[n-1]:
		return Finished
	}
	return Running
}

type Train struct {
	line       *network.Line
	direction  Direction
	arrivals   []float64
	departures []float64
	laneWidth  float64

	current int
	state   State
	last    float64
	updated bool

	// snapshot of the segment ending at stop current
	segment    int
	departure  orb.Point
	track      network.Track
	travelTime float64
	travelled  float64
}

func New(line *network.Line, direction Direction, arrivals, departures []float64, laneWidth float64) (*Train, error) {
	n := len(line.Stops)
	if len(arrivals) != n || len(departures) != n {
		return nil, fmt.Errorf("%w: line %q has %d stops, got %d arrivals and %d departures",
			ErrScheduleLength, line.Name, n, len(arrivals), len(departures))
	}
	if i := CheckOrder(arrivals, departures); i >= 0 {
		return nil, fmt.Errorf("%w: line %q stop %d: arrival %g departure %g",
			ErrScheduleOrder, line.Name, i, arrivals[i], departures[i])
	}
	return &Train{
		line:       line,
		direction:  direction,
		arrivals:   arrivals,
		departures: departures,
		laneWidth:  laneWidth,
		segment:    -1,
	}, nil
}

func (t *Train) Line() *network.Line   { return t.line }
func (t *Train) Direction() Direction  { return t.direction }
func (t *Train) State() State          { return t.state }
func (t *Train) IsActive() bool        { return t.state == Running }
func (t *Train) Current() int          { return t.current }
func (t *Train) Travelled() float64    { return t.travelled }
func (t *Train) TravelTime() float64   { return t.travelTime }
func (t *Train) Track() network.Track  { return t.track }
func (t *Train) Departure() orb.Point  { return t.departure }
func (t *Train) StopCount() int        { return len(t.arrivals) }
func (t *Train) FirstArrival() float64 { return t.arrivals[0] }

// Segment is the index of the segment being travelled, counted in travel order.
func (t *Train) Segment() int { return t.current - 1 }

// Update moves the train to time. Time going backwards is handled by seeking
// the index from scratch.
func (t *Train) Update(time float64) {
	var next int
	if t.updated && time < t.last {
		next = Seek(t.arrivals, time)
	} else {
		next = Step(t.arrivals, t.current, time)
	}
	t.current = next
	t.last = time
	t.updated = true
	t.state = StateAt(t.arrivals, next, time)
	if t.state != Running {
		return
	}

	if t.segment != next-1 {
		t.enter(next - 1)
	}
	travelledTime := math.Max(time-t.departures[next-1], 0)
	if t.travelTime <= 0 {
		t.travelled = 1
	} else {
		t.travelled = travelledTime / t.travelTime
	}
}

func (t *Train) enter(segment int) {
	if t.direction == Upstream {
		stop := &t.line.Stops[segment]
		t.departure = stop.FollowingPosition(t.laneWidth)
		t.track = *stop.Following
	} else {
		stop := &t.line.Stops[len(t.line.Stops)-1-segment]
		t.departure = stop.PrecedingPosition(t.laneWidth)
		t.track = *stop.Preceding
	}
	t.segment = segment
	t.travelTime = t.arrivals[segment+1] - t.departures[segment]
}

// Position is the train's center on its lane.
func (t *Train) Position() orb.Point {
	return geom.Add(t.departure, geom.Scale(t.track.Direction, t.travelled))
}

var quadCorners = [VerticesPerTrain]orb.Point{
	{-HalfLength, -HalfWidth},
	{-HalfLength, HalfWidth},
	{HalfLength, -HalfWidth},
	{HalfLength, HalfWidth},
	{HalfLength, -HalfWidth},
	{-HalfLength, HalfWidth},
}

// Quad returns the two triangles covering the train, rotated onto its track.
func (t *Train) Quad() [VerticesPerTrain]orb.Point {
	var q [VerticesPerTrain]orb.Point
	position := t.Position()
	orientation := t.track.Orientation()
	for i, c := range quadCorners {
		q[i] = geom.Add(position, orientation.Apply(c))
	}
	return q
}
