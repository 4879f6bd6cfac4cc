// Package model assembles stations, lines and trains from a dataset and serves
// the vertex streams a renderer uploads every frame.
package model

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"transit-map/internal/dataset"
	"transit-map/internal/network"
	"transit-map/internal/train"
)

var ErrStationIndex = errors.New("station index out of range")

type Options struct {
	// LaneWidth is the distance between parallel lanes in map units.
	LaneWidth float64
	// MiterLimit caps miter joins, in lane widths. Zero leaves them unclamped.
	MiterLimit float64
	// StationRadius is the hit radius used by FindStation.
	StationRadius float64
}

func DefaultOptions() Options {
	return Options{
		LaneWidth:     6,
		StationRadius: 5,
	}
}

// Counts tallies trains by state after the last Update.
type Counts struct {
	Pending  int
	Running  int
	Finished int
}

type Model struct {
	opts    Options
	network *network.Network
	lines   []*network.Line
	trains  []*train.Train
	// trainLine[i] is the index into lines of trains[i]
	trainLine []int

	stationVertices []float32
	lineVertices    []float32
	lineSizes       []int
	lineColors      []float32
	bounds          orb.Bound

	time          float64
	counts        Counts
	trainVertices []float32
	trainColors   []float32
}

// Build creates the network from ds. A line referencing a missing station is
// an error; nothing is built in that case.
func Build(ds *dataset.Dataset, opts Options) (*Model, error) {
	m := &Model{opts: opts, network: network.NewNetwork()}

	ids := make([]network.StationID, len(ds.Stations))
	for i, s := range ds.Stations {
		ids[i] = m.network.Register(orb.Point{s.X, s.Y}, s.Name)
	}

	for li, rec := range ds.Lines {
		stops := make([]network.StationID, len(rec.Stops))
		for i, idx := range rec.Stops {
			if idx < 0 || idx >= len(ids) {
				return nil, fmt.Errorf("line %q stop %d: %w: %d of %d", rec.Name, i, ErrStationIndex, idx, len(ids))
			}
			stops[i] = ids[idx]
		}
		line, err := network.BuildLine(m.network, rec.Name, network.Color(rec.Color), stops)
		if err != nil {
			return nil, err
		}
		m.lines = append(m.lines, line)

		for ti, trip := range rec.Trips {
			direction, err := train.ParseDirection(trip.Direction)
			if err != nil {
				return nil, fmt.Errorf("line %q trip %d: %w", rec.Name, ti, err)
			}
			tr, err := train.New(line, direction, trip.Arrivals, trip.Departures, opts.LaneWidth)
			if err != nil {
				return nil, fmt.Errorf("line %q trip %d: %w", rec.Name, ti, err)
			}
			m.trains = append(m.trains, tr)
			m.trainLine = append(m.trainLine, li)
		}
	}

	m.fillStaticBuffers()
	m.counts.Pending = len(m.trains)
	return m, nil
}

// Update advances every train to time and rebuilds the train buffers.
func (m *Model) Update(time float64) {
	m.time = time
	m.counts = Counts{}
	for _, tr := range m.trains {
		tr.Update(time)
		switch tr.State() {
		case train.Pending:
			m.counts.Pending++
		case train.Running:
			m.counts.Running++
		case train.Finished:
			m.counts.Finished++
		}
	}
	m.fillTrainBuffers()
}

func (m *Model) Time() float64              { return m.time }
func (m *Model) Counts() Counts             { return m.counts }
func (m *Model) Network() *network.Network  { return m.network }
func (m *Model) Lines() []*network.Line     { return m.lines }
func (m *Model) Trains() []*train.Train     { return m.trains }
func (m *Model) Bounds() orb.Bound          { return m.bounds }
func (m *Model) StationCount() int          { return len(m.network.Stations()) }
func (m *Model) StationVertices() []float32 { return m.stationVertices }
func (m *Model) LineCount() int             { return len(m.lines) }
func (m *Model) LineVertices() []float32    { return m.lineVertices }
func (m *Model) LineSizes() []int           { return m.lineSizes }
func (m *Model) LineColors() []float32      { return m.lineColors }
func (m *Model) TrainVertices() []float32   { return m.trainVertices }
func (m *Model) TrainColors() []float32     { return m.trainColors }

// TrainCount is the number of active trains in the train buffers.
func (m *Model) TrainCount() int { return m.counts.Running }

func (m *Model) LineNames() []string {
	names := make([]string, len(m.lines))
	for i, l := range m.lines {
		names[i] = l.Name
	}
	return names
}

// FindStation returns the name of the first station within the station radius
// of (x, y).
func (m *Model) FindStation(x, y float64) (string, bool) {
	p := orb.Point{x, y}
	for _, s := range m.network.Stations() {
		if planar.Distance(s.Position, p) < m.opts.StationRadius {
			return s.Name, true
		}
	}
	return "", false
}
