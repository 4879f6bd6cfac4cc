package model

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit-map/internal/dataset"
	"transit-map/internal/train"
)

func sampleDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Stations: []dataset.Station{
			{Name: "West", X: 0, Y: 0},
			{Name: "Center", X: 100, Y: 0},
			{Name: "East", X: 200, Y: 0},
		},
		Lines: []dataset.Line{
			{
				Name:  "U1",
				Color: dataset.Color{255, 0, 0},
				Stops: []int{0, 1, 2},
				Trips: []dataset.Trip{
					{Direction: "upstream", Arrivals: []float64{0, 60, 180}, Departures: []float64{0, 70, 180}},
					{Direction: "downstream", Arrivals: []float64{100, 160, 280}, Departures: []float64{100, 170, 280}},
				},
			},
		},
	}
}

func TestBuild(t *testing.T) {
	m, err := Build(sampleDataset(), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, m.StationCount())
	assert.Equal(t, []float32{0, 0, 100, 0, 200, 0}, m.StationVertices())

	assert.Equal(t, 1, m.LineCount())
	assert.Equal(t, []string{"U1"}, m.LineNames())
	assert.Equal(t, []int{6}, m.LineSizes())
	assert.Len(t, m.LineVertices(), 12)
	assert.Equal(t, []float32{1, 0, 0}, m.LineColors())

	// Lane 0 with width 6 spans y in [-3, 3].
	assert.Equal(t, []float32{0, -3, 0, 3}, m.LineVertices()[:4])

	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{200, 0}}, m.Bounds())
	assert.Len(t, m.Trains(), 2)
	assert.Equal(t, Counts{Pending: 2}, m.Counts())
	assert.Equal(t, 0, m.TrainCount())
}

func TestBuildErrors(t *testing.T) {
	t.Run("station index out of range", func(t *testing.T) {
		ds := sampleDataset()
		ds.Lines[0].Stops = []int{0, 1, 3}
		_, err := Build(ds, DefaultOptions())
		assert.ErrorIs(t, err, ErrStationIndex)
	})

	t.Run("unknown direction", func(t *testing.T) {
		ds := sampleDataset()
		ds.Lines[0].Trips[0].Direction = "around"
		_, err := Build(ds, DefaultOptions())
		assert.ErrorIs(t, err, train.ErrDirection)
	})

	t.Run("misaligned schedule", func(t *testing.T) {
		ds := sampleDataset()
		ds.Lines[0].Trips[1].Arrivals = []float64{0, 1}
		_, err := Build(ds, DefaultOptions())
		assert.ErrorIs(t, err, train.ErrScheduleLength)
	})

	t.Run("unordered schedule", func(t *testing.T) {
		ds := sampleDataset()
		ds.Lines[0].Trips[0].Arrivals = []float64{0, 60, 50}
		_, err := Build(ds, DefaultOptions())
		assert.ErrorIs(t, err, train.ErrScheduleOrder)
	})
}

func TestUpdateTrainBuffers(t *testing.T) {
	m, err := Build(sampleDataset(), DefaultOptions())
	require.NoError(t, err)

	m.Update(30)
	assert.Equal(t, 30.0, m.Time())
	assert.Equal(t, Counts{Pending: 1, Running: 1}, m.Counts())
	require.Equal(t, 1, m.TrainCount())

	vs := m.TrainVertices()
	require.Len(t, vs, 2*train.VerticesPerTrain)
	// Opposite corners of the quad average to the train center, midway
	// between the first two stations.
	assert.InDelta(t, 50.0, (vs[0]+vs[6])/2, 1e-4)
	assert.InDelta(t, 0.0, (vs[1]+vs[7])/2, 1e-4)

	cs := m.TrainColors()
	require.Len(t, cs, 3*train.VerticesPerTrain)
	for i := 0; i < train.VerticesPerTrain; i++ {
		assert.Equal(t, []float32{1, 0, 0}, cs[3*i:3*i+3])
	}

	m.Update(130)
	assert.Equal(t, Counts{Running: 2}, m.Counts())
	assert.Len(t, m.TrainVertices(), 2*2*train.VerticesPerTrain)

	m.Update(500)
	assert.Equal(t, Counts{Finished: 2}, m.Counts())
	assert.Empty(t, m.TrainVertices())
	assert.Empty(t, m.TrainColors())
}

func TestFindStation(t *testing.T) {
	m, err := Build(sampleDataset(), DefaultOptions())
	require.NoError(t, err)

	name, ok := m.FindStation(101, 2)
	assert.True(t, ok)
	assert.Equal(t, "Center", name)

	_, ok = m.FindStation(50, 0)
	assert.False(t, ok)
}

func TestSharedStationsAndCorridors(t *testing.T) {
	ds := sampleDataset()
	ds.Stations = append(ds.Stations, dataset.Station{Name: "Center again", X: 100, Y: 0})
	ds.Lines = append(ds.Lines, dataset.Line{
		Name:  "U2",
		Color: dataset.Color{0, 0, 255},
		Stops: []int{2, 3, 0},
	})

	m, err := Build(ds, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, m.StationCount(), "duplicate position maps onto one station")
	assert.Equal(t, 2, m.Network().BundleCount())
	second := m.Lines()[1]
	assert.Equal(t, 1, second.Stops[0].Following.Number)
	assert.Equal(t, 1, second.Stops[1].Following.Number)
}
