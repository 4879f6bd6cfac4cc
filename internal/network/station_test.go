package network

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	n := NewNetwork()

	a := n.Register(orb.Point{0, 0}, "A")
	b := n.Register(orb.Point{10, 0}, "B")
	again := n.Register(orb.Point{0, 0}, "A2")

	assert.Equal(t, StationID(0), a)
	assert.Equal(t, StationID(1), b)
	assert.Equal(t, a, again, "same position yields same station")
	assert.Equal(t, "A", n.Station(a).Name)
	assert.Len(t, n.Stations(), 2)
	assert.Nil(t, n.Station(7))
	assert.Nil(t, n.Station(-1))
}

func TestTrackToSharesBundle(t *testing.T) {
	n := NewNetwork()
	a := n.Register(orb.Point{0, 0}, "A")
	b := n.Register(orb.Point{10, 0}, "B")

	red := Color{255, 0, 0}.Key()
	blue := Color{0, 0, 255}.Key()
	green := Color{0, 255, 0}.Key()

	t1 := n.TrackTo(a, b, orb.Point{10, 0}, red)
	t2 := n.TrackTo(b, a, orb.Point{-10, 0}, blue)
	t3 := n.TrackTo(a, b, orb.Point{10, 0}, green)
	t4 := n.TrackTo(b, a, orb.Point{-10, 0}, red)

	assert.Equal(t, 0, t1.Number)
	assert.Equal(t, 1, t2.Number)
	assert.Equal(t, 2, t3.Number)
	assert.Equal(t, 0, t4.Number, "existing key reuses its lane")

	assert.Equal(t, 1, n.BundleCount())
	ab, ok := n.Bundle(a, b)
	require.True(t, ok)
	ba, ok := n.Bundle(b, a)
	require.True(t, ok)
	assert.Same(t, ab, ba)
	assert.Equal(t, 3, ab.Len())
	assert.Equal(t, []LaneKey{red, blue, green}, ab.Keys())

	assert.Equal(t, 1, n.Station(a).Neighbors())
	assert.Equal(t, 1, n.Station(b).Neighbors())
}

func TestOrthogonalFixedByFirstDirection(t *testing.T) {
	n := NewNetwork()
	a := n.Register(orb.Point{0, 0}, "A")
	b := n.Register(orb.Point{0, 5}, "B")

	first := n.TrackTo(b, a, orb.Point{0, -5}, 1)
	second := n.TrackTo(a, b, orb.Point{0, 5}, 2)

	assert.Equal(t, first.Orthogonal, second.Orthogonal)
	assert.InDelta(t, 1.0, first.Orthogonal[0], 1e-12)
	assert.InDelta(t, 0.0, first.Orthogonal[1], 1e-12)
}
