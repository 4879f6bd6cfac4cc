package model

import (
	"github.com/paulmach/orb"

	"transit-map/internal/train"
)

func appendPoints(buf []float32, pts ...orb.Point) []float32 {
	for _, p := range pts {
		buf = append(buf, float32(p[0]), float32(p[1]))
	}
	return buf
}

func appendColor(buf []float32, c [3]float32, times int) []float32 {
	for i := 0; i < times; i++ {
		buf = append(buf, c[0], c[1], c[2])
	}
	return buf
}

func (m *Model) fillStaticBuffers() {
	stations := m.network.Stations()
	points := make(orb.MultiPoint, len(stations))
	m.stationVertices = make([]float32, 0, 2*len(stations))
	for i, s := range stations {
		points[i] = s.Position
		m.stationVertices = appendPoints(m.stationVertices, s.Position)
	}
	if len(points) > 0 {
		m.bounds = points.Bound()
	}

	m.lineSizes = make([]int, len(m.lines))
	m.lineColors = make([]float32, 0, 3*len(m.lines))
	for i, l := range m.lines {
		vs := l.Vertices(m.opts.LaneWidth, m.opts.MiterLimit)
		m.lineVertices = appendPoints(m.lineVertices, vs...)
		m.lineSizes[i] = len(vs)
		m.lineColors = appendColor(m.lineColors, l.Color.Normalized(), 1)
	}
}

func (m *Model) fillTrainBuffers() {
	active := m.counts.Running
	m.trainVertices = make([]float32, 0, 2*train.VerticesPerTrain*active)
	m.trainColors = make([]float32, 0, 3*train.VerticesPerTrain*active)
	for i, tr := range m.trains {
		if !tr.IsActive() {
			continue
		}
		q := tr.Quad()
		m.trainVertices = appendPoints(m.trainVertices, q[:]...)
		color := m.lines[m.trainLine[i]].Color.Normalized()
		m.trainColors = appendColor(m.trainColors, color, train.VerticesPerTrain)
	}
}
