package sim

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"transit-map/internal/metrics"
	"transit-map/internal/model"
	"transit-map/internal/network"
	"transit-map/internal/publisher"
)

type FramePublisher interface {
	PublishFrame(msg publisher.FrameMessage) error
}

// Driver owns the model while running: every tick advances the clock,
// updates all trains and publishes the resulting frames before the next tick
// starts.
type Driver struct {
	model    *model.Model
	pub      FramePublisher
	clock    *Clock
	interval time.Duration
	metrics  *metrics.Collector

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDriver accepts a nil publisher or collector.
func NewDriver(m *model.Model, pub FramePublisher, clock *Clock, interval time.Duration, mcol *metrics.Collector) *Driver {
	return &Driver{
		model:    m,
		pub:      pub,
		clock:    clock,
		interval: interval,
		metrics:  mcol,
	}
}

func (d *Driver) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel
	d.wg.Add(1)
	log.Printf("starting driver at t=%.0fs speed=%gx interval=%s", d.clock.Now(), d.clock.Speed(), d.interval)
	go func() {
		defer d.wg.Done()
		d.Tick(time.Now())
		tick := time.NewTicker(d.interval)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-tick.C:
				d.Tick(now)
			}
		}
	}()
}

func (d *Driver) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	log.Printf("driver stopped at t=%.0fs", d.clock.Now())
}

// Tick runs one simulation step at wall time now.
func (d *Driver) Tick(now time.Time) {
	start := time.Now()
	simTime := d.clock.Advance(now)
	d.model.Update(simTime)
	if d.metrics != nil {
		c := d.model.Counts()
		d.metrics.ObserveTick(time.Since(start), simTime, c.Pending, c.Running, c.Finished)
	}
	if d.pub == nil {
		return
	}
	for _, f := range Frames(d.model, now) {
		if err := d.pub.PublishFrame(f); err != nil {
			log.Printf("publish error for line %s: %v", f.Line, err)
		}
	}
}

// Frames groups the active trains by line, in line order. Lines without
// active trains are skipped.
func Frames(m *model.Model, now time.Time) []publisher.FrameMessage {
	lines := m.Lines()
	index := make(map[*network.Line]int, len(lines))
	for i, l := range lines {
		index[l] = i
	}
	byLine := make([][]publisher.TrainPosition, len(lines))
	for i, tr := range m.Trains() {
		if !tr.IsActive() {
			continue
		}
		pos := tr.Position()
		dir := tr.Track().Direction
		li := index[tr.Line()]
		byLine[li] = append(byLine[li], publisher.TrainPosition{
			Train:     i,
			Direction: tr.Direction().String(),
			Segment:   tr.Segment(),
			Progress:  tr.Travelled(),
			X:         pos[0],
			Y:         pos[1],
			Heading:   heading(dir[0], dir[1]),
		})
	}

	var frames []publisher.FrameMessage
	for i, trains := range byLine {
		if len(trains) == 0 {
			continue
		}
		frames = append(frames, publisher.FrameMessage{
			Line:      lines[i].Name,
			Color:     lines[i].Color.String(),
			Time:      m.Time(),
			Timestamp: now,
			Trains:    trains,
		})
	}
	return frames
}

// heading in degrees in [0, 360), counter-clockwise from +x.
func heading(dx, dy float64) float64 {
	return math.Mod(math.Atan2(dy, dx)*180/math.Pi+360, 360)
}
