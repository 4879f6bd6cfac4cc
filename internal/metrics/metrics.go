package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	Stations prometheus.Gauge
	Lines    prometheus.Gauge
	Trains   prometheus.Gauge

	PendingTrains  prometheus.Gauge
	RunningTrains  prometheus.Gauge
	FinishedTrains prometheus.Gauge
	SimulatedTime  prometheus.Gauge // seconds

	Ticks           prometheus.Counter
	FramesPublished prometheus.Counter
	PublishErrs     prometheus.Counter
	NATSConnected   prometheus.Gauge

	TickDuration    prometheus.Histogram
	PublishDuration prometheus.Histogram

	SpeedMultiplier prometheus.Gauge
	FrameInterval   prometheus.Gauge // seconds
}

func NewCollector(speedMultiplier float64, frameInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Stations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitmap_stations",
			Help: "Number of stations in the loaded network.",
		}),
		Lines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitmap_lines",
			Help: "Number of lines in the loaded network.",
		}),
		Trains: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitmap_trains",
			Help: "Number of scheduled trips.",
		}),
		PendingTrains: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitmap_trains_pending",
			Help: "Trains that have not left their first stop.",
		}),
		RunningTrains: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitmap_trains_running",
			Help: "Trains currently between stops.",
		}),
		FinishedTrains: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitmap_trains_finished",
			Help: "Trains that reached their last stop.",
		}),
		SimulatedTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitmap_simulated_time_seconds",
			Help: "Current simulated time.",
		}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitmap_ticks_total",
			Help: "Total simulation ticks.",
		}),
		FramesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitmap_frames_published_total",
			Help: "Total frame messages published to NATS.",
		}),
		PublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitmap_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitmap_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transitmap_tick_duration_seconds",
			Help:    "Duration of model updates per tick.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transitmap_publish_duration_seconds",
			Help:    "Duration to marshal and publish a frame message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		SpeedMultiplier: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitmap_speed_multiplier",
			Help: "Simulated seconds per wall-clock second.",
		}),
		FrameInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitmap_frame_interval_seconds",
			Help: "Tick interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.Stations, c.Lines, c.Trains,
		c.PendingTrains, c.RunningTrains, c.FinishedTrains, c.SimulatedTime,
		c.Ticks, c.FramesPublished, c.PublishErrs, c.NATSConnected,
		c.TickDuration, c.PublishDuration,
		c.SpeedMultiplier, c.FrameInterval,
	)

	c.SpeedMultiplier.Set(speedMultiplier)
	c.FrameInterval.Set(frameInterval.Seconds())

	return c
}

// ObserveNetwork records the static size of the loaded network.
func (c *Collector) ObserveNetwork(stations, lines, trains int) {
	c.Stations.Set(float64(stations))
	c.Lines.Set(float64(lines))
	c.Trains.Set(float64(trains))
}

// ObserveTick records one simulation tick.
func (c *Collector) ObserveTick(d time.Duration, simTime float64, pending, running, finished int) {
	c.Ticks.Inc()
	c.TickDuration.Observe(d.Seconds())
	c.SimulatedTime.Set(simTime)
	c.PendingTrains.Set(float64(pending))
	c.RunningTrains.Set(float64(running))
	c.FinishedTrains.Set(float64(finished))
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
