package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"transit-map/internal/config"
	"transit-map/internal/dataset"
	"transit-map/internal/db"
	"transit-map/internal/metrics"
	"transit-map/internal/model"
	"transit-map/internal/publisher"
	"transit-map/internal/sim"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ds, err := loadDataset(ctx, cfg)
	if err != nil {
		log.Fatalf("load dataset: %v", err)
	}

	opts := model.DefaultOptions()
	opts.LaneWidth = cfg.LaneWidth
	opts.MiterLimit = cfg.MiterLimit
	m, err := model.Build(ds, opts)
	if err != nil {
		log.Fatalf("build model: %v", err)
	}
	log.Printf("network loaded: %d stations, %d lines, %d trips, %d corridors",
		m.StationCount(), m.LineCount(), len(m.Trains()), m.Network().BundleCount())

	// Metrics setup
	var mcol *metrics.Collector
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.SpeedMultiplier, cfg.FrameInterval)
		mcol.ObserveNetwork(m.StationCount(), m.LineCount(), len(m.Trains()))
		srv := mcol.Serve(cfg.MetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	runID := uuid.New().String()
	pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, runID, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
	if err != nil {
		log.Fatalf("nats error: %v", err)
	}
	defer pub.Close()
	log.Printf("run %s publishing on %s.>", runID, cfg.NATSSubjectPrefix)

	driver := sim.NewDriver(m, pub, sim.NewClock(cfg.StartTime, cfg.SpeedMultiplier), cfg.FrameInterval, mcol)
	driver.Start(ctx)

	// Block until context cancelled
	<-ctx.Done()
	driver.Stop()
	log.Println("shutdown complete")
}

func loadDataset(ctx context.Context, cfg *config.Config) (*dataset.Dataset, error) {
	if cfg.DatasetPath != "" {
		log.Printf("loading dataset from %s", cfg.DatasetPath)
		return dataset.LoadFile(cfg.DatasetPath)
	}
	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	defer sqlDB.Close()
	if err := db.Ping(ctx, sqlDB); err != nil {
		return nil, err
	}
	log.Printf("loading dataset from database")
	return db.FetchDataset(ctx, sqlDB)
}

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) FramePublishedInc()             { p.c.FramesPublished.Inc() }
func (p *pubMetrics) PublishErrInc()                 { p.c.PublishErrs.Inc() }
func (p *pubMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}
