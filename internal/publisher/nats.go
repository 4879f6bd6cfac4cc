package publisher

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

type NATSPublisher struct {
	nc          *nats.Conn
	prefix      string
	runID       string
	logSubjects bool
	metrics     PublisherMetrics
}

type PublisherMetrics interface {
	FramePublishedInc()
	PublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

func NewNATSPublisher(url, prefix, runID string, logSubjects bool, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("transit-map"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, prefix: prefix, runID: runID, logSubjects: logSubjects, metrics: m}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

// TrainPosition is one active train in a frame.
type TrainPosition struct {
	Train     int     `json:"train"`
	Direction string  `json:"direction"`
	Segment   int     `json:"segment"`
	Progress  float64 `json:"progress"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Heading   float64 `json:"heading"` // degrees in [0, 360), counter-clockwise from +x
}

// FrameMessage carries the active trains of one line at one simulated time.
type FrameMessage struct {
	RunID     string          `json:"runId"`
	Line      string          `json:"line"`
	Color     string          `json:"color"`
	Time      float64         `json:"time"`
	Timestamp time.Time       `json:"timestamp"`
	Trains    []TrainPosition `json:"trains"`
}

func (p *NATSPublisher) PublishFrame(msg FrameMessage) error {
	subject := Subject(p.prefix, msg.Line)
	msg.RunID = p.runID
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if p.logSubjects {
		log.Printf("nats publish subject=%s trains=%d", subject, len(msg.Trains))
	}
	out := nats.NewMsg(subject)
	out.Data = b
	out.Header.Set("Run-Id", p.runID)
	start := time.Now()
	err = p.nc.PublishMsg(out)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.PublishErrInc()
		} else {
			p.metrics.FramePublishedInc()
		}
	}
	return err
}

// Subject is "<prefix>.<line>" with both parts made safe as NATS tokens.
func Subject(prefix, line string) string {
	return subjectToken(prefix) + "." + subjectToken(line)
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
