// Package event publishes editor events to NATS JetStream.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	StreamName            = "EDITOR_TIMELINE"
	SubjectTimelineExport = "editor.timeline.exported"
)

// TimelineExported announces a submission written to storage, ready for the
// processing pipeline to pick up.
type TimelineExported struct {
	SessionID     string  `json:"sessionId"`
	UserID        string  `json:"userId"`
	ContentID     string  `json:"contentId"`
	Version       int     `json:"version"`
	URL           string  `json:"url"`
	VideoDuration float64 `json:"videoDuration"`
	Effects       int     `json:"effects"`
	Segments      int     `json:"segments"`
}

// Publisher sends editor events.
type Publisher interface {
	PublishTimelineExported(ctx context.Context, ev TimelineExported) error
	Close() error
}

// EventEnvelope wraps every published payload.
type EventEnvelope struct {
	Type          string      `json:"type"`
	Version       string      `json:"version"`
	OccurredAt    time.Time   `json:"occurredAt"`
	CorrelationID string      `json:"correlationId"`
	Payload       interface{} `json:"payload"`
}

func newEnvelope(eventType string, payload interface{}) EventEnvelope {
	return EventEnvelope{
		Type:          eventType,
		Version:       "1.0.0",
		OccurredAt:    time.Now().UTC(),
		CorrelationID: uuid.New().String(),
		Payload:       payload,
	}
}

// noop is used when NATS is not configured.
type noop struct{}

func (noop) PublishTimelineExported(context.Context, TimelineExported) error { return nil }
func (noop) Close() error                                                    { return nil }

// Noop returns a publisher that drops everything.
func Noop() Publisher { return noop{} }

type natsPub struct {
	nc  *nats.Conn
	js  nats.JetStreamContext
	log zerolog.Logger
}

// NewPublisher connects to url and makes sure the stream exists. An empty url,
// or any connection failure, yields the no-op publisher so the editor keeps
// working without the event bus.
func NewPublisher(url string, log zerolog.Logger) Publisher {
	log = log.With().Str("component", "event").Logger()
	if url == "" {
		return Noop()
	}
	nc, err := nats.Connect(url, nats.Name("timeline-editor"))
	if err != nil {
		log.Warn().Err(err).Msg("NATS connect failed, using noop publisher")
		return Noop()
	}
	js, err := nc.JetStream()
	if err != nil {
		log.Warn().Err(err).Msg("NATS JetStream context creation failed, using noop publisher")
		nc.Close()
		return Noop()
	}
	if err := initStreams(js); err != nil {
		log.Warn().Err(err).Msg("NATS stream initialization failed, using noop publisher")
		nc.Close()
		return Noop()
	}
	log.Info().Str("stream", StreamName).Msg("publishing editor events to NATS")
	return &natsPub{nc: nc, js: js, log: log}
}

func initStreams(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"editor.timeline.*"},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Discard:   nats.DiscardOld,
		Storage:   nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create %s stream: %w", StreamName, err)
	}
	return nil
}

// PublishTimelineExported publishes with the session id and version as the
// message id, so JetStream drops duplicates of the same export.
func (p *natsPub) PublishTimelineExported(ctx context.Context, ev TimelineExported) error {
	b, err := json.Marshal(newEnvelope(SubjectTimelineExport, ev))
	if err != nil {
		return err
	}
	msgID := fmt.Sprintf("%s-%d", ev.SessionID, ev.Version)
	if _, err := p.js.Publish(SubjectTimelineExport, b, nats.Context(ctx), nats.MsgId(msgID)); err != nil {
		return fmt.Errorf("publish %s: %w", SubjectTimelineExport, err)
	}
	p.log.Debug().Str("session_id", ev.SessionID).Int("version", ev.Version).Msg("timeline export published")
	return nil
}

func (p *natsPub) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
