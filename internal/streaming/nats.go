package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"guardian-audit/internal/config"
	"guardian-audit/pkg/logger"
)

// NATSPublisher handles publishing scan events to NATS JetStream
type NATSPublisher struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	stream   jetstream.Stream
	subjects config.NATSSubjectsConfig
	logger   *logger.Logger

	mu        sync.RWMutex
	connected bool
}

// NewNATSPublisher creates a new NATS publisher
func NewNATSPublisher(ctx context.Context, cfg config.NATSConfig, log *logger.Logger) (*NATSPublisher, error) {
	log = log.WithComponent("nats")

	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.StreamName == "" {
		cfg.StreamName = "GUARDIAN_AUDIT"
	}

	log.Info().Str("url", cfg.URL).Str("stream", cfg.StreamName).Msg("connecting to NATS")

	conn, err := nats.Connect(cfg.URL,
		nats.Name("guardian-audit"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streamCfg := jetstream.StreamConfig{
		Name:        cfg.StreamName,
		Description: "Device audit scan events",
		Subjects:    streamSubjects(cfg.Subjects),
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		MaxMsgs:     10000,
		MaxBytes:    64 * 1024 * 1024,
		Discard:     jetstream.DiscardOld,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	}

	stream, err := js.CreateOrUpdateStream(ctx, streamCfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	log.Info().Str("stream", stream.CachedInfo().Config.Name).Msg("NATS stream ready")

	return &NATSPublisher{
		conn:      conn,
		js:        js,
		stream:    stream,
		subjects:  cfg.Subjects,
		logger:    log,
		connected: true,
	}, nil
}

// streamSubjects returns the distinct configured subjects
func streamSubjects(cfg config.NATSSubjectsConfig) []string {
	seen := make(map[string]bool, 3)
	var subjects []string
	for _, s := range []string{cfg.ScanCompleted, cfg.HighRiskApp, cfg.DeviceFindings} {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		subjects = append(subjects, s)
	}
	return subjects
}

// Close closes the NATS connection
func (p *NATSPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		p.conn.Close()
		p.connected = false
	}
}

// IsConnected returns whether NATS is connected
func (p *NATSPublisher) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected && p.conn.IsConnected()
}

// PublishScanEvent publishes a scan event to NATS. Event types without a
// configured subject are skipped.
func (p *NATSPublisher) PublishScanEvent(ctx context.Context, event *ScanEvent) error {
	if !p.IsConnected() {
		return fmt.Errorf("NATS not connected")
	}

	subject := subjectFor(p.subjects, event.Type)
	if subject == "" {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = p.js.Publish(ctx, subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug().
		Str("subject", subject).
		Str("event_type", string(event.Type)).
		Str("scan_id", event.ScanID).
		Msg("published scan event")

	return nil
}

// subjectFor maps an event type to its configured subject
func subjectFor(cfg config.NATSSubjectsConfig, eventType EventType) string {
	switch eventType {
	case EventTypeScanCompleted:
		return cfg.ScanCompleted
	case EventTypeHighRiskApp:
		return cfg.HighRiskApp
	case EventTypeDeviceFindings:
		return cfg.DeviceFindings
	default:
		return ""
	}
}

// Subscribe creates a subscription to scan events published by any engine
// instance sharing the stream
func (p *NATSPublisher) Subscribe(ctx context.Context, sub *Subscription) (<-chan *ScanEvent, error) {
	if !p.IsConnected() {
		return nil, fmt.Errorf("NATS not connected")
	}

	consumerCfg := jetstream.ConsumerConfig{
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    3,
	}

	consumer, err := p.stream.CreateOrUpdateConsumer(ctx, consumerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	eventCh := make(chan *ScanEvent, 100)

	go func() {
		defer close(eventCh)

		msgs, err := consumer.Messages()
		if err != nil {
			p.logger.Error().Err(err).Msg("failed to get messages iterator")
			return
		}
		defer msgs.Stop()

		go func() {
			<-ctx.Done()
			msgs.Stop()
		}()

		for {
			msg, err := msgs.Next()
			if err != nil {
				if ctx.Err() != nil || err == jetstream.ErrMsgIteratorClosed {
					return
				}
				p.logger.Warn().Err(err).Msg("error getting next message")
				continue
			}

			var event ScanEvent
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				p.logger.Warn().Err(err).Msg("failed to unmarshal event")
				msg.Nak()
				continue
			}

			if !sub.Matches(&event) {
				msg.Ack()
				continue
			}

			select {
			case eventCh <- &event:
				msg.Ack()
			case <-ctx.Done():
				return
			}
		}
	}()

	return eventCh, nil
}
