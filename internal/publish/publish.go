// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish sends the objects of a built bundle to Kafka, one
// message per object keyed by its STIX id.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/pdiddy/atrm-graph/internal/stix"
	"github.com/pdiddy/atrm-graph/pkg/types"
)

// ErrDisabled is returned when publishing is requested without brokers.
var ErrDisabled = errors.New("publishing disabled: no brokers configured")

const batchSize = 100

// Message headers.
const (
	HeaderMode = "atrm-mode"
	HeaderType = "stix-type"
)

// messageWriter abstracts the Kafka writer for testing.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes bundle objects to a topic.
type Publisher struct {
	w     messageWriter
	topic string
}

// NewKafka returns a publisher for cfg.
func NewKafka(cfg types.PublishConfig) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid publish config: %w", err)
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &Publisher{w: w, topic: cfg.Topic}, nil
}

// Publish sends every object of b and returns how many were written.
func (p *Publisher) Publish(ctx context.Context, b *stix.Bundle, mode types.Mode, w io.Writer) (int, error) {
	sent := 0
	batch := make([]kafka.Message, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.w.WriteMessages(ctx, batch...); err != nil {
			return fmt.Errorf("writing %d messages to %s: %w", len(batch), p.topic, err)
		}
		sent += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, obj := range b.Objects {
		value, err := json.Marshal(obj)
		if err != nil {
			return sent, fmt.Errorf("marshaling %s: %w", obj.ID, err)
		}
		batch = append(batch, kafka.Message{
			Key:   []byte(obj.ID),
			Value: value,
			Headers: []kafka.Header{
				{Key: HeaderMode, Value: []byte(mode)},
				{Key: HeaderType, Value: []byte(obj.Type)},
			},
		})
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return sent, err
			}
		}
	}
	if err := flush(); err != nil {
		return sent, err
	}

	fmt.Fprintf(w, "published %s: %d objects to %s\n", mode, sent, p.topic)
	return sent, nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}
