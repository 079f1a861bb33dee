// Package ingest feeds position fixes from Kafka into the tracker.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/segmentio/kafka-go"

	"github.com/jengzang/heatmap-backend-go/internal/models"
	"github.com/jengzang/heatmap-backend-go/internal/sampling"
)

// MessageReader is the subset of *kafka.Reader used by the consumer
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// FixHandler receives decoded fixes
type FixHandler interface {
	HandleFix(ctx context.Context, fix models.Fix) sampling.Decision
}

// Config holds the Kafka consumer settings
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Consumer reads fix messages and hands them to the tracker one at a time
type Consumer struct {
	reader  MessageReader
	handler FixHandler
	topic   string
}

// NewReader creates a consumer-group reader for the fix topic
func NewReader(cfg Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		StartOffset:    kafka.LastOffset,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: time.Second,
		ErrorLogger:    kafka.LoggerFunc(log.Errorf),
	})
}

// NewConsumer creates a consumer over reader
func NewConsumer(reader MessageReader, handler FixHandler, topic string) *Consumer {
	return &Consumer{reader: reader, handler: handler, topic: topic}
}

// Run consumes until ctx is cancelled. Undecodable messages are logged,
// committed and skipped.
func (c *Consumer) Run(ctx context.Context) error {
	log.Infof("[Kafka] Consuming fixes from topic %s", c.topic)
	defer func() {
		if err := c.reader.Close(); err != nil {
			log.WithError(err).Warn("[Kafka] Failed to close reader")
		}
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		c.handle(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to commit message: %w", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	fix, err := DecodeFix(msg.Value)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"partition": msg.Partition,
			"offset":    msg.Offset,
		}).Warn("[Kafka] Skipping undecodable message")
		return
	}

	d := c.handler.HandleFix(ctx, fix)
	log.WithFields(log.Fields{
		"offset":   msg.Offset,
		"accepted": d.Accepted,
		"reason":   d.Reason,
	}).Debug("[Kafka] Fix processed")
}

type fixMessage struct {
	Latitude  *float64        `json:"latitude"`
	Longitude *float64        `json:"longitude"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// DecodeFix parses a fix message. The timestamp is either an RFC 3339
// string or unix milliseconds; when missing the policy clock is used.
func DecodeFix(data []byte) (models.Fix, error) {
	var m fixMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return models.Fix{}, fmt.Errorf("failed to decode fix: %w", err)
	}
	if m.Latitude == nil || m.Longitude == nil {
		return models.Fix{}, errors.New("fix without latitude or longitude")
	}

	fix := models.Fix{Latitude: *m.Latitude, Longitude: *m.Longitude}

	raw := bytes.TrimSpace(m.Timestamp)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &fix.Timestamp); err != nil {
			return models.Fix{}, fmt.Errorf("failed to decode timestamp: %w", err)
		}
	default:
		ms, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return models.Fix{}, fmt.Errorf("failed to decode timestamp: %w", err)
		}
		fix.Timestamp = time.UnixMilli(ms).UTC()
	}

	return fix, nil
}
