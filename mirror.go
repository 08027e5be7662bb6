package main

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"transporte-admin/tracking"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// batchMirror republishes every received location batch to a Kafka topic,
// keyed by vehicle id so a vehicle's batches stay ordered.
type batchMirror struct {
	writer messageWriter
}

func newBatchMirror(brokers []string, topic string) *batchMirror {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		RequiredAcks: kafka.RequireOne,
	}
	return &batchMirror{writer: w}
}

func (m *batchMirror) WriteBatch(ctx context.Context, b tracking.LocationBatch) error {
	data, err := json.Marshal(b)
	if err != nil {
		return errors.Wrap(err, "encode batch")
	}
	err = m.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(int64(b.ID), 10)),
		Value: data,
	})
	return errors.Wrapf(err, "mirror batch for vehicle %d", b.ID)
}

// Close flushes pending messages.
func (m *batchMirror) Close() error {
	return m.writer.Close()
}
