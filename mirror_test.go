package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transporte-admin/tracking"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestBatchMirrorKeysByVehicle(t *testing.T) {
	w := &fakeWriter{}
	m := &batchMirror{writer: w}

	b := tracking.LocationBatch{ID: 17, Ubicaciones: []tracking.GeoPoint{{Lat: -12, Lng: -77}}}
	require.NoError(t, m.WriteBatch(context.Background(), b))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "17", string(w.msgs[0].Key))

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, float64(17), got["id"])
	assert.Equal(t, []any{map[string]any{"latitud": -12.0, "longitud": -77.0}}, got["ubicaciones"])

	require.NoError(t, m.Close())
	assert.True(t, w.closed)
}

func TestBatchMirrorWrapsWriteErrors(t *testing.T) {
	m := &batchMirror{writer: &fakeWriter{err: errors.New("broker down")}}
	err := m.WriteBatch(context.Background(), tracking.LocationBatch{ID: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vehicle 2")
	assert.Contains(t, err.Error(), "broker down")
}

func TestNewBatchMirrorConfiguresWriter(t *testing.T) {
	m := newBatchMirror([]string{"localhost:9092"}, "ubicaciones")
	w, ok := m.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "ubicaciones", w.Topic)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
	require.NoError(t, m.Close())
}
