package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"availability_hub/internal/domain"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestPublisher_WritesKeyedJSON(t *testing.T) {
	w := &recordingWriter{}
	p := newPublisherWithWriter("search", w)

	err := p.Publish(context.Background(), "search-1", domain.SupplierSearchFinished{
		Type: domain.EventSupplierSearchFinished, SearchID: "search-1", Supplier: "alpha", State: "Completed", Results: 3,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "search-1", string(w.msgs[0].Key))

	var ev domain.SupplierSearchFinished
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, "alpha", ev.Supplier)
	assert.Equal(t, 3, ev.Results)
}

func TestPublisher_WrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := newPublisherWithWriter("search", &recordingWriter{err: boom})

	err := p.Publish(context.Background(), "k", map[string]int{"a": 1})
	assert.True(t, errors.Is(err, boom))
}

func TestPublisher_NoBrokersIsNoop(t *testing.T) {
	p := NewPublisher(nil, "search")
	assert.NoError(t, p.Publish(context.Background(), "k", "v"))
	assert.NoError(t, p.Close())
}
