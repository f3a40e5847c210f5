package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusFilters(t *testing.T) {
	bus := NewMemoryBus(16)
	ctx := context.Background()

	var (
		mu  sync.Mutex
		got []string
	)
	_, err := bus.Subscribe(ctx, Filter{Types: []string{EventGameDeleted}}, func(_ context.Context, ev *Envelope) {
		mu.Lock()
		got = append(got, ev.EventType)
		mu.Unlock()
	})
	require.NoError(t, err)

	for _, typ := range []string{EventGameImported, EventGameDeleted, EventGameStored} {
		ev, err := NewEnvelope("test", typ, map[string]string{"id": "g"})
		require.NoError(t, err)
		require.NoError(t, bus.Publish(ctx, ev))
	}

	// Close дожидается доставки
	require.NoError(t, bus.Close())
	assert.Equal(t, []string{EventGameDeleted}, got)

	stats := bus.Metrics()
	assert.Equal(t, uint64(3), stats.Published)
	assert.Equal(t, uint64(1), stats.Consumed)

	ev, _ := NewEnvelope("test", EventGameStored, nil)
	assert.ErrorIs(t, bus.Publish(ctx, ev), ErrBusClosed)
}

func TestMemoryBusDropsLowPriority(t *testing.T) {
	// Шина без цикла доставки: буфер не освобождается
	mb := &memoryBus{
		subscribers: make(map[int]subscriber),
		buffer:      make(chan *Envelope, 1),
		done:        make(chan struct{}),
	}
	ctx := context.Background()

	first, _ := NewEnvelope("test", EventGameStored, nil)
	require.NoError(t, mb.Publish(ctx, first))

	low, _ := NewEnvelope("test", EventGameStored, nil)
	require.NoError(t, mb.Publish(ctx, low), "низкий приоритет отбрасывается молча")

	high, _ := NewEnvelope("test", EventGameDeleted, nil)
	high.Priority = 9
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, mb.Publish(cancelled, high), context.Canceled)

	stats := mb.Metrics()
	assert.Equal(t, uint64(1), stats.Published)
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Equal(t, 1, stats.InFlight)
}

func TestEnvelopeDecode(t *testing.T) {
	ev, err := NewEnvelope("library", EventGameImported, map[string]any{"id": "abc", "prefabs": 3})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, 1, ev.Version)
	assert.Equal(t, time.UTC, ev.Timestamp.Location())

	var payload struct {
		ID      string `json:"id"`
		Prefabs int    `json:"prefabs"`
	}
	require.NoError(t, ev.Decode(&payload))
	assert.Equal(t, "abc", payload.ID)
	assert.Equal(t, 3, payload.Prefabs)
}

func TestMetricsExporter(t *testing.T) {
	bus := NewMemoryBus(4)
	reg := prometheus.NewRegistry()
	exp := NewMetricsExporter(bus, reg)

	ev, _ := NewEnvelope("test", EventGameStored, nil)
	require.NoError(t, bus.Publish(context.Background(), ev))
	require.NoError(t, bus.Close())

	exp.collect()
	exp.collect() // повторный сбор не удваивает счётчики
	assert.Equal(t, 1.0, testutil.ToFloat64(exp.published))
	assert.Equal(t, 0.0, testutil.ToFloat64(exp.inflight))
}

func TestLoggingListener(t *testing.T) {
	bus := NewMemoryBus(4)
	sub, err := StartLoggingListener(bus)
	require.NoError(t, err)

	ev, _ := NewEnvelope("test", EventGameImported, nil)
	require.NoError(t, bus.Publish(context.Background(), ev))
	require.NoError(t, bus.Close())
	sub.Unsubscribe()

	assert.Equal(t, uint64(1), bus.Metrics().Consumed)
}

func TestJetStreamBus(t *testing.T) {
	bus, err := NewJetStreamBus("nats://127.0.0.1:4222", "PREFAB_EVENTS_TEST", time.Minute)
	if err != nil {
		t.Skipf("NATS JetStream not available, skipping test: %v", err)
	}
	defer bus.Close()

	ctx := context.Background()
	received := make(chan *Envelope, 1)
	sub, err := bus.Subscribe(ctx, Filter{Types: []string{EventGameDeleted}}, func(_ context.Context, ev *Envelope) {
		received <- ev
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	ev, err := NewEnvelope("test", EventGameDeleted, map[string]string{"id": "x"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, ev))

	select {
	case got := <-received:
		assert.Equal(t, ev.ID, got.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("событие не получено")
	}
}
