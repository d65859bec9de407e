package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessageQueuesReading(t *testing.T) {
	c := NewCollector(Config{QueueSize: 4})

	c.handleMessage([]byte(`{"timestamp":"2026-03-15T09:00:00Z","power_w":240,"hr_bpm":150}`))

	select {
	case r := <-c.Readings():
		require.NotNil(t, r.PowerW)
		assert.Equal(t, 240.0, *r.PowerW)
		require.NotNil(t, r.HRBPM)
		assert.Equal(t, 150.0, *r.HRBPM)
		assert.Equal(t, time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC), r.Timestamp)
	default:
		t.Fatal("expected a queued reading")
	}
	assert.Equal(t, uint64(1), c.stats.Received.Load())
}

func TestHandleMessageStampsMissingTimestamp(t *testing.T) {
	c := NewCollector(Config{QueueSize: 4})
	fixed := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	c.nowFn = func() time.Time { return fixed }

	c.handleMessage([]byte(`{"power_w":200}`))

	r := <-c.Readings()
	assert.Equal(t, fixed, r.Timestamp)
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	c := NewCollector(Config{QueueSize: 4})

	c.handleMessage([]byte(`not json`))
	c.handleMessage([]byte(`{"unrelated":true}`)) // no sensor fields

	assert.Empty(t, c.readings)
	assert.Equal(t, uint64(2), c.stats.Invalid.Load())
}

func TestStopIsIdempotent(t *testing.T) {
	c := NewCollector(Config{QueueSize: 1})

	c.Stop()
	assert.NotPanics(t, func() { c.Stop() })
}

func TestHandleMessageAfterStopDropsWithoutPanic(t *testing.T) {
	c := NewCollector(Config{QueueSize: 4})
	c.Stop()

	assert.NotPanics(t, func() {
		c.handleMessage([]byte(`{"power_w":200}`))
	})
	assert.Empty(t, c.readings, "late broker deliveries are discarded")
	assert.Equal(t, uint64(1), c.stats.Dropped.Load())
}

func TestHandleMessageDropsOnFullQueue(t *testing.T) {
	c := NewCollector(Config{QueueSize: 1})

	c.handleMessage([]byte(`{"power_w":200}`))
	c.handleMessage([]byte(`{"power_w":210}`))

	assert.Equal(t, uint64(1), c.stats.Dropped.Load())
	r := <-c.Readings()
	assert.Equal(t, 200.0, *r.PowerW)
}
