package natsclient

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryMetrics(t *testing.T) {
	t.Run("counter operations", func(t *testing.T) {
		metrics := NewMemoryMetrics()
		counter := metrics.Counter("test_counter", nil)

		counter.Inc()
		assert.Equal(t, float64(1), counter.Value())

		counter.Add(5)
		assert.Equal(t, float64(6), counter.Value())
	})

	t.Run("gauge operations", func(t *testing.T) {
		metrics := NewMemoryMetrics()
		gauge := metrics.Gauge("test_gauge", nil)

		gauge.Set(100)
		assert.Equal(t, float64(100), gauge.Value())

		gauge.Inc()
		gauge.Dec()
		assert.Equal(t, float64(100), gauge.Value())

		gauge.Add(50)
		gauge.Sub(25)
		assert.Equal(t, float64(125), gauge.Value())
	})

	t.Run("histogram operations", func(t *testing.T) {
		metrics := NewMemoryMetrics()
		histogram := metrics.Histogram("test_histogram", nil)

		histogram.Observe(1.5)
		histogram.Observe(2.5)
		histogram.ObserveDuration(500 * time.Millisecond)

		assert.Equal(t, uint64(3), histogram.Count())
		assert.InDelta(t, 4.5, histogram.Sum(), 0.001)
	})

	t.Run("same name returns same instance", func(t *testing.T) {
		metrics := NewMemoryMetrics()

		metrics.Counter("shared", nil).Inc()
		metrics.Counter("shared", nil).Inc()
		assert.Equal(t, float64(2), metrics.Counter("shared", nil).Value())
	})

	t.Run("labels distinguish instances", func(t *testing.T) {
		metrics := NewMemoryMetrics()

		metrics.Counter("labeled", MetricLabels{LabelSubject: "a"}).Inc()
		metrics.Counter("labeled", MetricLabels{LabelSubject: "b"}).Add(2)

		assert.Equal(t, float64(1), metrics.Counter("labeled", MetricLabels{LabelSubject: "a"}).Value())
		assert.Equal(t, float64(2), metrics.Counter("labeled", MetricLabels{LabelSubject: "b"}).Value())
	})

	t.Run("label order does not matter", func(t *testing.T) {
		metrics := NewMemoryMetrics()

		metrics.Counter("multi", MetricLabels{"a": "1", "b": "2"}).Inc()
		counter := metrics.Counter("multi", MetricLabels{"b": "2", "a": "1"})
		assert.Equal(t, float64(1), counter.Value())
	})
}

func TestMemoryMetricsGetters(t *testing.T) {
	metrics := NewMemoryMetrics()

	assert.Nil(t, metrics.GetCounter("untouched", nil))
	assert.Nil(t, metrics.GetGauge("untouched", nil))
	assert.Nil(t, metrics.GetHistogram("untouched", nil))

	metrics.Counter("touched", nil).Inc()
	metrics.Gauge("touched", nil).Set(1)
	metrics.Histogram("touched", nil).Observe(1)

	assert.NotNil(t, metrics.GetCounter("touched", nil))
	assert.NotNil(t, metrics.GetGauge("touched", nil))
	assert.NotNil(t, metrics.GetHistogram("touched", nil))
}

func TestMemoryMetricsConcurrency(t *testing.T) {
	metrics := NewMemoryMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				metrics.Counter("concurrent", nil).Inc()
				metrics.Gauge("concurrent", nil).Add(1)
				metrics.Histogram("concurrent", nil).Observe(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, float64(1000), metrics.Counter("concurrent", nil).Value())
	assert.Equal(t, float64(1000), metrics.Gauge("concurrent", nil).Value())
	assert.Equal(t, uint64(1000), metrics.Histogram("concurrent", nil).Count())
}
