// Package metric exposes expvar counters for components that talk to
// external processes or services: script pipes, downloads, renderers.
package metric

import (
	"expvar"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

const componentsLabel = "sao.components"

const (
	// CallCounter measures number of completed calls.
	CallCounter = "Calls"
	// FailureCounter measures number of failed calls.
	FailureCounter = "Failures"
	// ByteCounter measures number of bytes received.
	ByteCounter = "Bytes"
	// LatencyCounter holds the duration of the latest call.
	LatencyCounter = "Latency"
	// DurationCounter accumulates time spent in calls.
	DurationCounter = "Duration"
)

var (
	components = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		CallCounter,
		FailureCounter,
		ByteCounter,
		LatencyCounter,
		DurationCounter,
	}
)

// Get metrics values for provided component type.
func Get(component interface{}) map[string]string {
	return getCounters(getType(component))
}

// GetAll returns counters for all measured components.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	components.Lock()
	defer components.Unlock()
	for component := range components.m {
		m[component] = getCounters(component)
	}
	return m
}

func getCounters(componentType string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(componentType, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// MeasureFunc captures metrics when a call is done. It must be called
// exactly once per call.
type MeasureFunc func(bytes int64, err error)

// StartFunc is called right before the measured call begins.
type StartFunc func() MeasureFunc

// Meter creates new meter closure to capture component counters.
// Counters are shared by all components of the same type.
func Meter(component interface{}) StartFunc {
	metric := components.get(getType(component))
	return func() MeasureFunc {
		calledAt := time.Now()
		return func(bytes int64, err error) {
			elapsed := time.Since(calledAt)
			metric.latency.set(elapsed)
			metric.duration.add(elapsed)
			metric.calls.Add(1)
			metric.bytes.Add(bytes)
			if err != nil {
				metric.failures.Add(1)
			}
		}
	}
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(componentType string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[componentType]; ok {
		return metric
	}
	metric := newMetric(componentType)
	m.m[componentType] = metric
	return metric
}

type metric struct {
	calls    *expvar.Int
	failures *expvar.Int
	bytes    *expvar.Int
	latency  *duration
	duration *duration
}

func newMetric(componentType string) metric {
	m := metric{
		calls:    expvar.NewInt(key(componentType, CallCounter)),
		failures: expvar.NewInt(key(componentType, FailureCounter)),
		bytes:    expvar.NewInt(key(componentType, ByteCounter)),
		latency:  &duration{},
		duration: &duration{},
	}
	expvar.Publish(key(componentType, LatencyCounter), m.latency)
	expvar.Publish(key(componentType, DurationCounter), m.duration)
	return m
}

func key(componentType, counter string) string {
	return fmt.Sprintf("%s.%s.%s", componentsLabel, componentType, counter)
}

func getType(component interface{}) string {
	rv := reflect.ValueOf(component)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Type().String()
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)).String())
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
