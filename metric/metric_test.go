package metric_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ocrabit/sao-guidance/metric"
)

func TestMeter(t *testing.T) {
	pint := 1
	var tests = []struct {
		component         interface{}
		routines          int
		calls             int
		bytes             int64
		fail              bool
		expectedCalls     string
		expectedBytes     string
		expectedFailures  string
	}{
		{
			component:        int(1),
			routines:         2,
			calls:            10,
			bytes:            100,
			expectedCalls:    "20",
			expectedBytes:    "2000",
			expectedFailures: "0",
		},
		{
			// pointer to int shares counters with int.
			component:        &pint,
			routines:         2,
			calls:            10,
			bytes:            100,
			fail:             true,
			expectedCalls:    "40",
			expectedBytes:    "4000",
			expectedFailures: "20",
		},
	}
	testFn := func(start metric.StartFunc, wg *sync.WaitGroup, calls int, bytes int64, fail bool) {
		defer wg.Done()
		var err error
		if fail {
			err = errors.New("failed")
		}
		for i := 0; i < calls; i++ {
			start()(bytes, err)
		}
	}

	for _, c := range tests {
		wg := &sync.WaitGroup{}
		wg.Add(c.routines)
		for i := 0; i < c.routines; i++ {
			go testFn(metric.Meter(c.component), wg, c.calls, c.bytes, c.fail)
		}
		// check if no data race.
		wg.Wait()
		values := metric.Get(c.component)
		assert.Equal(t, c.expectedCalls, values[metric.CallCounter])
		assert.Equal(t, c.expectedBytes, values[metric.ByteCounter])
		assert.Equal(t, c.expectedFailures, values[metric.FailureCounter])
		assert.NotEmpty(t, values[metric.LatencyCounter])
	}

	all := metric.GetAll()
	assert.Contains(t, all, "int")
}
