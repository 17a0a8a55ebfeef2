// Package generator produces synthetic time series for seeding a metrics
// backend.
package generator

import (
	"fmt"
	"math/rand"
	"time"
)

// Options controls point generation. With a nil Value every point gets a
// random value in [MinValue, MaxValue]; otherwise all points share *Value.
type Options struct {
	Value    *float64
	MinValue int
	MaxValue int
}

// Points generates timestamps (Unix milliseconds) at the given step over
// [start, end) and a value for each.
func Points(start, end time.Time, step time.Duration, opts Options) ([]int64, []float64, error) {
	if step <= 0 {
		return nil, nil, fmt.Errorf("step must be positive, got %s", step)
	}
	if !start.Before(end) {
		return nil, nil, fmt.Errorf("start %s is not before end %s", start, end)
	}
	if opts.Value == nil && opts.MinValue > opts.MaxValue {
		return nil, nil, fmt.Errorf("min value %d above max value %d", opts.MinValue, opts.MaxValue)
	}

	var timestamps []int64
	for cur := start; cur.Before(end); cur = cur.Add(step) {
		timestamps = append(timestamps, cur.UnixMilli())
	}

	values := make([]float64, len(timestamps))
	for i := range values {
		if opts.Value != nil {
			values[i] = *opts.Value
		} else {
			values[i] = float64(opts.MinValue + rand.Intn(opts.MaxValue-opts.MinValue+1))
		}
	}
	return timestamps, values, nil
}
