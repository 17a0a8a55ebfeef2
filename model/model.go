// Package model contains core data types for the project.
package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// NameLabel is the reserved label holding the metric name.
const NameLabel = "__name__"

// MetricLabel identifies one time series: a set of label name/value pairs,
// including the metric name under __name__.
type MetricLabel map[string]string

// Name returns the metric name stored under __name__, or "" if absent.
func (l MetricLabel) Name() string {
	return l[NameLabel]
}

// Selector renders the label set as a series selector,
// e.g. cpu_usage{host="server1",region="eu"}. Labels other than
// __name__ are sorted so the output is deterministic.
func (l MetricLabel) Selector() string {
	var sb strings.Builder
	sb.WriteString(l.Name())

	keys := make([]string, 0, len(l))
	for k := range l {
		if k == NameLabel {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return sb.String()
	}
	sort.Strings(keys)

	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%s=%q", k, l[k])
	}
	sb.WriteByte('}')
	return sb.String()
}

// Validate checks that the label set names a series.
func (l MetricLabel) Validate() error {
	if len(l) == 0 {
		return errors.New("empty label set")
	}
	if l.Name() == "" {
		return fmt.Errorf("label set has no %s label", NameLabel)
	}
	return nil
}

// Clone returns a copy of the label set.
func (l MetricLabel) Clone() MetricLabel {
	c := make(MetricLabel, len(l))
	for k, v := range l {
		c[k] = v
	}
	return c
}

// MetricSample is one labeled series with its sample points. The JSON shape
// matches a single line of the VictoriaMetrics import format.
//
// Timestamps are Unix milliseconds everywhere in this module.
type MetricSample struct {
	Metric     MetricLabel `json:"metric"`
	Values     []float64   `json:"values"`
	Timestamps []int64     `json:"timestamps"`
}

// Validate checks that the sample is importable.
func (s *MetricSample) Validate() error {
	if err := s.Metric.Validate(); err != nil {
		return err
	}
	if len(s.Values) != len(s.Timestamps) {
		return fmt.Errorf("values/timestamps length mismatch: %d != %d", len(s.Values), len(s.Timestamps))
	}
	if len(s.Values) == 0 {
		return errors.New("sample has no points")
	}
	return nil
}

// TimeRangeQuery describes a range query: a series selector plus a time
// window and step. Start and End are Unix milliseconds.
type TimeRangeQuery struct {
	Query string
	Start int64
	End   int64
	Step  time.Duration
}

// Validate checks the query window.
func (q *TimeRangeQuery) Validate() error {
	if q.Query == "" {
		return errors.New("empty query")
	}
	if q.Step <= 0 {
		return fmt.Errorf("step must be positive, got %s", q.Step)
	}
	if q.Start > q.End {
		return fmt.Errorf("start %d after end %d", q.Start, q.End)
	}
	return nil
}
