// Package inmemory implements the series store on plain maps. It backs the
// test server; nothing here persists.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/and161185/victoria-client/model"
	"github.com/and161185/victoria-client/storage"
)

type series struct {
	labels     model.MetricLabel
	values     []float64
	timestamps []int64
}

// MemStorage keeps series keyed by their canonical selector string.
type MemStorage struct {
	series map[string]*series
	mu     sync.RWMutex
}

func NewMemStorage(ctx context.Context) *MemStorage {
	return &MemStorage{
		series: make(map[string]*series),
	}
}

// Save appends the sample points to the series identified by its label set,
// keeping points ordered by timestamp. A point with an existing timestamp
// overwrites the old value.
func (store *MemStorage) Save(ctx context.Context, sample *model.MetricSample) error {
	if err := sample.Validate(); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	key := sample.Metric.Selector()
	s, ok := store.series[key]
	if !ok {
		s = &series{labels: sample.Metric.Clone()}
		store.series[key] = s
	}

	for i, ts := range sample.Timestamps {
		idx := sort.Search(len(s.timestamps), func(j int) bool { return s.timestamps[j] >= ts })
		if idx < len(s.timestamps) && s.timestamps[idx] == ts {
			s.values[idx] = sample.Values[i]
			continue
		}
		s.timestamps = append(s.timestamps, 0)
		copy(s.timestamps[idx+1:], s.timestamps[idx:])
		s.timestamps[idx] = ts

		s.values = append(s.values, 0)
		copy(s.values[idx+1:], s.values[idx:])
		s.values[idx] = sample.Values[i]
	}
	return nil
}

// Delete removes every series matching any of the selectors and returns the
// number of series dropped.
func (store *MemStorage) Delete(ctx context.Context, selectors []storage.Selector) (int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	deleted := 0
	for key, s := range store.series {
		for _, sel := range selectors {
			if sel.Matches(s.labels) {
				delete(store.series, key)
				deleted++
				break
			}
		}
	}
	return deleted, nil
}

// Match returns the label sets of series matching any of the selectors.
func (store *MemStorage) Match(ctx context.Context, selectors []storage.Selector) ([]model.MetricLabel, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	result := make([]model.MetricLabel, 0)
	for _, s := range store.series {
		for _, sel := range selectors {
			if sel.Matches(s.labels) {
				result = append(result, s.labels.Clone())
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Selector() < result[j].Selector() })
	return result, nil
}

// Range returns the points of matching series within [start, end],
// timestamps in milliseconds.
func (store *MemStorage) Range(ctx context.Context, sel storage.Selector, start, end int64) ([]model.MetricSample, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	result := make([]model.MetricSample, 0)
	for _, s := range store.series {
		if !sel.Matches(s.labels) {
			continue
		}
		out := model.MetricSample{Metric: s.labels.Clone()}
		for i, ts := range s.timestamps {
			if ts < start || ts > end {
				continue
			}
			out.Timestamps = append(out.Timestamps, ts)
			out.Values = append(out.Values, s.values[i])
		}
		if len(out.Timestamps) > 0 {
			result = append(result, out)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Metric.Selector() < result[j].Metric.Selector() })
	return result, nil
}

var _ storage.Store = (*MemStorage)(nil)
