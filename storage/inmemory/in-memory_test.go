package inmemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/victoria-client/model"
	"github.com/and161185/victoria-client/storage"
)

func sampleCPU(host string) *model.MetricSample {
	return &model.MetricSample{
		Metric:     model.MetricLabel{model.NameLabel: "cpu", "host": host},
		Values:     []float64{0.5, 0.7},
		Timestamps: []int64{1000, 2000},
	}
}

func mustSelector(t *testing.T, expr string) storage.Selector {
	t.Helper()
	sel, err := storage.ParseSelector(expr)
	require.NoError(t, err)
	return sel
}

func TestSaveAndMatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemStorage(ctx)

	require.NoError(t, store.Save(ctx, sampleCPU("a")))
	require.NoError(t, store.Save(ctx, sampleCPU("b")))

	labels, err := store.Match(ctx, []storage.Selector{mustSelector(t, "cpu")})
	require.NoError(t, err)
	require.Len(t, labels, 2)

	labels, err = store.Match(ctx, []storage.Selector{mustSelector(t, `cpu{host="a"}`)})
	require.NoError(t, err)
	require.Len(t, labels, 1)
	require.Equal(t, "a", labels[0]["host"])
}

func TestSaveMergesPoints(t *testing.T) {
	ctx := context.Background()
	store := NewMemStorage(ctx)

	require.NoError(t, store.Save(ctx, sampleCPU("a")))
	require.NoError(t, store.Save(ctx, &model.MetricSample{
		Metric:     model.MetricLabel{model.NameLabel: "cpu", "host": "a"},
		Values:     []float64{0.9, 0.1},
		Timestamps: []int64{1500, 1000}, // 1000 overwrites, 1500 inserts
	}))

	samples, err := store.Range(ctx, mustSelector(t, `cpu{host="a"}`), 0, 3000)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.Equal(t, []int64{1000, 1500, 2000}, samples[0].Timestamps)
	require.Equal(t, []float64{0.1, 0.9, 0.7}, samples[0].Values)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemStorage(ctx)

	require.NoError(t, store.Save(ctx, sampleCPU("a")))
	require.NoError(t, store.Save(ctx, sampleCPU("b")))

	n, err := store.Delete(ctx, []storage.Selector{mustSelector(t, `cpu{host="a"}`)})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	labels, err := store.Match(ctx, []storage.Selector{mustSelector(t, "cpu")})
	require.NoError(t, err)
	require.Len(t, labels, 1)
	require.Equal(t, "b", labels[0]["host"])
}

func TestRangeWindow(t *testing.T) {
	ctx := context.Background()
	store := NewMemStorage(ctx)

	require.NoError(t, store.Save(ctx, sampleCPU("a")))

	samples, err := store.Range(ctx, mustSelector(t, "cpu"), 1500, 3000)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.Equal(t, []int64{2000}, samples[0].Timestamps)

	samples, err = store.Range(ctx, mustSelector(t, "cpu"), 5000, 6000)
	require.NoError(t, err)
	require.Empty(t, samples)
}
