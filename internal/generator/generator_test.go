package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPointsFixedValue(t *testing.T) {
	start := time.Unix(1000, 0)
	end := start.Add(3 * time.Minute)
	v := 42.0

	timestamps, values, err := Points(start, end, time.Minute, Options{Value: &v})
	require.NoError(t, err)
	require.Len(t, timestamps, 3)
	require.Len(t, values, 3)

	require.Equal(t, start.UnixMilli(), timestamps[0])
	require.Equal(t, start.Add(time.Minute).UnixMilli(), timestamps[1])
	for _, val := range values {
		require.Equal(t, 42.0, val)
	}
}

func TestPointsRandomRange(t *testing.T) {
	start := time.Unix(0, 0)
	end := start.Add(100 * time.Second)

	_, values, err := Points(start, end, time.Second, Options{MinValue: 10, MaxValue: 20})
	require.NoError(t, err)
	for _, v := range values {
		require.GreaterOrEqual(t, v, 10.0)
		require.LessOrEqual(t, v, 20.0)
	}
}

func TestPointsErrors(t *testing.T) {
	start := time.Unix(1000, 0)

	_, _, err := Points(start, start.Add(time.Minute), 0, Options{})
	require.Error(t, err)

	_, _, err = Points(start, start, time.Second, Options{})
	require.Error(t, err)

	_, _, err = Points(start, start.Add(time.Minute), time.Second, Options{MinValue: 5, MaxValue: 1})
	require.Error(t, err)
}
