package sensor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_PercentBetweenSamples(t *testing.T) {
	cpu := []float64{1.0, 1.5, 1.5}
	wall := time.Unix(100, 0)
	call := 0
	p := &Process{
		cpuTime: func() (float64, error) { return cpu[call], nil },
		now:     func() time.Time { return wall.Add(time.Duration(call) * time.Second) },
	}
	ctx := context.Background()

	v, err := p.Sample(ctx)
	require.NoError(t, err)
	assert.Zero(t, v, "first sample is a baseline")

	call = 1
	v, err = p.Sample(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, v, 0.001)

	call = 2
	v, err = p.Sample(ctx)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestProcess_PropagatesReadErrors(t *testing.T) {
	boom := errors.New("no proc")
	p := &Process{cpuTime: func() (float64, error) { return 0, boom }, now: time.Now}
	_, err := p.Sample(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSequence_RepeatsLast(t *testing.T) {
	s := NewSequence(10, 85, 30)
	var got []float64
	for range 5 {
		v, err := s.Sample(context.Background())
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []float64{10, 85, 30, 30, 30}, got)
	assert.Equal(t, 5, s.Calls())
}

func TestStatic(t *testing.T) {
	v, err := Static(42).Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)
}
