package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []float64{30, 90, 180}, cfg.Boundaries.Recency)
	assert.Equal(t, []float64{1, 3, 10}, cfg.Boundaries.Frequency)
	assert.Equal(t, []float64{100, 500, 2000}, cfg.Boundaries.Monetary)
	assert.Equal(t, 0.05, cfg.Privacy.NoiseLevel)
	assert.Equal(t, "CUST_", cfg.Privacy.PseudonymPrefix)
	assert.Equal(t, 16, cfg.Privacy.HashLength)
}

func TestValidate_Boundaries(t *testing.T) {
	tests := []struct {
		name      string
		recency   []float64
		frequency []float64
		monetary  []float64
		wantErr   bool
	}{
		{"valid two values", []float64{30, 90}, []float64{1, 3}, []float64{100, 500}, false},
		{"valid three values", []float64{30, 90, 180}, []float64{1, 3, 10}, []float64{100, 500, 2000}, false},
		{"equal values", []float64{30, 30}, []float64{1, 3}, []float64{100, 500}, true},
		{"decreasing frequency", []float64{30, 90}, []float64{3, 1}, []float64{100, 500}, true},
		{"decreasing tail", []float64{30, 90}, []float64{1, 3}, []float64{100, 500, 400}, true},
		{"single value", []float64{30}, []float64{1, 3}, []float64{100, 500}, true},
		{"empty", []float64{30, 90}, nil, []float64{100, 500}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Default().WithBoundaries(tt.recency, tt.frequency, tt.monetary)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidate_Window(t *testing.T) {
	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := Default().WithWindow(start, start.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Default().WithWindow(start, time.Time{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg, err := Default().WithWindow(start, start)
	require.NoError(t, err)
	assert.True(t, cfg.Window.End.Equal(start))
}

func TestValidate_NoiseLevel(t *testing.T) {
	p := Default().Privacy
	p.NoiseLevel = -0.1

	_, err := Default().WithPrivacy(p)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	p.NoiseLevel = 0
	_, err = Default().WithPrivacy(p)
	assert.NoError(t, err)
}

func TestWithBoundaries_DoesNotMutateReceiver(t *testing.T) {
	base := Default()

	next, err := base.WithBoundaries([]float64{45, 120, 240}, []float64{2, 5, 15}, []float64{150, 750, 3000})
	require.NoError(t, err)

	assert.Equal(t, []float64{30, 90, 180}, base.Boundaries.Recency)
	assert.Equal(t, []float64{45, 120, 240}, next.Boundaries.Recency)
}

func TestNew_CopiesSlices(t *testing.T) {
	in := Default()
	recency := []float64{10, 20}
	in.Boundaries.Recency = recency

	cfg, err := New(in)
	require.NoError(t, err)

	recency[0] = 99
	assert.Equal(t, 10.0, cfg.Boundaries.Recency[0])
}

func TestWithWindow_UpdatesOnlyWindow(t *testing.T) {
	base := Default()
	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	next, err := base.WithWindow(start, end)
	require.NoError(t, err)

	assert.True(t, base.Window.Start.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, next.Window.Start.Equal(start))
	assert.True(t, next.Window.End.Equal(end))
	assert.Equal(t, base.Boundaries, next.Boundaries)
}
