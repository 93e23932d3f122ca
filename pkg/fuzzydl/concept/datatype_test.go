package concept

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
)

func TestDatatypeMembership(t *testing.T) {
	tests := []struct {
		kind   DatatypeKind
		params []float64
		at     float64
		want   float64
	}{
		{LeftShoulder, []float64{20, 30}, 10, 1},
		{LeftShoulder, []float64{20, 30}, 25, 0.5},
		{LeftShoulder, []float64{20, 30}, 40, 0},
		{RightShoulder, []float64{20, 30}, 27.5, 0.75},
		{Triangular, []float64{10, 20, 40}, 15, 0.5},
		{Triangular, []float64{10, 20, 40}, 30, 0.5},
		{Trapezoidal, []float64{10, 20, 30, 50}, 25, 1},
		{Trapezoidal, []float64{10, 20, 30, 50}, 45, 0.25},
		{Linear, []float64{50, 0.5}, 25, 0.25},
		{Linear, []float64{50, 0.5}, 75, 0.75},
		{Crisp, []float64{18, 65}, 18, 1},
		{Crisp, []float64{18, 65}, 17, 0},
		{LeftShoulder, []float64{20, 30}, 101, 0},
	}
	for _, tt := range tests {
		dt, err := NewDatatype("d", tt.kind, 0, 100, tt.params...)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, dt.Membership(tt.at), 1e-9, "%s at %g", tt.kind, tt.at)
	}
}

func TestDatatypeSegmentsCoverRange(t *testing.T) {
	dt, err := NewDatatype("d", Trapezoidal, 0, 100, 0, 20, 30, 100)
	require.NoError(t, err)
	segs := dt.Segments()
	require.Len(t, segs, 3)
	assert.Equal(t, 0.0, segs[0].From)
	assert.Equal(t, 100.0, segs[len(segs)-1].To)
	for i := 1; i < len(segs); i++ {
		assert.Equal(t, segs[i-1].To, segs[i].From)
	}
	assert.InDelta(t, 1, segs[1].At(25), 1e-12)
}

func TestDatatypeValidation(t *testing.T) {
	_, err := NewDatatype("d", Triangular, 0, 100, 10, 20)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
	_, err = NewDatatype("d", LeftShoulder, 0, 100, 30, 20)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
	_, err = NewDatatype("d", RightShoulder, 100, 0, 10, 20)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
	_, err = NewDatatype("d", Linear, 0, 100, 50, 2)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)

	k, err := ParseDatatypeKind("trapezoidal")
	require.NoError(t, err)
	assert.Equal(t, Trapezoidal, k)
}
