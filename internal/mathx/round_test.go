package mathx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRound(t *testing.T) {
	cases := []struct {
		in   float64
		prec int
		out  float64
	}{
		{72.92, 2, 72.92},
		{23.345, 1, 23.3},
		{23.35, 1, 23.4},
		{-4.685, 0, -5},
		{-4.5, 0, -5},
		{4.5, 0, 5},
		{0, 2, 0},
		{42, 2, 42},
		{1.5, 309, 1.5},
		{math.Inf(1), 2, math.Inf(1)},
		{math.MaxFloat64, 2, math.MaxFloat64},
	}

	for _, tc := range cases {
		require.Equal(t, tc.out, Round(tc.in, tc.prec), "Round(%v, %d)", tc.in, tc.prec)
	}
}

func TestRoundNegativeZero(t *testing.T) {
	for _, in := range []float64{math.Copysign(0, -1), -0.001, -0.4} {
		out := Round(in, 0)
		require.Equal(t, 0.0, out)
		require.False(t, math.Signbit(out), "Round(%v, 0) has sign bit set", in)
	}
}
