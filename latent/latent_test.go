package latent

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInt32_BijectionAndOrder(t *testing.T) {
	vals := []int32{math.MinInt32, -1000, -1, 0, 1, 1000, math.MaxInt32}
	var prevLatent uint32
	for i, v := range vals {
		l := Int32.ToLatentOrdered(v)
		back := Int32.FromLatentOrdered(l)
		require.Equal(t, v, back)
		if i > 0 {
			require.Greater(t, l, prevLatent, "latent order must track value order")
		}
		prevLatent = l
	}
}

func TestUint64_Identity(t *testing.T) {
	vals := []uint64{0, 1, 1 << 63, math.MaxUint64}
	for _, v := range vals {
		require.Equal(t, v, Uint64.ToLatentOrdered(v))
		require.Equal(t, v, Uint64.FromLatentOrdered(v))
	}
}

func TestFloat64_BijectionAndOrder(t *testing.T) {
	vals := []float64{-math.MaxFloat64, -1.5, -0.0, 0.0, 1.5, math.MaxFloat64}
	var prevLatent uint64
	for i, v := range vals {
		l := Float64.ToLatentOrdered(v)
		back := Float64.FromLatentOrdered(l)
		require.Equal(t, math.Float64bits(v), math.Float64bits(back), "round-trip must be bit-for-bit")
		if i > 0 {
			require.GreaterOrEqual(t, l, prevLatent, "latent order must track float order")
		}
		prevLatent = l
	}
}

func TestFloat64_NaNRoundTripsBitwise(t *testing.T) {
	nan := math.Float64frombits(0x7ff8000000000001)
	l := Float64.ToLatentOrdered(nan)
	back := Float64.FromLatentOrdered(l)
	require.Equal(t, math.Float64bits(nan), math.Float64bits(back))
}

func TestFloat32_BijectionAndOrder(t *testing.T) {
	vals := []float32{-math.MaxFloat32, -1.5, 0, 1.5, math.MaxFloat32}
	var prevLatent uint32
	for i, v := range vals {
		l := Float32.ToLatentOrdered(v)
		back := Float32.FromLatentOrdered(l)
		require.Equal(t, math.Float32bits(v), math.Float32bits(back))
		if i > 0 {
			require.GreaterOrEqual(t, l, prevLatent)
		}
		prevLatent = l
	}
}

func TestDtypeBytesMatchSpec(t *testing.T) {
	require.Equal(t, Dtype(1), Int64.DtypeByte)
	require.Equal(t, Dtype(2), Uint64.DtypeByte)
	require.Equal(t, Dtype(3), Int32.DtypeByte)
	require.Equal(t, Dtype(4), Uint32.DtypeByte)
	require.Equal(t, Dtype(5), Float32.DtypeByte)
	require.Equal(t, Dtype(6), Float64.DtypeByte)
}
