package delta

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeU32_AllOrders(t *testing.T) {
	original := []uint32{10, 20, 17, 900, 901, 0, 4294967295, 5}

	for order := 0; order <= MaxOrder; order++ {
		xs := append([]uint32(nil), original...)
		moments, err := EncodeU32(xs, order)
		require.NoError(t, err)

		err = DecodeU32(xs, order, moments)
		require.NoError(t, err)
		require.Equal(t, original, xs, "order %d must round-trip", order)
	}
}

func TestEncodeDecodeU64_AllOrders(t *testing.T) {
	original := []uint64{1, 2, 4, 8, 16, 32, 64, 128, 256}

	for order := 0; order <= MaxOrder; order++ {
		xs := append([]uint64(nil), original...)
		moments, err := EncodeU64(xs, order)
		require.NoError(t, err)

		err = DecodeU64(xs, order, moments)
		require.NoError(t, err)
		require.Equal(t, original, xs, "order %d must round-trip", order)
	}
}

func TestEncodeU32_RampOrder1IsConstant(t *testing.T) {
	ramp := make([]uint32, 1000)
	for i := range ramp {
		ramp[i] = uint32(i)
	}

	xs := append([]uint32(nil), ramp...)
	_, err := EncodeU32(xs, 1)
	require.NoError(t, err)

	for i := 1; i < len(xs); i++ {
		require.Equal(t, uint32(1), xs[i], "first difference of a ramp must be constant")
	}
}

func TestEncodeU32_InvalidOrder(t *testing.T) {
	xs := []uint32{1, 2, 3}
	_, err := EncodeU32(xs, 8)
	require.Error(t, err)

	_, err = EncodeU32(xs, -1)
	require.Error(t, err)
}

func TestEncodeU32_EmptyInput(t *testing.T) {
	moments, err := EncodeU32(nil, 3)
	require.NoError(t, err)
	require.Nil(t, moments)
}

func TestEncodeU32_OrderZeroIsIdentity(t *testing.T) {
	xs := []uint32{5, 6, 7}
	orig := append([]uint32(nil), xs...)
	moments, err := EncodeU32(xs, 0)
	require.NoError(t, err)
	require.Nil(t, moments)
	require.Equal(t, orig, xs)
}

func TestDecodeU32_WrongMomentCountIsCorruption(t *testing.T) {
	xs := []uint32{1, 2, 3}
	err := DecodeU32(xs, 2, []uint32{1})
	require.Error(t, err)
}

func TestEstimateOrder_PicksLowerOrderOnTie(t *testing.T) {
	constant := make([]uint64, 100)
	for i := range constant {
		constant[i] = 42
	}
	// Already flat: order 0 and order 1 both score 0, order 0 must win.
	require.Equal(t, 0, EstimateOrder(constant))
}

func TestEstimateOrder_PrefersOrder1ForRamp(t *testing.T) {
	ramp := make([]uint64, 1000)
	for i := range ramp {
		ramp[i] = uint64(i)
	}
	require.Equal(t, 1, EstimateOrder(ramp))
}

func TestEstimateOrder_DoesNotMutateInput(t *testing.T) {
	sample := []uint64{5, 9, 2, 100, 3}
	orig := append([]uint64(nil), sample...)
	EstimateOrder(sample)
	require.Equal(t, orig, sample)
}
