package mode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectAndSplitIntMult(t *testing.T) {
	sample := make([]uint64, 10_000)
	for i := range sample {
		sample[i] = uint64(i) * 1_000_000
	}

	base, ok := DetectIntMultU64(sample, detectThreshold)
	require.True(t, ok)
	require.Equal(t, uint64(1_000_000), base)

	primary, secondary, err := SplitIntMultU64(sample, base)
	require.NoError(t, err)
	joined := JoinIntMultU64(primary, secondary, base)
	require.Equal(t, sample, joined)

	for _, s := range secondary {
		require.Equal(t, uint64(0), s, "exact multiples must have a zero remainder")
	}
}

func TestDetectIntMult_NoCommonDivisor(t *testing.T) {
	sample := []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}
	_, ok := DetectIntMultU64(sample, detectThreshold)
	require.False(t, ok)
}

func TestSplitJoinFloatQuant_RoundTrip(t *testing.T) {
	latents := []uint64{0, 0xFF00, 0xABCDEF00, 1 << 40}
	k := uint(8)

	primary, secondary := SplitFloatQuant(latents, k)
	joined := JoinFloatQuant(primary, secondary, k)
	require.Equal(t, latents, joined)
}

func TestSplitFloatQuant_ZeroK(t *testing.T) {
	latents := []uint64{1, 2, 3}
	primary, secondary := SplitFloatQuant(latents, 0)
	require.Equal(t, latents, primary)
	for _, s := range secondary {
		require.Equal(t, uint64(0), s)
	}
}

func TestDetectFloatQuant(t *testing.T) {
	sample := make([]float64, 10_000)
	for i := range sample {
		sample[i] = float64(i) * 0.25
	}

	k, ok := DetectFloatQuant(sample, detectThreshold)
	require.True(t, ok)
	require.Greater(t, k, uint(0))
}

func TestDetectAndSplitJoinFloatMult(t *testing.T) {
	sample := make([]float64, 10_000)
	for i := range sample {
		sample[i] = float64(i) * 1_000_000.0
	}

	base, ok := DetectFloatMult(sample, detectThreshold)
	require.True(t, ok)

	primary, secondary, exact := SplitFloatMult(sample, base)
	require.True(t, exact)

	joined := JoinFloatMult(primary, base)
	require.Equal(t, sample, joined)
	require.Len(t, secondary, len(sample))
}

func TestModeString(t *testing.T) {
	require.Equal(t, "classic", ModeClassic.String())
	require.Equal(t, "int_mult", ModeIntMult.String())
	require.Equal(t, "float_mult", ModeFloatMult.String())
	require.Equal(t, "float_quant", ModeFloatQuant.String())
}
