package standalone

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arlobytes/pco/latent"
	"github.com/arlobytes/pco/mode"
	"github.com/arlobytes/pco/section"
)

func roundTripInt64(t *testing.T, xs []int64, opts ...ChunkOption) []int64 {
	t.Helper()

	cfg, err := NewChunkConfig(opts...)
	require.NoError(t, err)

	cc, err := NewChunkCompressor(latent.Int64, xs, cfg)
	require.NoError(t, err)

	encoded := cc.EncodeChunk()

	meta, totalBodyBytes, afterMeta, err := section.PeekChunkMeta(encoded)
	require.NoError(t, err)

	cd := NewChunkDecompressor(latent.Int64, meta)
	got, _, _, err := DecompressRemainingExtend(cd, meta, totalBodyBytes, afterMeta, make([]int64, 0, len(xs)))
	require.NoError(t, err)

	return got
}

func roundTripFloat64(t *testing.T, xs []float64, opts ...ChunkOption) []float64 {
	t.Helper()

	cfg, err := NewChunkConfig(opts...)
	require.NoError(t, err)

	cc, err := NewChunkCompressor(latent.Float64, xs, cfg)
	require.NoError(t, err)

	encoded := cc.EncodeChunk()

	meta, totalBodyBytes, afterMeta, err := section.PeekChunkMeta(encoded)
	require.NoError(t, err)

	cd := NewChunkDecompressor(latent.Float64, meta)
	got, _, _, err := DecompressRemainingExtend(cd, meta, totalBodyBytes, afterMeta, make([]float64, 0, len(xs)))
	require.NoError(t, err)

	return got
}

func TestChunkRoundTrip_Empty(t *testing.T) {
	got := roundTripInt64(t, nil)
	require.Empty(t, got)
}

func TestChunkRoundTrip_ReportsProgress(t *testing.T) {
	xs := make([]int64, 2500)
	for i := range xs {
		xs[i] = int64(i)
	}

	cfg, err := NewChunkConfig(WithPageSize(1000))
	require.NoError(t, err)
	cc, err := NewChunkCompressor(latent.Int64, xs, cfg)
	require.NoError(t, err)

	encoded := cc.EncodeChunk()
	meta, totalBodyBytes, afterMeta, err := section.PeekChunkMeta(encoded)
	require.NoError(t, err)

	cd := NewChunkDecompressor(latent.Int64, meta)
	got, prog, _, err := DecompressRemainingExtend(cd, meta, totalBodyBytes, afterMeta, make([]int64, 0, len(xs)))
	require.NoError(t, err)
	require.Equal(t, xs, got)
	require.Equal(t, len(xs), prog.NumProcessed)
	require.True(t, prog.FinishedPage)
	require.False(t, prog.InsufficientData)
}

func TestChunkRoundTrip_Constant(t *testing.T) {
	xs := make([]int64, 500)
	for i := range xs {
		xs[i] = 42
	}

	got := roundTripInt64(t, xs)
	require.Equal(t, xs, got)
}

func TestChunkRoundTrip_RampWithDeltaOrder1(t *testing.T) {
	xs := make([]int64, 2000)
	for i := range xs {
		xs[i] = int64(i) * 3
	}

	got := roundTripInt64(t, xs, WithDeltaOrder(1))
	require.Equal(t, xs, got)
}

func TestChunkRoundTrip_IntMultDetected(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	xs := make([]int64, 10_000)
	for i := range xs {
		xs[i] = int64(rng.Intn(1000)) * 1_000_000
	}

	cfg, err := NewChunkConfig(WithIntMult(mode.Spec{State: mode.Enabled}))
	require.NoError(t, err)
	cc, err := NewChunkCompressor(latent.Int64, xs, cfg)
	require.NoError(t, err)
	require.Equal(t, mode.ModeIntMult, cc.meta.Mode)
	require.Equal(t, uint64(1_000_000), cc.meta.IntMultBase)

	encoded := cc.EncodeChunk()
	meta, totalBodyBytes, afterMeta, err := section.PeekChunkMeta(encoded)
	require.NoError(t, err)
	cd := NewChunkDecompressor(latent.Int64, meta)
	got, _, _, err := DecompressRemainingExtend(cd, meta, totalBodyBytes, afterMeta, make([]int64, 0, len(xs)))
	require.NoError(t, err)
	require.Equal(t, xs, got)
}

func TestChunkRoundTrip_FloatQuantDetected(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	xs := make([]float64, 10_000)
	for i := range xs {
		xs[i] = float64(rng.Intn(100_000)) * 0.25
	}

	cfg, err := NewChunkConfig(WithFloatQuant(mode.Spec{State: mode.Enabled}))
	require.NoError(t, err)
	cc, err := NewChunkCompressor(latent.Float64, xs, cfg)
	require.NoError(t, err)
	require.Equal(t, mode.ModeFloatQuant, cc.meta.Mode)

	encoded := cc.EncodeChunk()
	meta, totalBodyBytes, afterMeta, err := section.PeekChunkMeta(encoded)
	require.NoError(t, err)
	cd := NewChunkDecompressor(latent.Float64, meta)
	got, _, _, err := DecompressRemainingExtend(cd, meta, totalBodyBytes, afterMeta, make([]float64, 0, len(xs)))
	require.NoError(t, err)
	require.Equal(t, xs, got)
}

func TestChunkRoundTrip_MultiplePages(t *testing.T) {
	xs := make([]float64, 5000)
	rng := rand.New(rand.NewSource(3))
	for i := range xs {
		xs[i] = rng.NormFloat64() * 1000
	}

	got := roundTripFloat64(t, xs, WithPageSize(777))
	require.Equal(t, xs, got)
}

func TestChunkDecompress_ShortInputReportsInsufficientDataProgress(t *testing.T) {
	xs := make([]int64, 1000)
	for i := range xs {
		xs[i] = int64(i) * 5
	}

	cfg := DefaultChunkConfig()
	cc, err := NewChunkCompressor(latent.Int64, xs, cfg)
	require.NoError(t, err)

	encoded := cc.EncodeChunk()
	meta, totalBodyBytes, afterMeta, err := section.PeekChunkMeta(encoded)
	require.NoError(t, err)

	cd := NewChunkDecompressor(latent.Int64, meta)
	short := afterMeta[:len(afterMeta)-1]
	got, prog, _, err := DecompressRemainingExtend(cd, meta, totalBodyBytes, short, nil)
	require.Error(t, err)
	require.Nil(t, got)
	require.True(t, prog.InsufficientData)
	require.Equal(t, 0, prog.NumProcessed)
}
