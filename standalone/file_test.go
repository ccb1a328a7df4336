package standalone

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arlobytes/pco/errs"
	"github.com/arlobytes/pco/latent"
)

func TestFileRoundTrip_MultipleChunksAndDtypes(t *testing.T) {
	ints := make([]int64, 1200)
	for i := range ints {
		ints[i] = int64(i*i - 600)
	}
	floats := make([]float64, 800)
	rng := rand.New(rand.NewSource(7))
	for i := range floats {
		floats[i] = rng.NormFloat64()
	}

	cfg := DefaultChunkConfig()

	fc := NewFileCompressor()
	require.NoError(t, WriteChunk(fc, latent.Int64, ints, cfg))
	require.NoError(t, WriteChunk(fc, latent.Float64, floats, cfg))
	fc.WriteFooter()

	data := fc.Bytes()

	fd, rest, err := NewFileDecompressor(data)
	require.NoError(t, err)
	require.Equal(t, FormatVersionCurrent, fd.Version)

	class, dt, err := PeekDtypeOrTermination(rest)
	require.NoError(t, err)
	require.Equal(t, Known, class)
	require.Equal(t, latent.DtypeI64, dt)

	gotInts, rest, err := ReadChunk(latent.Int64, rest)
	require.NoError(t, err)
	require.Equal(t, ints, gotInts)

	class, dt, err = PeekDtypeOrTermination(rest)
	require.NoError(t, err)
	require.Equal(t, Known, class)
	require.Equal(t, latent.DtypeF64, dt)

	gotFloats, rest, err := ReadChunk(latent.Float64, rest)
	require.NoError(t, err)
	require.Equal(t, floats, gotFloats)

	class, _, err = PeekDtypeOrTermination(rest)
	require.NoError(t, err)
	require.Equal(t, Termination, class)
}

func TestFileRoundTrip_StreamingChunks(t *testing.T) {
	const numChunks = 10
	const chunkSize = 10_000

	cfg := DefaultChunkConfig()
	fc := NewFileCompressor()

	rng := rand.New(rand.NewSource(99))
	var all [][]float64
	for c := 0; c < numChunks; c++ {
		xs := make([]float64, chunkSize)
		for i := range xs {
			xs[i] = rng.Float64() * 1000
		}
		all = append(all, xs)
		require.NoError(t, WriteChunk(fc, latent.Float64, xs, cfg))
	}
	fc.WriteFooter()

	_, rest, err := NewFileDecompressor(fc.Bytes())
	require.NoError(t, err)

	for c := 0; c < numChunks; c++ {
		class, dt, err := PeekDtypeOrTermination(rest)
		require.NoError(t, err)
		require.Equal(t, Known, class)
		require.Equal(t, latent.DtypeF64, dt)

		var got []float64
		got, rest, err = ReadChunk(latent.Float64, rest)
		require.NoError(t, err)
		require.Equal(t, all[c], got)
	}

	class, _, err := PeekDtypeOrTermination(rest)
	require.NoError(t, err)
	require.Equal(t, Termination, class)
}

func TestFileDecompressor_AcceptsLegacyMagic(t *testing.T) {
	cfg := DefaultChunkConfig()
	fc := NewFileCompressor()
	require.NoError(t, WriteChunk(fc, latent.Uint32, []uint32{1, 2, 3}, cfg))
	fc.WriteFooter()

	data := fc.Bytes()
	copy(data[:4], MagicLegacy[:])
	data[4] = 1 // legacy format version

	fd, rest, err := NewFileDecompressor(data)
	require.NoError(t, err)
	require.Equal(t, byte(1), fd.Version)

	got, _, err := ReadChunk(latent.Uint32, rest)
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2, 3}, got)
}

func TestFileDecompressor_RejectsBadMagic(t *testing.T) {
	_, _, err := NewFileDecompressor([]byte{0, 0, 0, 0, 2, 0})
	require.Error(t, err)
	require.False(t, errs.IsInsufficientData(err))
}

func TestFileDecompressor_RejectsUnsupportedVersion(t *testing.T) {
	data := append(append([]byte{}, MagicCurrent[:]...), 99)
	_, _, err := NewFileDecompressor(data)
	require.Error(t, err)
	kind, ok := errs.KindOf(err)
	require.True(t, ok)
	require.Equal(t, errs.KindCompatibility, kind)
}

func TestAtomicity_ChunkHeaderPrefixesNeverMutateInput(t *testing.T) {
	cfg := DefaultChunkConfig()
	fc := NewFileCompressor()
	xs := make([]int64, 300)
	for i := range xs {
		xs[i] = int64(i)
	}
	require.NoError(t, WriteChunk(fc, latent.Int64, xs, cfg))
	fc.WriteFooter()

	data := fc.Bytes()
	_, afterFileHeader, err := NewFileDecompressor(data)
	require.NoError(t, err)

	chunkBytes := append([]byte(nil), afterFileHeader...)
	for prefixLen := 0; prefixLen < len(chunkBytes); prefixLen++ {
		prefix := append([]byte(nil), chunkBytes[:prefixLen]...)
		snapshot := append([]byte(nil), prefix...)

		_, _, _, err := PeekChunkHeader(prefix)
		if err == nil {
			continue
		}
		require.Truef(t, errs.IsInsufficientData(err), "prefixLen=%d: %v", prefixLen, err)
		require.Equal(t, snapshot, prefix, "prefixLen=%d: input mutated on InsufficientData", prefixLen)
	}

	_, nEntries, afterHeader, err := PeekChunkHeader(chunkBytes)
	require.NoError(t, err)
	require.Equal(t, len(xs), nEntries)

	for prefixLen := 0; prefixLen < len(afterHeader); prefixLen++ {
		prefix := append([]byte(nil), afterHeader[:prefixLen]...)
		snapshot := append([]byte(nil), prefix...)

		cd, totalBodyBytes, afterMeta, err := OpenChunkDecompressor(latent.Int64, prefix)
		if err != nil {
			require.Truef(t, errs.IsInsufficientData(err), "prefixLen=%d: %v", prefixLen, err)
			require.Equal(t, snapshot, prefix, "prefixLen=%d: input mutated on InsufficientData", prefixLen)

			continue
		}

		// Metadata decoded from this short prefix; page decoding is
		// expected to still fail insufficiently, but must not mutate.
		_, _, _, err = DecompressRemainingExtend(cd, cd.meta, totalBodyBytes, afterMeta, nil)
		if err != nil {
			require.Truef(t, errs.IsInsufficientData(err), "prefixLen=%d: %v", prefixLen, err)
		}
		require.Equal(t, snapshot, prefix, "prefixLen=%d: input mutated", prefixLen)
	}
}
