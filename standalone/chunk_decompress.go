package standalone

import (
	"github.com/arlobytes/pco/bins"
	"github.com/arlobytes/pco/delta"
	"github.com/arlobytes/pco/entropy"
	"github.com/arlobytes/pco/errs"
	"github.com/arlobytes/pco/internal/bitio"
	"github.com/arlobytes/pco/latent"
	"github.com/arlobytes/pco/mode"
	"github.com/arlobytes/pco/progress"
	"github.com/arlobytes/pco/section"
)

// ChunkDecompressor reconstructs one chunk's numbers page by page, mirroring
// spec §4.7's "chunk_decompressor::<T>(rest) -> (ChunkDecompressor, rest)".
type ChunkDecompressor[T any, L latent.Latent] struct {
	trait latent.Trait[T, L]
	meta  section.ChunkMeta
}

// NewChunkDecompressor builds a decompressor for a chunk whose metadata has
// already been parsed (e.g. via section.PeekChunkMeta).
func NewChunkDecompressor[T any, L latent.Latent](trait latent.Trait[T, L], meta section.ChunkMeta) *ChunkDecompressor[T, L] {
	return &ChunkDecompressor[T, L]{trait: trait, meta: meta}
}

// DecompressPage reconstructs every value of one page in original order,
// alongside the Progress this page contributed: a Page is always parsed as
// a complete unit (section.DecodePage never returns a partial one), so a
// successful call always reports FinishedPage true.
func (cd *ChunkDecompressor[T, L]) DecompressPage(page section.Page) ([]T, progress.Progress, error) {
	primary, err := decodeLatentVarPage(cd.meta.Primary, cd.meta.DeltaOrder, page.NumEntries, page.PrimaryMoments, page.PrimaryStates, page.PrimaryBody)
	if err != nil {
		return nil, progress.Progress{}, err
	}

	var secondary []uint64
	if page.HasSecondary {
		if cd.meta.Secondary == nil {
			return nil, progress.Progress{}, errs.Corrupt(errs.ErrDtypeMismatch)
		}
		secondary, err = decodeLatentVarPage(*cd.meta.Secondary, cd.meta.DeltaOrder, page.NumEntries, page.SecondaryMoments, page.SecondaryStates, page.SecondaryBody)
		if err != nil {
			return nil, progress.Progress{}, err
		}
	}

	values, err := joinLatents(cd.trait, cd.meta, primary, secondary)
	if err != nil {
		return nil, progress.Progress{}, err
	}

	return values, progress.Progress{NumProcessed: len(values), FinishedPage: true}, nil
}

// decodeLatentVarPage inverts encodePageBody and the page's delta pass,
// returning the latent stream for one variable of one page: values are
// rebuilt from bins and offsets, then delta decoded back to raw latents.
func decodeLatentVarPage(lv section.LatentVarMeta, deltaOrder, numEntries int, moments []uint64, states [entropy.Interleaving]uint32, body []byte) ([]uint64, error) {
	if numEntries == 0 {
		return nil, nil
	}
	if len(body) < 4 {
		return nil, errs.Insufficient(errs.ErrShortBuffer)
	}

	offsetsLen := pageBodyEngine.Uint32(body)
	if uint32(len(body)-4) < offsetsLen {
		return nil, errs.Insufficient(errs.ErrShortBuffer)
	}
	offsetsBytes := body[4 : 4+offsetsLen]
	ansBytes := body[4+offsetsLen:]

	table, err := entropy.NewTable(lv.Bins.Weights(), lv.AnsSizeLog)
	if err != nil {
		return nil, err
	}

	dec := entropy.NewDecoder(table, states, ansBytes)
	symbols, err := dec.Decode(numEntries)
	if err != nil {
		return nil, err
	}

	offsetsR := bitio.NewSliceReader(offsetsBytes)
	out := make([]uint64, numEntries)
	for i, sym := range symbols {
		if sym < 0 || sym >= len(lv.Bins.Items) {
			return nil, errs.Corrupt(errs.ErrLatentOutOfRange)
		}
		bin := lv.Bins.Items[sym]

		var offset uint64
		if bin.OffsetBits > 0 {
			offset, err = offsetsR.ReadBits(bin.OffsetBits)
			if err != nil {
				return nil, err
			}
		}

		out[i] = bins.ReconstructLatent(bin, offset)
	}

	if err := delta.DecodeU64(out, deltaOrder, moments); err != nil {
		return nil, err
	}

	return out, nil
}

// joinLatents inverts mode selection, recombining primary (and, for
// IntMult/FloatQuant/FloatMult, secondary) latents back into T values.
func joinLatents[T any, L latent.Latent](trait latent.Trait[T, L], meta section.ChunkMeta, primary, secondary []uint64) ([]T, error) {
	switch meta.Mode {
	case mode.ModeIntMult:
		if isSignedInt64Type[T]() {
			joined := joinIntMultInt64(primary, secondary, meta.IntMultBase)

			return int64sToT[T](joined), nil
		}

		joined := mode.JoinIntMultU64(primary, secondary, meta.IntMultBase)

		return latentsToT(trait, joined), nil

	case mode.ModeFloatQuant:
		joined := mode.JoinFloatQuant(primary, secondary, meta.FloatQuantK)

		return latentsToT(trait, joined), nil

	case mode.ModeFloatMult:
		ints := make([]int64, len(primary))
		for i, l := range primary {
			ints[i] = latent.Int64.FromLatentOrdered(l)
		}
		joined := mode.JoinFloatMult(ints, meta.FloatMultBase)

		return floatsToT[T](joined), nil

	default:
		return latentsToT(trait, primary), nil
	}
}

func latentsToT[T any, L latent.Latent](trait latent.Trait[T, L], latents []uint64) []T {
	out := make([]T, len(latents))
	for i, l := range latents {
		out[i] = trait.FromLatentOrdered(L(l))
	}

	return out
}

// floatsToT copies a []float64 into a []T, valid only when T is actually
// float64 (true whenever FloatQuant/FloatMult was selected, since those
// modes only ever fire for float64 chunks per selectMode).
func floatsToT[T any](fs []float64) []T {
	out := make([]T, len(fs))
	anyOut := any(out).([]float64)
	copy(anyOut, fs)

	return out
}

// isSignedInt64Type reports whether T is one of the signed integer types
// splitIntMultInt64/joinIntMultInt64 handle, mirroring
// signedInt64Sample's type switch so encode and decode agree on which
// domain IntMult was split in without needing to record the choice on the
// wire.
func isSignedInt64Type[T any]() bool {
	var zero T
	switch any(zero).(type) {
	case int64, int32:
		return true
	default:
		return false
	}
}

// joinIntMultInt64 inverts splitIntMultInt64: recovers x = q*base + r from
// the latent-ordered quotient and the raw [0, base) remainder.
func joinIntMultInt64(primary, secondary []uint64, base uint64) []int64 {
	b := int64(base)
	out := make([]int64, len(primary))
	for i := range primary {
		q := latent.Int64.FromLatentOrdered(primary[i])
		r := int64(secondary[i])
		out[i] = q*b + r
	}

	return out
}

// int64sToT copies a []int64 into a []T, valid only when T is int64 or
// int32 (the two types isSignedInt64Type recognizes); int32 narrowing is
// exact here since splitIntMultInt64 only ever produced these values from
// an original int32 or int64 input.
func int64sToT[T any](ints []int64) []T {
	out := make([]T, len(ints))
	switch typed := any(out).(type) {
	case []int64:
		copy(typed, ints)
	case []int32:
		for i, v := range ints {
			typed[i] = int32(v)
		}
	}

	return out
}
