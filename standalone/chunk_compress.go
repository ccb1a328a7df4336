package standalone

import (
	"github.com/arlobytes/pco/bins"
	"github.com/arlobytes/pco/delta"
	"github.com/arlobytes/pco/endian"
	"github.com/arlobytes/pco/entropy"
	"github.com/arlobytes/pco/errs"
	"github.com/arlobytes/pco/internal/bitio"
	"github.com/arlobytes/pco/internal/pool"
	"github.com/arlobytes/pco/latent"
	"github.com/arlobytes/pco/mode"
	"github.com/arlobytes/pco/section"
)

// pageBodyEngine is the byte order used for the offsets-length prefix that
// precedes every page body's bit-packed offsets and ANS bytes.
var pageBodyEngine = endian.GetLittleEndianEngine()

// detectThreshold mirrors spec §4.2's "first detector that passes its
// threshold wins" minimum match fraction.
const detectThreshold = 0.99

// ChunkCompressor holds one chunk's encoded metadata and pages, ready to be
// written via EncodeChunk or appended to a FileCompressor, per spec §4.7's
// "chunk_compressor(nums, &config) producing a ChunkCompressor<T>".
type ChunkCompressor[T any, L latent.Latent] struct {
	trait      latent.Trait[T, L]
	meta       section.ChunkMeta
	pages      []section.Page
	numEntries int
}

// NewChunkCompressor runs mode selection, delta encoding, bin optimization
// and entropy coding over xs against trait and cfg, producing an immutable
// ChunkCompressor.
func NewChunkCompressor[T any, L latent.Latent](trait latent.Trait[T, L], xs []T, cfg ChunkConfig) (*ChunkCompressor[T, L], error) {
	latents64 := make([]uint64, len(xs))
	for i, v := range xs {
		latents64[i] = uint64(trait.ToLatentOrdered(v))
	}

	selected := selectMode(xs, latents64, cfg)

	var primary, secondary []uint64
	switch selected.Mode {
	case mode.ModeIntMult:
		if selected.IntMultBase == 0 {
			return nil, errs.Invalid(errs.ErrInvalidModeSpec)
		}
		if signed, ok := signedInt64Sample(xs); ok {
			primary, secondary = splitIntMultInt64(signed, selected.IntMultBase)
		} else {
			p, s, err := mode.SplitIntMultU64(latents64, selected.IntMultBase)
			if err != nil {
				return nil, err
			}
			primary, secondary = p, s
		}
	case mode.ModeFloatQuant:
		primary, secondary = mode.SplitFloatQuant(latents64, selected.FloatQuantK)
	case mode.ModeFloatMult:
		floats := any(xs).([]float64)
		q, s, exact := mode.SplitFloatMult(floats, selected.FloatMultBase)
		if !exact {
			// A sampled majority looked like multiples of base but some
			// element in the full input isn't exact; FloatMult must be
			// lossless (spec §8), so fall back to Classic for this chunk
			// rather than accept drift.
			selected = mode.Selected{Mode: mode.ModeClassic}
			primary, secondary = latents64, nil
		} else {
			primary = make([]uint64, len(q))
			for i, v := range q {
				primary[i] = latent.Int64.ToLatentOrdered(v)
			}
			secondary = s
		}
	default:
		primary, secondary = latents64, nil
	}

	deltaOrder := 0
	if cfg.DeltaOrder != nil {
		deltaOrder = *cfg.DeltaOrder
	} else if len(primary) > 1 {
		deltaOrder = delta.EstimateOrder(primary)
	}

	pageSize := cfg.PageSizeHint
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	primaryBuild, err := buildLatentVar(primary, pageSize, deltaOrder, cfg)
	if err != nil {
		return nil, err
	}

	cc := &ChunkCompressor[T, L]{trait: trait, numEntries: len(xs)}
	cc.meta = section.ChunkMeta{
		Mode:          selected.Mode,
		IntMultBase:   selected.IntMultBase,
		FloatMultBase: selected.FloatMultBase,
		FloatQuantK:   selected.FloatQuantK,
		DeltaOrder:    deltaOrder,
		Primary:       primaryBuild.meta,
	}

	hasSecondary := secondary != nil
	var secondaryBuild latentVarBuild
	if hasSecondary {
		secondaryBuild, err = buildLatentVar(secondary, pageSize, deltaOrder, cfg)
		if err != nil {
			return nil, err
		}
		cc.meta.Secondary = &secondaryBuild.meta
	}

	numPages := len(primaryBuild.pagesDeltaed)
	cc.pages = make([]section.Page, numPages)
	for i := 0; i < numPages; i++ {
		page := section.Page{
			NumEntries:     len(primaryBuild.pagesDeltaed[i]),
			PrimaryMoments: primaryBuild.pagesMoments[i],
		}

		states, body, err := encodePageBody(primaryBuild, i)
		if err != nil {
			return nil, err
		}
		page.PrimaryStates = states
		page.PrimaryBody = body

		if hasSecondary {
			page.HasSecondary = true
			page.SecondaryMoments = secondaryBuild.pagesMoments[i]
			sStates, sBody, err := encodePageBody(secondaryBuild, i)
			if err != nil {
				return nil, err
			}
			page.SecondaryStates = sStates
			page.SecondaryBody = sBody
		}

		cc.pages[i] = page
	}

	return cc, nil
}

// selectMode runs the spec §4.2 detector priority (FloatQuant, FloatMult,
// IntMult) against cfg, restricted to the modes that make sense for T:
// FloatQuant/FloatMult require actual float64 values (not just latents) to
// test multiples/trailing-zero mantissas against, so they only fire when T
// is float64; IntMult runs over whichever representation of xs preserves
// divisibility (see selectIntMultMode).
func selectMode[T any](xs []T, latents64 []uint64, cfg ChunkConfig) mode.Selected {
	if floats, ok := any(xs).([]float64); ok {
		if sel, ok := selectFloatMode(floats, cfg); ok {
			return sel
		}
	}

	if cfg.IntMult.State != mode.Off {
		if sel, ok := selectIntMultMode(xs, latents64, cfg); ok {
			return sel
		}
	}

	return mode.Selected{Mode: mode.ModeClassic}
}

// selectIntMultMode detects a shared integer divisor. For unsigned dtypes,
// ToLatentOrdered is the identity, so the latent stream is the raw integer
// domain and latents64 can be searched directly. For signed dtypes,
// ToLatentOrdered XORs in a constant sign-bit offset that destroys GCD
// structure (gcd(v+C) bears no relation to gcd(v) for an arbitrary
// constant C), so detection instead runs over the original signed int64
// values' magnitudes.
func selectIntMultMode[T any](xs []T, latents64 []uint64, cfg ChunkConfig) (mode.Selected, bool) {
	if cfg.IntMult.State == mode.Fixed {
		return mode.Selected{Mode: mode.ModeIntMult, IntMultBase: cfg.IntMult.IntMultBase}, true
	}

	if signed, ok := signedInt64Sample(xs); ok {
		magnitudes := make([]uint64, len(signed))
		for i, v := range signed {
			magnitudes[i] = absUint64(v)
		}
		if base, ok := mode.DetectIntMultU64(magnitudes, detectThreshold); ok {
			return mode.Selected{Mode: mode.ModeIntMult, IntMultBase: base}, true
		}

		return mode.Selected{}, false
	}

	if base, ok := mode.DetectIntMultU64(latents64, detectThreshold); ok {
		return mode.Selected{Mode: mode.ModeIntMult, IntMultBase: base}, true
	}

	return mode.Selected{}, false
}

// signedInt64Sample widens xs to []int64 when T is a signed integer type
// this build supports (int32 or int64), and reports false otherwise.
func signedInt64Sample[T any](xs []T) ([]int64, bool) {
	switch v := any(xs).(type) {
	case []int64:
		return v, true
	case []int32:
		out := make([]int64, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}

		return out, true
	default:
		return nil, false
	}
}

// absUint64 returns |v| as a uint64. math.MinInt64's negation overflows
// int64 but wraps (two's complement) to exactly the right magnitude bit
// pattern once reinterpreted as uint64, so no special case is needed.
func absUint64(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}

	return uint64(v)
}

// splitIntMultInt64 implements IntMult(base) in the signed domain: Euclidean
// division so the remainder always lands in [0, base), keeping secondary a
// small non-negative value directly usable as a latent with no ordering
// transform, while the quotient (which may be negative) is converted via
// the int64 latent bijection.
func splitIntMultInt64(xs []int64, base uint64) (primary, secondary []uint64) {
	b := int64(base)
	primary = make([]uint64, len(xs))
	secondary = make([]uint64, len(xs))
	for i, x := range xs {
		q := x / b
		r := x % b
		if r < 0 {
			r += b
			q--
		}
		primary[i] = latent.Int64.ToLatentOrdered(q)
		secondary[i] = uint64(r)
	}

	return primary, secondary
}

func selectFloatMode(floats []float64, cfg ChunkConfig) (mode.Selected, bool) {
	if cfg.FloatQuant.State != mode.Off {
		if cfg.FloatQuant.State == mode.Fixed {
			return mode.Selected{Mode: mode.ModeFloatQuant, FloatQuantK: cfg.FloatQuant.FloatQuantK}, true
		}
		if k, ok := mode.DetectFloatQuant(floats, detectThreshold); ok {
			return mode.Selected{Mode: mode.ModeFloatQuant, FloatQuantK: k}, true
		}
	}

	if cfg.FloatMult.State != mode.Off {
		if cfg.FloatMult.State == mode.Fixed {
			return mode.Selected{Mode: mode.ModeFloatMult, FloatMultBase: cfg.FloatMult.FloatMultBase}, true
		}
		if base, ok := mode.DetectFloatMult(floats, detectThreshold); ok {
			return mode.Selected{Mode: mode.ModeFloatMult, FloatMultBase: base}, true
		}
	}

	return mode.Selected{}, false
}

// latentVarBuild is the intermediate state shared by one latent variable's
// (primary or secondary) pages: each page's delta-encoded values and
// moments, plus the chunk-wide bin table and entropy table built over every
// page's post-delta values combined.
type latentVarBuild struct {
	meta         section.LatentVarMeta
	table        bins.CompressionTable
	ansTable     entropy.Table
	pagesDeltaed [][]uint64
	pagesMoments [][]uint64
}

// buildLatentVar splits latents into pageSize-sized pages, delta-encodes
// each independently (moments never cross pages, spec §4.3), then builds one
// Bins table and entropy.Table over the concatenation of every page's
// post-delta values, so all pages of this chunk share one code table.
func buildLatentVar(latents []uint64, pageSize int, deltaOrder int, cfg ChunkConfig) (latentVarBuild, error) {
	if len(latents) == 0 {
		return latentVarBuild{meta: section.LatentVarMeta{AnsSizeLog: cfg.AnsSizeLog, LatentBits: 64}}, nil
	}

	var pagesDeltaed [][]uint64
	var pagesMoments [][]uint64
	for start := 0; start < len(latents); start += pageSize {
		end := start + pageSize
		if end > len(latents) {
			end = len(latents)
		}

		seg := append([]uint64(nil), latents[start:end]...)
		moments, err := delta.EncodeU64(seg, deltaOrder)
		if err != nil {
			return latentVarBuild{}, err
		}
		pagesDeltaed = append(pagesDeltaed, seg)
		pagesMoments = append(pagesMoments, moments)
	}

	totalLen := 0
	for _, p := range pagesDeltaed {
		totalLen += len(p)
	}
	all, release := pool.GetU64Slice(totalLen)
	defer release()
	all = all[:0]
	for _, p := range pagesDeltaed {
		all = append(all, p...)
	}

	// bins.Optimize only reads all to build its histogram and doesn't retain
	// the slice in the returned Bins, so it's safe to hand back to the pool
	// once this function returns.
	b, err := bins.Optimize(all, cfg.CompressionLevel, cfg.AnsSizeLog, chooseGCDCandidate(all))
	if err != nil {
		return latentVarBuild{}, err
	}

	build := latentVarBuild{
		meta:         section.LatentVarMeta{AnsSizeLog: cfg.AnsSizeLog, LatentBits: 64, Bins: b},
		pagesDeltaed: pagesDeltaed,
		pagesMoments: pagesMoments,
	}

	if len(b.Items) > 0 {
		build.table = bins.NewCompressionTable(b)
		build.ansTable, err = entropy.NewTable(b.Weights(), cfg.AnsSizeLog)
		if err != nil {
			return latentVarBuild{}, err
		}
	}

	return build, nil
}

// chooseGCDCandidate looks for a common divisor across post-delta values so
// bins.Optimize can shrink offset_bits accordingly (spec §4.4 step 3); it is
// deliberately a much cheaper, coarser check than mode.DetectIntMultU64
// (sampling the first few nonzero values' GCD) since this only trims bits,
// it never changes losslessness.
func chooseGCDCandidate(latents []uint64) uint64 {
	var g uint64
	checked := 0
	for _, v := range latents {
		if v == 0 {
			continue
		}
		if g == 0 {
			g = v
		} else {
			g = gcd(g, v)
		}
		checked++
		if checked >= 64 || g == 1 {
			break
		}
	}

	return g
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}

	return a
}

// encodePageBody entropy-codes pageIdx's bin-index symbols and bit-packs
// each value's offset field, per the Bin definition in spec §3 ("offset =
// (x - lower)/gcd is written in offset_bits bits verbatim"). The body layout
// is [4-byte offsets-byte-length][offset bits][ANS body bytes] — a format
// private to this package, since section.Page only ever carries opaque body
// bytes.
func encodePageBody(build latentVarBuild, pageIdx int) ([entropy.Interleaving]uint32, []byte, error) {
	values := build.pagesDeltaed[pageIdx]
	symbols := make([]int, len(values))

	// Size the offsets writer for the worst case (every value needing the
	// widest bin's full offset field) up front, avoiding incremental regrowth
	// on the hot path.
	hintBytes := (len(values)*int(build.meta.Bins.MaxOffsetBits()) + 7) / 8
	offsetsW := bitio.NewWriterSize(hintBytes)
	for i, v := range values {
		idx, bin, err := build.table.Lookup(v)
		if err != nil {
			return [entropy.Interleaving]uint32{}, nil, err
		}
		symbols[i] = idx

		if bin.OffsetBits > 0 {
			gcd := bin.GCD
			if gcd < 1 {
				gcd = 1
			}
			offset := (v - bin.Lower) / gcd
			if err := offsetsW.WriteBits(offset, bin.OffsetBits); err != nil {
				return [entropy.Interleaving]uint32{}, nil, err
			}
		}
	}
	offsetsBytes := offsetsW.Finish()
	offsetsW.Release()

	enc := entropy.NewEncoder(build.ansTable)
	enc.Encode(symbols)
	states, ansBytes := enc.Finish()

	out := make([]byte, 0, 4+len(offsetsBytes)+len(ansBytes))
	out = pageBodyEngine.AppendUint32(out, uint32(len(offsetsBytes)))
	out = append(out, offsetsBytes...)
	out = append(out, ansBytes...)

	return states, out, nil
}

// EncodeChunk serializes the compressor's metadata and pages via the
// section framer.
func (cc *ChunkCompressor[T, L]) EncodeChunk() []byte {
	return section.EncodeChunk(cc.meta, cc.pages)
}

// NumEntries reports how many numbers this chunk holds.
func (cc *ChunkCompressor[T, L]) NumEntries() int { return cc.numEntries }

// Dtype reports the dtype byte this chunk's numbers were compressed under.
func (cc *ChunkCompressor[T, L]) Dtype() latent.Dtype { return cc.trait.DtypeByte }
