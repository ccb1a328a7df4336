package section

import (
	"encoding/binary"
	"math"

	"github.com/arlobytes/pco/errs"
	"github.com/arlobytes/pco/internal/bitio"
	"github.com/arlobytes/pco/mode"
)

// ChunkMeta is everything needed to decode a chunk's pages: the mode that
// was used to split numbers into latents, the delta order applied to each
// latent stream, and one (Classic) or two (non-Classic) LatentVarMeta bin
// tables.
type ChunkMeta struct {
	Mode          mode.Mode
	IntMultBase   uint64
	FloatMultBase float64
	FloatQuantK   uint
	DeltaOrder    int

	Primary   LatentVarMeta
	Secondary *LatentVarMeta // nil for ModeClassic
}

// EncodeChunkMeta serializes meta as a self-contained, length-prefixed
// blob: a 4-byte length, then that many bit-packed bytes. The length prefix
// lets PeekChunkMeta find the end of the metadata without decoding its
// contents.
func EncodeChunkMeta(meta ChunkMeta) []byte {
	w := bitio.NewWriter()

	_ = w.WriteBits(uint64(meta.Mode), 2)
	switch meta.Mode {
	case mode.ModeIntMult:
		_ = w.WriteBits(meta.IntMultBase, 64)
	case mode.ModeFloatMult:
		_ = w.WriteBits(math.Float64bits(meta.FloatMultBase), 64)
	case mode.ModeFloatQuant:
		_ = w.WriteBits(uint64(meta.FloatQuantK), 8)
	}

	_ = w.WriteBits(uint64(meta.DeltaOrder), 3)

	_ = writeLatentVarMeta(w, meta.Primary)

	hasSecondary := uint64(0)
	if meta.Secondary != nil {
		hasSecondary = 1
	}
	_ = w.WriteBits(hasSecondary, 1)
	if meta.Secondary != nil {
		_ = writeLatentVarMeta(w, *meta.Secondary)
	}

	payload := w.Finish()
	w.Release()

	out := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(out, uint32(len(payload)))
	copy(out[4:], payload)

	return out
}

// DecodeChunkMeta parses a blob produced by EncodeChunkMeta from the start
// of data, returning the decoded ChunkMeta and the unconsumed tail. If
// fewer bytes than the declared length are present, it returns an
// errs.Insufficient error and data is untouched (no caller-visible cursor
// to roll back: this function is pure over its input slice).
func DecodeChunkMeta(data []byte) (ChunkMeta, []byte, error) {
	if len(data) < 4 {
		return ChunkMeta{}, nil, errs.Insufficient(errs.ErrShortBuffer)
	}

	payloadLen := int(binary.LittleEndian.Uint32(data))
	if len(data) < 4+payloadLen {
		return ChunkMeta{}, nil, errs.Insufficient(errs.ErrShortBuffer)
	}

	payload := data[4 : 4+payloadLen]
	r := bitio.NewSliceReader(payload)

	modeBits, err := r.ReadBits(2)
	if err != nil {
		return ChunkMeta{}, nil, errs.Corrupt(errs.ErrInvalidMode)
	}
	m := mode.Mode(modeBits)

	meta := ChunkMeta{Mode: m}
	switch m {
	case mode.ModeIntMult:
		base, err := r.ReadBits(64)
		if err != nil {
			return ChunkMeta{}, nil, errs.Corrupt(errs.ErrInvalidModeSpec)
		}
		meta.IntMultBase = base
	case mode.ModeFloatMult:
		bits, err := r.ReadBits(64)
		if err != nil {
			return ChunkMeta{}, nil, errs.Corrupt(errs.ErrInvalidModeSpec)
		}
		meta.FloatMultBase = math.Float64frombits(bits)
	case mode.ModeFloatQuant:
		k, err := r.ReadBits(8)
		if err != nil {
			return ChunkMeta{}, nil, errs.Corrupt(errs.ErrInvalidModeSpec)
		}
		meta.FloatQuantK = uint(k)
	case mode.ModeClassic:
	default:
		return ChunkMeta{}, nil, errs.Corrupt(errs.ErrInvalidMode)
	}

	deltaOrder, err := r.ReadBits(3)
	if err != nil {
		return ChunkMeta{}, nil, errs.Corrupt(errs.ErrInvalidDeltaOrder)
	}
	meta.DeltaOrder = int(deltaOrder)

	primary, err := readLatentVarMeta(r)
	if err != nil {
		return ChunkMeta{}, nil, errs.Corrupt(errs.ErrBinRangeOverlap)
	}
	meta.Primary = primary

	hasSecondary, err := r.ReadBits(1)
	if err != nil {
		return ChunkMeta{}, nil, errs.Corrupt(errs.ErrInvalidMode)
	}
	if hasSecondary == 1 {
		secondary, err := readLatentVarMeta(r)
		if err != nil {
			return ChunkMeta{}, nil, errs.Corrupt(errs.ErrBinRangeOverlap)
		}
		meta.Secondary = &secondary
	}

	return meta, data[4+payloadLen:], nil
}
