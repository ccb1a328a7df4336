package standalone

import (
	"github.com/arlobytes/pco/errs"
	"github.com/arlobytes/pco/latent"
	"github.com/arlobytes/pco/progress"
	"github.com/arlobytes/pco/section"
)

// FileDecompressor parses a standalone file's header and hands out
// per-chunk decompressors, per spec §4.7's "FileDecompressor::new(bytes) ->
// (Self, rest)".
type FileDecompressor struct {
	// Version is the format version this file was written at, exposed for
	// diagnostics. Decoding does not consult it: chunks of every accepted
	// version, including legacy-Huffman version 1, are decoded with ANS.
	Version byte
}

// NewFileDecompressor parses the 5-byte file header (4-byte magic, 1-byte
// version) from the start of data. Either MagicCurrent or MagicLegacy is
// accepted, per spec §6's backward-compatibility requirement that readers
// still recognize the legacy magic. A version outside
// [minSupportedVersion, maxSupportedVersion] is a CompatibilityError, not a
// Corruption, since the bytes themselves may be perfectly well-formed for
// a version this build doesn't know how to read.
func NewFileDecompressor(data []byte) (*FileDecompressor, []byte, error) {
	const headerLen = 4 + 1
	if len(data) < headerLen {
		return nil, nil, errs.Insufficient(errs.ErrShortBuffer)
	}

	var magic [4]byte
	copy(magic[:], data[:4])
	if magic != MagicCurrent && magic != MagicLegacy {
		return nil, nil, errs.Corrupt(errs.ErrInvalidMagic)
	}

	version := data[4]
	if version < minSupportedVersion || version > maxSupportedVersion {
		return nil, nil, errs.Incompatible(errs.ErrUnsupportedVersion)
	}

	return &FileDecompressor{Version: version}, data[headerLen:], nil
}

// PeekDtypeOrTermination classifies the next chunk-header byte without
// consuming anything, mirroring spec §4.7's
// "peek_dtype_or_termination(rest)". Callers stop reading chunks once
// Termination is reported.
func PeekDtypeOrTermination(data []byte) (DtypeClass, latent.Dtype, error) {
	if len(data) < 1 {
		return Termination, 0, errs.Insufficient(errs.ErrShortBuffer)
	}

	class, dt := ClassifyDtype(data[0])

	return class, dt, nil
}

// PeekChunkHeader reads the fixed dtype+entry-count preamble at the start
// of data (spec §6's {dtype_byte, n_entries(24 bits)}), returning the
// parsed dtype, entry count, and the tail starting at chunk_meta. data must
// not start with the termination byte; check PeekDtypeOrTermination first.
func PeekChunkHeader(data []byte) (dtype latent.Dtype, nEntries int, rest []byte, err error) {
	if len(data) < dtypeHeaderLen {
		return 0, 0, nil, errs.Insufficient(errs.ErrShortBuffer)
	}

	class, dt := ClassifyDtype(data[0])
	if class == Termination {
		return 0, 0, nil, errs.Invalid(errs.ErrInvalidDtype)
	}

	n := int(data[1]) | int(data[2])<<8 | int(data[3])<<16

	return dt, n, data[dtypeHeaderLen:], nil
}

// OpenChunkDecompressor peeks one chunk's metadata (without touching any
// page body, per spec §5's atomicity invariant) and returns a
// ChunkDecompressor ready to decode its pages, the total page-body byte
// count, and the tail starting at the first page record. Callers mismatch
// trait.DtypeByte against the dtype PeekChunkHeader reported before calling
// this, since the generic instantiation must agree with the on-disk dtype
// byte.
func OpenChunkDecompressor[T any, L latent.Latent](trait latent.Trait[T, L], data []byte) (*ChunkDecompressor[T, L], int, []byte, error) {
	meta, totalBodyBytes, rest, err := section.PeekChunkMeta(data)
	if err != nil {
		return nil, 0, nil, err
	}

	return NewChunkDecompressor(trait, meta), totalBodyBytes, rest, nil
}

// DecompressRemainingExtend decodes every page within the first
// totalBodyBytes of data and appends the reconstructed values to out,
// mirroring spec §4.7's "decompress_remaining_extend(rest, &mut Vec<T>)".
// It returns the extended slice, the accumulated Progress for this call
// (NumProcessed summed across every page decoded, FinishedPage true once
// any page completed, InsufficientData true when the call stopped only
// because data held fewer than totalBodyBytes and the caller should retry
// with more bytes appended to the same tail), and the tail starting at the
// next chunk's dtype byte (or the termination byte).
func DecompressRemainingExtend[T any, L latent.Latent](cd *ChunkDecompressor[T, L], meta section.ChunkMeta, totalBodyBytes int, data []byte, out []T) ([]T, progress.Progress, []byte, error) {
	pages, rest, err := section.DecodeChunkPages(data, meta, totalBodyBytes)
	if err != nil {
		return nil, progress.Progress{InsufficientData: errs.IsInsufficientData(err)}, nil, err
	}

	var prog progress.Progress
	for _, p := range pages {
		vs, pageProg, err := cd.DecompressPage(p)
		if err != nil {
			return nil, prog, nil, err
		}
		out = append(out, vs...)
		prog.Add(pageProg)
	}

	return out, prog, rest, nil
}

// ReadChunk is the common-case convenience wrapping PeekChunkHeader,
// OpenChunkDecompressor, and DecompressRemainingExtend into one call:
// decode one whole chunk's values and return the tail starting at the next
// chunk (or the termination byte). It returns errs.ErrDtypeMismatch if the
// chunk's on-disk dtype byte doesn't match trait.
func ReadChunk[T any, L latent.Latent](trait latent.Trait[T, L], data []byte) (values []T, rest []byte, err error) {
	dt, nEntries, afterHeader, err := PeekChunkHeader(data)
	if err != nil {
		return nil, nil, err
	}
	if dt != trait.DtypeByte {
		return nil, nil, errs.Invalid(errs.ErrDtypeMismatch)
	}

	cd, totalBodyBytes, afterMeta, err := OpenChunkDecompressor(trait, afterHeader)
	if err != nil {
		return nil, nil, err
	}

	values, _, rest, err = DecompressRemainingExtend(cd, cd.meta, totalBodyBytes, afterMeta, make([]T, 0, nEntries))
	if err != nil {
		return nil, nil, err
	}

	return values, rest, nil
}
