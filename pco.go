// Package pco is the top-level convenience API over this module's
// sub-packages: mode selection (mode), delta encoding (delta), bin
// optimization (bins), entropy coding (entropy), the chunk/page framer
// (section), and the standalone file wrapper (standalone). Most callers
// only need the generic Compress/Decompress pair below; standalone remains
// available directly for callers building a file one chunk at a time.
package pco

import (
	"github.com/arlobytes/pco/latent"
	"github.com/arlobytes/pco/standalone"
)

// ChunkConfig and its functional options are re-exported so callers don't
// need to import the standalone package for routine use.
type (
	ChunkConfig = standalone.ChunkConfig
	ChunkOption = standalone.ChunkOption
)

var (
	DefaultChunkConfig   = standalone.DefaultChunkConfig
	NewChunkConfig       = standalone.NewChunkConfig
	WithCompressionLevel = standalone.WithCompressionLevel
	WithDeltaOrder       = standalone.WithDeltaOrder
	WithAnsSizeLog       = standalone.WithAnsSizeLog
	WithPageSize         = standalone.WithPageSize
	WithIntMult          = standalone.WithIntMult
	WithFloatMult        = standalone.WithFloatMult
	WithFloatQuant       = standalone.WithFloatQuant
)

// Compress encodes xs as a single-chunk standalone file: magic bytes,
// format version, one chunk, and the termination byte, per spec §6.
// Callers with multiple chunks to write (e.g. successive batches of a
// stream) should use standalone.NewFileCompressor/WriteChunk directly
// instead, to avoid re-paying the per-file header on every batch.
func Compress[T any, L latent.Latent](trait latent.Trait[T, L], xs []T, cfg ChunkConfig) ([]byte, error) {
	fc := standalone.NewFileCompressor()
	if err := standalone.WriteChunk(fc, trait, xs, cfg); err != nil {
		return nil, err
	}
	fc.WriteFooter()

	return fc.Bytes(), nil
}

// Decompress reads a standalone file produced by Compress (or any
// multi-chunk file written via standalone.FileCompressor) back into a
// flat []T, concatenating every chunk's values in file order. It fails if
// any chunk's on-disk dtype doesn't match trait.
func Decompress[T any, L latent.Latent](trait latent.Trait[T, L], data []byte) ([]T, error) {
	_, rest, err := standalone.NewFileDecompressor(data)
	if err != nil {
		return nil, err
	}

	var out []T
	for {
		class, _, err := standalone.PeekDtypeOrTermination(rest)
		if err != nil {
			return nil, err
		}
		if class == standalone.Termination {
			return out, nil
		}

		var values []T
		values, rest, err = standalone.ReadChunk(trait, rest)
		if err != nil {
			return nil, err
		}
		out = append(out, values...)
	}
}
