// Package standalone implements the §4.7/§6 file-layer wrapper: magic bytes,
// format version, and a sequence of {dtype_byte, chunk_meta, pages…} records
// terminated by a zero dtype byte, built on top of the section package's
// chunk/page framer.
package standalone

import (
	"github.com/arlobytes/pco/errs"
	"github.com/arlobytes/pco/internal/options"
	"github.com/arlobytes/pco/mode"
)

// defaultPageSize is the soft max numbers per page (spec §6's
// "EqualPagesUpTo(n)"), matching the value named in the spec's paging_spec
// example.
const defaultPageSize = 262_144

// ChunkConfig controls how ChunkCompressor splits, delta-encodes, and bins
// one chunk's numbers. Built via ChunkOption functional options, grounded on
// internal/options' generic Option[T]/Apply machinery exactly as
// blob.NewNumericEncoderConfig builds blob.NumericEncoderConfig.
type ChunkConfig struct {
	// CompressionLevel caps max_n_bins = 1<<level and bounds search effort.
	CompressionLevel int
	// DeltaOrder, if non-nil, forces a specific order (0..7); nil means
	// auto-detect via delta.EstimateOrder.
	DeltaOrder *int
	// AnsSizeLog sizes the entropy coder's scale (spec §4.5's ans_size_log).
	AnsSizeLog uint
	// PageSizeHint is the soft max numbers per page.
	PageSizeHint int

	IntMult    mode.Spec
	FloatMult  mode.Spec
	FloatQuant mode.Spec
}

// ChunkOption configures a ChunkConfig being built by NewChunkConfig.
type ChunkOption = options.Option[*ChunkConfig]

// DefaultChunkConfig returns the spec's documented defaults: compression
// level 8, ans_size_log 14, page size 262,144, every non-Classic mode off.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		CompressionLevel: 8,
		AnsSizeLog:       14,
		PageSizeHint:     defaultPageSize,
	}
}

// NewChunkConfig builds a ChunkConfig from DefaultChunkConfig plus opts,
// applied in order.
func NewChunkConfig(opts ...ChunkOption) (ChunkConfig, error) {
	cfg := DefaultChunkConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return ChunkConfig{}, err
	}

	return cfg, nil
}

// WithCompressionLevel sets CompressionLevel, validated against spec §6's
// 0..=12 range.
func WithCompressionLevel(level int) ChunkOption {
	return options.New(func(c *ChunkConfig) error {
		if level < 0 || level > 12 {
			return errs.Invalid(errs.ErrInvalidCompressionLevel)
		}
		c.CompressionLevel = level

		return nil
	})
}

// WithDeltaOrder forces a fixed delta order instead of auto-detection.
func WithDeltaOrder(order int) ChunkOption {
	return options.New(func(c *ChunkConfig) error {
		if order < 0 || order > 7 {
			return errs.Invalid(errs.ErrInvalidDeltaOrder)
		}
		c.DeltaOrder = &order

		return nil
	})
}

// WithAnsSizeLog sets the entropy coder's table-size log.
func WithAnsSizeLog(log uint) ChunkOption {
	return options.New(func(c *ChunkConfig) error {
		if log == 0 || log > 16 {
			return errs.Invalid(errs.ErrInvalidAnsSizeLog)
		}
		c.AnsSizeLog = log

		return nil
	})
}

// WithPageSize sets the soft max numbers per page.
func WithPageSize(n int) ChunkOption {
	return options.NoError(func(c *ChunkConfig) { c.PageSizeHint = n })
}

// WithIntMult enables or fixes the IntMult mode detector/spec.
func WithIntMult(spec mode.Spec) ChunkOption {
	return options.NoError(func(c *ChunkConfig) { c.IntMult = spec })
}

// WithFloatMult enables or fixes the FloatMult mode detector/spec.
func WithFloatMult(spec mode.Spec) ChunkOption {
	return options.NoError(func(c *ChunkConfig) { c.FloatMult = spec })
}

// WithFloatQuant enables or fixes the FloatQuant mode detector/spec.
func WithFloatQuant(spec mode.Spec) ChunkOption {
	return options.NoError(func(c *ChunkConfig) { c.FloatQuant = spec })
}

// Legacy Huffman (format version <= 1, see entropy.HuffmanTable) is
// implemented as a standalone entropy subsection exercised directly by its
// own tests, per spec §9's "multiple format versions coexist" — but the
// write path here always emits the current (version 2) ANS-coded format;
// see DESIGN.md.
