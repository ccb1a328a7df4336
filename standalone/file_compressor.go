package standalone

import (
	"github.com/arlobytes/pco/latent"
)

// FileCompressor accumulates chunks into a single standalone byte stream,
// per spec §4.7's "FileCompressor::new() -> chunk_compressor(nums, &config)
// -> write_chunk(dst) -> write_footer(dst)".
type FileCompressor struct {
	buf []byte
}

// NewFileCompressor starts a new file, writing the magic bytes and current
// format version.
func NewFileCompressor() *FileCompressor {
	fc := &FileCompressor{}
	fc.buf = append(fc.buf, MagicCurrent[:]...)
	fc.buf = append(fc.buf, FormatVersionCurrent)

	return fc
}

// WriteChunk appends one chunk's dtype byte, entry count, and encoded
// chunk record (metadata + pages) to the file, per spec §6's per-chunk
// layout: {dtype_byte, n_entries(24 bits LE), chunk_meta, pages}.
func WriteChunk[T any, L latent.Latent](fc *FileCompressor, trait latent.Trait[T, L], xs []T, cfg ChunkConfig) error {
	cc, err := NewChunkCompressor(trait, xs, cfg)
	if err != nil {
		return err
	}

	fc.buf = append(fc.buf, byte(trait.DtypeByte))
	fc.buf = appendUint24LE(fc.buf, cc.NumEntries())
	fc.buf = append(fc.buf, cc.EncodeChunk()...)

	return nil
}

// WriteFooter appends the termination byte (dtype_byte == 0) marking
// end-of-chunks, per spec §6.
func (fc *FileCompressor) WriteFooter() {
	fc.buf = append(fc.buf, terminationByte)
}

// Bytes returns the file's accumulated bytes so far. Safe to call before
// WriteFooter for streaming producers that flush incrementally; the
// result only becomes a complete, valid standalone file once WriteFooter
// has been called.
func (fc *FileCompressor) Bytes() []byte {
	return fc.buf
}

func appendUint24LE(dst []byte, n int) []byte {
	return append(dst, byte(n), byte(n>>8), byte(n>>16))
}
