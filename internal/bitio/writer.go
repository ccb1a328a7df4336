// Package bitio provides the word-granular bit writer and buffered bit
// reader that every higher-level component (latent splitting, delta offset
// bits, bin codes, ANS/Huffman streams, chunk framing) packs its payload
// through.
//
// Bit order within a byte is LSB-first: the first bit written to a fresh
// byte lands in that byte's bit 0. This mirrors how mebo's gorilla encoder
// accumulates a uint64 bit buffer and flushes it to a pooled byte buffer,
// generalized from a fixed MSB-first XOR stream to an arbitrary n<=64 write
// in either direction.
package bitio

import (
	"github.com/arlobytes/pco/errs"
	"github.com/arlobytes/pco/internal/pool"
)

// Writer accumulates bits LSB-first into a pooled byte buffer.
//
// Hot path fields are grouped first for cache locality, same layout
// rationale as mebo's NumericGorillaEncoder.
type Writer struct {
	bitBuf   uint64 // pending bits, low bitCount bits are valid
	bitCount uint   // number of valid bits currently in bitBuf (0..63 between flushes)

	buf *pool.ByteBuffer
}

// NewWriter returns a Writer backed by a page buffer obtained from the pool.
// Call Finish (or Release) to return that buffer when done.
func NewWriter() *Writer {
	return &Writer{buf: pool.GetPageBuffer()}
}

// NewWriterSize is like NewWriter but with an explicit starting capacity
// hint, for callers that have a decent estimate of the encoded size.
func NewWriterSize(sizeHint int) *Writer {
	w := &Writer{buf: pool.GetPageBuffer()}
	w.buf.Grow(sizeHint)
	return w
}

// WriteBits writes the low n bits of value, n in [0, 64]. Bits are emitted
// LSB-first: bit 0 of value becomes the next bit in the stream.
func (w *Writer) WriteBits(value uint64, n uint) error {
	if n == 0 {
		return nil
	}
	if n > 64 {
		return errs.Invalid(errs.ErrShortWrite)
	}

	if n < 64 {
		value &= (uint64(1) << n) - 1
	}

	available := 64 - w.bitCount
	if n <= available {
		w.bitBuf |= value << w.bitCount
		w.bitCount += n
		if w.bitCount == 64 {
			w.flush()
		}

		return nil
	}

	// Split across the word boundary: low `available` bits finish this
	// word, the remaining high bits start the next one.
	w.bitBuf |= value << w.bitCount
	w.flush()

	rem := n - available
	w.bitBuf = value >> available
	w.bitCount = rem

	return nil
}

// flush drains a full 64-bit word to the byte buffer, little-endian (LSB of
// bitBuf becomes the first output byte, matching on-disk little-endian
// latents per the container format).
func (w *Writer) flush() {
	start := w.buf.Len()
	w.buf.ExtendOrGrow(8)
	bs := w.buf.Slice(start, start+8)
	for i := range 8 {
		bs[i] = byte(w.bitBuf >> (8 * i))
	}

	w.bitBuf = 0
	w.bitCount = 0
}

// Finish pads the final partial byte with zero bits and returns the
// complete byte slice. The writer must not be used afterward except via
// Reset.
func (w *Writer) Finish() []byte {
	if w.bitCount > 0 {
		nBytes := int(w.bitCount+7) / 8
		start := w.buf.Len()
		w.buf.ExtendOrGrow(nBytes)
		bs := w.buf.Slice(start, start+nBytes)
		for i := range nBytes {
			bs[i] = byte(w.bitBuf >> (8 * i))
		}
		w.bitBuf = 0
		w.bitCount = 0
	}

	return w.buf.Bytes()
}

// Reset clears the writer so its buffer can be reused for another page.
func (w *Writer) Reset() {
	w.buf.Reset()
	w.bitBuf = 0
	w.bitCount = 0
}

// Release returns the writer's backing buffer to the pool. Call this once
// the caller has copied or no longer needs the bytes from Finish.
func (w *Writer) Release() {
	pool.PutPageBuffer(w.buf)
	w.buf = nil
}
