package section

import (
	"encoding/binary"

	"github.com/arlobytes/pco/errs"
	"github.com/arlobytes/pco/internal/fingerprint"
)

// chunkHeaderLen is the fixed-size preamble before the bit-packed
// ChunkMeta blob: an 8-byte metadata fingerprint (corruption detection,
// see internal/fingerprint) and a 4-byte total page-body byte count, so a
// reader can skip straight to the next chunk without decoding pages.
const chunkHeaderLen = 8 + 4

// EncodeChunk serializes meta and pages into one self-contained chunk
// record: fingerprint + body-byte-count preamble, the bit-packed
// ChunkMeta, then every page record concatenated.
func EncodeChunk(meta ChunkMeta, pages []Page) []byte {
	metaBlob := EncodeChunkMeta(meta)
	fp := fingerprint.Of(metaBlob)

	var pagesBlob []byte
	for _, p := range pages {
		pagesBlob = append(pagesBlob, EncodePage(p, meta.DeltaOrder)...)
	}

	out := make([]byte, chunkHeaderLen+len(metaBlob)+len(pagesBlob))
	binary.LittleEndian.PutUint64(out, fp)
	binary.LittleEndian.PutUint32(out[8:], uint32(len(pagesBlob)))
	n := copy(out[chunkHeaderLen:], metaBlob)
	copy(out[chunkHeaderLen+n:], pagesBlob)

	return out
}

// PeekChunkMeta reads and fully decodes the ChunkMeta at the start of data
// without touching any page body, returning the decoded meta, the total
// byte count of the pages that follow it (so the caller may Consume past
// them to reach the next chunk), and the unconsumed tail starting at the
// first page record.
//
// Per spec §5's atomicity invariant, a failed call (InsufficientData)
// leaves data untouched: this function is pure over its input, same as
// DecodeChunkMeta.
func PeekChunkMeta(data []byte) (meta ChunkMeta, totalBodyBytes int, rest []byte, err error) {
	if len(data) < chunkHeaderLen {
		return ChunkMeta{}, 0, nil, errs.Insufficient(errs.ErrShortBuffer)
	}

	wantFP := binary.LittleEndian.Uint64(data)
	totalBodyBytes = int(binary.LittleEndian.Uint32(data[8:]))

	metaRegion := data[chunkHeaderLen:]
	meta, after, err := DecodeChunkMeta(metaRegion)
	if err != nil {
		return ChunkMeta{}, 0, nil, err
	}

	metaBlobLen := len(metaRegion) - len(after)
	if !fingerprint.Verify(metaRegion[:metaBlobLen], wantFP) {
		return ChunkMeta{}, 0, nil, errs.Corrupt(errs.ErrFingerprintMismatch)
	}

	return meta, totalBodyBytes, after, nil
}

// DecodeChunkPages parses every page record within the first
// totalBodyBytes of data (as reported by PeekChunkMeta) against meta,
// returning the decoded pages and the tail starting at the next chunk.
func DecodeChunkPages(data []byte, meta ChunkMeta, totalBodyBytes int) ([]Page, []byte, error) {
	if len(data) < totalBodyBytes {
		return nil, nil, errs.Insufficient(errs.ErrShortBuffer)
	}

	region := data[:totalBodyBytes]
	var pages []Page
	for len(region) > 0 {
		p, next, err := DecodePage(region, meta.DeltaOrder)
		if err != nil {
			return nil, nil, err
		}
		pages = append(pages, p)
		region = next
	}

	return pages, data[totalBodyBytes:], nil
}
