package section

import (
	"encoding/binary"

	"github.com/arlobytes/pco/entropy"
	"github.com/arlobytes/pco/errs"
	"github.com/arlobytes/pco/internal/bitio"
)

// Page is one chunk page: per-latent-variable delta moments and ANS final
// states, plus each variable's entropy-coded body bytes. NumEntries is how
// many numbers this page holds (spec §4.6's "page count and compressed
// page sizes").
type Page struct {
	NumEntries int

	PrimaryMoments []uint64
	PrimaryStates  [entropy.Interleaving]uint32
	PrimaryBody    []byte

	HasSecondary     bool
	SecondaryMoments []uint64
	SecondaryStates  [entropy.Interleaving]uint32
	SecondaryBody    []byte
}

// EncodePage serializes p as a length-prefixed record: a 4-byte total
// length, then a bit-packed header (moments, ANS states, body byte
// lengths) immediately followed by the raw entropy-coded body bytes
// (already byte-aligned, so they are appended directly rather than run
// back through the bit writer).
func EncodePage(p Page, deltaOrder int) []byte {
	w := bitio.NewWriter()

	_ = w.WriteBits(uint64(p.NumEntries), 32)

	writeMoments(w, p.PrimaryMoments, deltaOrder)
	for _, s := range p.PrimaryStates {
		_ = w.WriteBits(uint64(s), 32)
	}
	_ = w.WriteBits(uint64(len(p.PrimaryBody)), 32)

	hasSecondary := uint64(0)
	if p.HasSecondary {
		hasSecondary = 1
	}
	_ = w.WriteBits(hasSecondary, 1)
	if p.HasSecondary {
		writeMoments(w, p.SecondaryMoments, deltaOrder)
		for _, s := range p.SecondaryStates {
			_ = w.WriteBits(uint64(s), 32)
		}
		_ = w.WriteBits(uint64(len(p.SecondaryBody)), 32)
	}

	header := w.Finish()
	w.Release()

	total := len(header) + len(p.PrimaryBody) + len(p.SecondaryBody)
	out := make([]byte, 4+total)
	binary.LittleEndian.PutUint32(out, uint32(total))
	n := copy(out[4:], header)
	n += copy(out[4+n:], p.PrimaryBody)
	copy(out[4+n:], p.SecondaryBody)

	return out
}

func writeMoments(w *bitio.Writer, moments []uint64, order int) {
	for i := 0; i < order; i++ {
		var m uint64
		if i < len(moments) {
			m = moments[i]
		}
		_ = w.WriteBits(m, 64)
	}
}

func readMoments(r *bitio.Reader, order int) ([]uint64, error) {
	if order == 0 {
		return nil, nil
	}

	out := make([]uint64, order)
	for i := range out {
		v, err := r.ReadBits(64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}

	return out, nil
}

// DecodePage parses one EncodePage record from the start of data, returning
// the decoded Page and the unconsumed tail.
func DecodePage(data []byte, deltaOrder int) (Page, []byte, error) {
	if len(data) < 4 {
		return Page{}, nil, errs.Insufficient(errs.ErrShortBuffer)
	}

	total := int(binary.LittleEndian.Uint32(data))
	if len(data) < 4+total {
		return Page{}, nil, errs.Insufficient(errs.ErrShortBuffer)
	}

	record := data[4 : 4+total]
	r := bitio.NewSliceReader(record)

	numEntries, err := r.ReadBits(32)
	if err != nil {
		return Page{}, nil, errs.Corrupt(errs.ErrShortBuffer)
	}

	p := Page{NumEntries: int(numEntries)}

	p.PrimaryMoments, err = readMoments(r, deltaOrder)
	if err != nil {
		return Page{}, nil, errs.Corrupt(errs.ErrShortBuffer)
	}
	for i := range p.PrimaryStates {
		s, err := r.ReadBits(32)
		if err != nil {
			return Page{}, nil, errs.Corrupt(errs.ErrAnsStateOutOfRange)
		}
		p.PrimaryStates[i] = uint32(s)
	}
	primaryBodyLen, err := r.ReadBits(32)
	if err != nil {
		return Page{}, nil, errs.Corrupt(errs.ErrShortBuffer)
	}

	hasSecondary, err := r.ReadBits(1)
	if err != nil {
		return Page{}, nil, errs.Corrupt(errs.ErrShortBuffer)
	}
	p.HasSecondary = hasSecondary == 1

	var secondaryBodyLen uint64
	if p.HasSecondary {
		p.SecondaryMoments, err = readMoments(r, deltaOrder)
		if err != nil {
			return Page{}, nil, errs.Corrupt(errs.ErrShortBuffer)
		}
		for i := range p.SecondaryStates {
			s, err := r.ReadBits(32)
			if err != nil {
				return Page{}, nil, errs.Corrupt(errs.ErrAnsStateOutOfRange)
			}
			p.SecondaryStates[i] = uint32(s)
		}
		secondaryBodyLen, err = r.ReadBits(32)
		if err != nil {
			return Page{}, nil, errs.Corrupt(errs.ErrShortBuffer)
		}
	}

	// The header bit-writer pads to a byte boundary; bodies start at the
	// next byte after however many the header actually consumed.
	headerBytes := (int(r.BitsConsumed()) + 7) / 8
	bodyStart := headerBytes
	if bodyStart+int(primaryBodyLen)+int(secondaryBodyLen) > len(record) {
		return Page{}, nil, errs.Corrupt(errs.ErrShortBuffer)
	}

	p.PrimaryBody = record[bodyStart : bodyStart+int(primaryBodyLen)]
	bodyStart += int(primaryBodyLen)
	if p.HasSecondary {
		p.SecondaryBody = record[bodyStart : bodyStart+int(secondaryBodyLen)]
	}

	return p, data[4+total:], nil
}
