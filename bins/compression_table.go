package bins

import (
	"math/bits"

	"github.com/arlobytes/pco/errs"
)

// CompressionTable is the encode-side lookup structure built from a Bins
// table: given a latent value, find which bin it falls in. The table of
// lower bounds is padded to the next power of two (repeating the last
// entry) so the binary search always runs in a fixed number of steps
// regardless of the real bin count, per spec §4.4's "binary search table
// padded to a power of two for constant-depth lookup on encode" and
// grounded on the original source's compression_table.rs.
type CompressionTable struct {
	lowers []uint64 // padded, length is a power of two
	real   int       // number of real (unpadded) entries
	bins   []Bin     // unpadded, parallel to the first `real` lowers
}

// NewCompressionTable builds a CompressionTable from an already-sorted Bins
// table (Optimize's output is sorted by construction).
func NewCompressionTable(b Bins) CompressionTable {
	n := len(b.Items)
	if n == 0 {
		return CompressionTable{}
	}

	padded := 1
	for padded < n {
		padded <<= 1
	}

	lowers := make([]uint64, padded)
	for i := 0; i < n; i++ {
		lowers[i] = b.Items[i].Lower
	}
	for i := n; i < padded; i++ {
		lowers[i] = b.Items[n-1].Lower
	}

	return CompressionTable{lowers: lowers, real: n, bins: b.Items}
}

// Lookup finds the bin containing latent via binary search over the padded
// lower-bound table, returning its index into the original Bins.Items and
// the Bin itself. An error means latent falls outside every bin's range
// (spec §8's "latents outside bin ranges are a corruption signal on
// decode"; on encode this instead signals a caller bug, since every latent
// handed to a CompressionTable should have come from the same sample the
// table was built against).
func (t CompressionTable) Lookup(latent uint64) (int, Bin, error) {
	if t.real == 0 {
		return 0, Bin{}, errs.Corrupt(errs.ErrLatentOutOfRange)
	}

	// Largest index i such that lowers[i] <= latent, via the standard
	// power-of-two "descend by halves" binary search.
	idx := 0
	step := len(t.lowers)
	for step > 1 {
		step >>= 1
		if idx+step < len(t.lowers) && t.lowers[idx+step] <= latent {
			idx += step
		}
	}

	if idx >= t.real {
		idx = t.real - 1
	}

	bin := t.bins[idx]
	width := binWidth(t.bins, idx, t.real)
	if latent < bin.Lower || (width > 0 && latent-bin.Lower >= width) {
		return 0, Bin{}, errs.Corrupt(errs.ErrLatentOutOfRange)
	}

	return idx, bin, nil
}

// binWidth returns how many latent values bin idx covers, computed from
// the gap to the next bin's lower bound (or, for the last bin, from its own
// offset_bits/gcd).
func binWidth(items []Bin, idx, real int) uint64 {
	bin := items[idx]
	gcd := bin.GCD
	if gcd < 1 {
		gcd = 1
	}
	ownSpan := (uint64(1) << bin.OffsetBits) * gcd

	if idx+1 < real {
		gapSpan := items[idx+1].Lower - bin.Lower
		if gapSpan < ownSpan || ownSpan == 0 {
			return gapSpan
		}
	}

	return ownSpan
}

// ReconstructLatent inverts the bin split: given a bin and the decoded
// offset within it, recovers the original latent value.
func ReconstructLatent(bin Bin, offset uint64) uint64 {
	gcd := bin.GCD
	if gcd < 1 {
		gcd = 1
	}

	return bin.Lower + offset*gcd
}

// log2Ceil returns ceil(log2(x)), or 0 for x <= 1. Nothing in this package
// currently calls it.
func log2Ceil(x uint64) uint {
	if x <= 1 {
		return 0
	}

	return uint(bits.Len64(x - 1))
}
