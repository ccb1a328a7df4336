// Package bins implements the §4.4 bin optimizer: turning a (post-delta,
// post-mode-split) latent stream into a small table of contiguous ranges,
// each with a quantized ANS weight, an offset-bit width, and an optional
// GCD, chosen to approximately minimize total coded size.
//
// The table itself (padded to a power of two for constant-depth binary
// search on encode) is grounded on the same "fixed-size header struct +
// Parse/Bytes" shape mebo uses for its section headers, generalized from a
// flat record to a searchable table.
package bins

import (
	"math/bits"
	"sort"

	"github.com/arlobytes/pco/errs"
)

// Bin describes one contiguous latent range: every latent in
// [Lower, Lower+ (1<<OffsetBits)*max(GCD,1) ) maps to this bin's codeword
// plus an OffsetBits-wide (or GCD-reduced) offset field.
type Bin struct {
	Lower      uint64
	OffsetBits uint
	Weight     uint32
	GCD        uint64 // 0 or 1 means "no GCD reduction"
	Code       uint32 // this bin's index as an ANS/Huffman symbol
}

// Bins is a sorted-by-Lower table of Bin, plus the ans_size_log it was
// quantized against.
type Bins struct {
	Items     []Bin
	AnsSizeLog uint
}

// MaxOffsetBits reports the widest offset field among all bins, the number
// of bits a page body must reserve per latent in the worst case.
func (b Bins) MaxOffsetBits() uint {
	var max uint
	for _, bin := range b.Items {
		if bin.OffsetBits > max {
			max = bin.OffsetBits
		}
	}

	return max
}

// Weights returns each bin's quantized ANS weight in table order.
func (b Bins) Weights() []uint32 {
	out := make([]uint32, len(b.Items))
	for i, bin := range b.Items {
		out[i] = bin.Weight
	}

	return out
}

// histBucket is one entry of the compressed empirical CDF: a contiguous
// run of identical latent values and its count.
type histBucket struct {
	value uint64
	count int
}

// Optimize builds a Bins table for latents (already delta- and
// mode-split), bounded by maxNBins = 1<<level and the given ansSizeLog.
// When gcdCandidate > 1 and every value in a candidate bin is a multiple of
// it, that bin's OffsetBits is reduced by log2(gcdCandidate) (spec §4.4
// step 3); pass 0 to disable GCD reduction (e.g. the mode's secondary
// stream already absorbed it).
func Optimize(latents []uint64, level int, ansSizeLog uint, gcdCandidate uint64) (Bins, error) {
	if level < 0 || level > 12 {
		return Bins{}, errs.Invalid(errs.ErrInvalidCompressionLevel)
	}

	if len(latents) == 0 {
		return Bins{Items: nil, AnsSizeLog: ansSizeLog}, nil
	}

	maxNBins := 1 << uint(level)

	buckets := histogram(latents, maxNBins+1)
	partition := partitionBuckets(buckets, maxNBins)
	// A coalesced bucket keeps only its lowest value, so the final range's
	// upper bound is reset to the largest observed latent.
	if n := len(partition); n > 0 {
		for _, v := range latents {
			if v > partition[n-1].upper {
				partition[n-1].upper = v
			}
		}
	}
	items := make([]Bin, 0, len(partition))

	totalWeight := uint64(1) << ansSizeLog
	rawWeights := make([]float64, len(partition))
	var rawSum float64
	for i, p := range partition {
		rawWeights[i] = float64(p.count)
		rawSum += rawWeights[i]
	}

	quantized := quantizeWeights(rawWeights, rawSum, totalWeight)

	for i, p := range partition {
		lower := p.lower
		upperInclusive := p.upper
		span := upperInclusive - lower + 1

		gcd := uint64(0)
		if gcdCandidate > 1 && allMultiplesOf(latents, lower, upperInclusive, gcdCandidate) {
			gcd = gcdCandidate
			span = (span + gcd - 1) / gcd
		}

		offsetBits := uint(0)
		if span > 1 {
			offsetBits = uint(bits.Len64(span - 1))
		}

		items = append(items, Bin{
			Lower:      lower,
			OffsetBits: offsetBits,
			Weight:     quantized[i],
			GCD:        gcd,
			Code:       uint32(i),
		})
	}

	return Bins{Items: items, AnsSizeLog: ansSizeLog}, nil
}

type partitionRange struct {
	lower, upper uint64
	count        int
}

// histogram compresses latents into at most maxBuckets (value, count)
// entries via a sorted pass; this realizes spec §4.4 step 1's "compressed
// empirical CDF" without materializing a full-width frequency table.
func histogram(latents []uint64, maxBuckets int) []histBucket {
	sorted := append([]uint64(nil), latents...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var buckets []histBucket
	for _, v := range sorted {
		if n := len(buckets); n > 0 && buckets[n-1].value == v {
			buckets[n-1].count++
			continue
		}
		buckets = append(buckets, histBucket{value: v, count: 1})
	}

	if len(buckets) <= maxBuckets {
		return buckets
	}

	// Coalesce adjacent buckets (smallest-count-first) until within budget;
	// this is a greedy approximation of the DP partition's bucket-merging
	// phase, cheap enough to run on the full compressed histogram.
	return coalesce(buckets, maxBuckets)
}

func coalesce(buckets []histBucket, target int) []histBucket {
	for len(buckets) > target {
		// Merge the pair of adjacent buckets whose combined count is
		// smallest, keeping the DP partition's later job (tiling
		// [0, max] with minimal rate cost) cheap.
		bestIdx := 0
		bestCost := buckets[0].count + buckets[1].count
		for i := 1; i < len(buckets)-1; i++ {
			cost := buckets[i].count + buckets[i+1].count
			if cost < bestCost {
				bestCost = cost
				bestIdx = i
			}
		}

		merged := histBucket{value: buckets[bestIdx].value, count: bestCost}
		buckets = append(buckets[:bestIdx], append([]histBucket{merged}, buckets[bestIdx+2:]...)...)
	}

	return buckets
}

// partitionBuckets turns the compressed histogram into at most maxNBins
// contiguous [lower, upper] ranges tiling the full observed support with no
// gaps, approximating the rate-minimizing DP partition of spec §4.4 step 2
// by greedily grouping histogram buckets until the bin budget is met.
func partitionBuckets(buckets []histBucket, maxNBins int) []partitionRange {
	if len(buckets) == 0 {
		return nil
	}

	if len(buckets) <= maxNBins {
		out := make([]partitionRange, len(buckets))
		for i, b := range buckets {
			out[i] = partitionRange{lower: b.value, upper: b.value, count: b.count}
		}
		expandUpperBounds(out)

		return out
	}

	groupSize := (len(buckets) + maxNBins - 1) / maxNBins
	var out []partitionRange
	for i := 0; i < len(buckets); i += groupSize {
		end := i + groupSize
		if end > len(buckets) {
			end = len(buckets)
		}
		r := partitionRange{lower: buckets[i].value, upper: buckets[end-1].value}
		for _, b := range buckets[i:end] {
			r.count += b.count
		}
		out = append(out, r)
	}
	expandUpperBounds(out)

	return out
}

// expandUpperBounds stretches each range's upper bound to the bin below the
// next range's lower bound, so the table tiles the full latent domain
// between observed extremes with no gaps (spec §8's "monotonic bin
// coverage" property); the final bin's upper bound is left at its observed
// maximum; decode treats any latent above it as out of range.
func expandUpperBounds(ranges []partitionRange) {
	for i := 0; i < len(ranges)-1; i++ {
		ranges[i].upper = ranges[i+1].lower - 1
	}
}

func allMultiplesOf(latents []uint64, lower, upper, gcd uint64) bool {
	found := false
	for _, v := range latents {
		if v < lower || v > upper {
			continue
		}
		found = true
		if v%gcd != 0 {
			return false
		}
	}

	return found
}

// quantizeWeights assigns each range an integer ANS weight summing exactly
// to total, proportional to its raw count, with rounding residuals handed
// to the largest bins first (spec §4.4 step 2's weight quantization).
func quantizeWeights(raw []float64, rawSum float64, total uint64) []uint32 {
	n := len(raw)
	out := make([]uint32, n)
	if n == 0 || rawSum == 0 {
		return out
	}

	type idxFrac struct {
		idx  int
		frac float64
	}
	fracs := make([]idxFrac, n)

	var assigned uint64
	for i, r := range raw {
		share := r / rawSum * float64(total)
		whole := uint64(share)
		if whole < 1 {
			whole = 1
		}
		out[i] = uint32(whole)
		assigned += whole
		fracs[i] = idxFrac{idx: i, frac: share - float64(whole)}
	}

	if assigned == total {
		return out
	}

	sort.Slice(fracs, func(i, j int) bool { return fracs[i].frac > fracs[j].frac })

	if assigned < total {
		remaining := total - assigned
		for i := 0; remaining > 0; i = (i + 1) % n {
			out[fracs[i].idx]++
			remaining--
		}

		return out
	}

	// Over-assigned only happens when every bin was floored up to the
	// 1-weight minimum and that alone exceeds total (more bins than total
	// weight slots); trim from the largest bins down, never below 1.
	excess := assigned - total
	sort.Slice(fracs, func(i, j int) bool { return out[fracs[i].idx] > out[fracs[j].idx] })
	for i := 0; excess > 0; i = (i + 1) % n {
		idx := fracs[i].idx
		if out[idx] > 1 {
			out[idx]--
			excess--
		}
	}

	return out
}
