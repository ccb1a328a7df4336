// Package section implements the §4.6 chunk/page framer: turning a
// ChunkMeta (mode, delta order, per-latent-variable bin tables) and its
// Pages into bytes, and back, with metadata readable without touching page
// bodies.
//
// The bit-packed portions (ChunkMeta's mode/bins, each Page's delta moments
// and ANS final states) go through internal/bitio the same way mebo's
// section headers go through a fixed Parse([]byte) error / Bytes() []byte
// contract; the outer record framing (lengths so a reader can skip past a
// section without decoding it) is plain byte-aligned fields, since that
// book-keeping isn't part of the bit-packed payload the spec describes.
package section

import (
	"github.com/arlobytes/pco/bins"
	"github.com/arlobytes/pco/internal/bitio"
)

// LatentVarMeta is one latent variable's entropy-coding parameters: its ANS
// table size and bin table. A Classic-mode chunk has exactly one
// (ChunkMeta.Primary); a non-Classic chunk also has ChunkMeta.Secondary.
type LatentVarMeta struct {
	AnsSizeLog uint
	Bins       bins.Bins
	// LatentBits is 32 or 64, the physical width bin Lower/GCD values were
	// drawn from; needed to size those fields on the wire.
	LatentBits int
}

func writeLatentVarMeta(w *bitio.Writer, v LatentVarMeta) error {
	if err := w.WriteBits(uint64(v.AnsSizeLog), 5); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(v.LatentBits), 7); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(len(v.Bins.Items)), 16); err != nil {
		return err
	}

	weightBits := uint(v.AnsSizeLog + 1)
	for _, bin := range v.Bins.Items {
		if err := w.WriteBits(bin.Lower, uint(v.LatentBits)); err != nil {
			return err
		}
		if err := w.WriteBits(uint64(bin.Weight), weightBits); err != nil {
			return err
		}
		if err := w.WriteBits(uint64(bin.OffsetBits), 7); err != nil {
			return err
		}

		hasGCD := uint64(0)
		if bin.GCD > 1 {
			hasGCD = 1
		}
		if err := w.WriteBits(hasGCD, 1); err != nil {
			return err
		}
		if hasGCD == 1 {
			if err := w.WriteBits(bin.GCD, uint(v.LatentBits)); err != nil {
				return err
			}
		}
	}

	return nil
}

func readLatentVarMeta(r *bitio.Reader) (LatentVarMeta, error) {
	ansSizeLog, err := r.ReadBits(5)
	if err != nil {
		return LatentVarMeta{}, err
	}
	latentBits, err := r.ReadBits(7)
	if err != nil {
		return LatentVarMeta{}, err
	}
	nBins, err := r.ReadBits(16)
	if err != nil {
		return LatentVarMeta{}, err
	}

	weightBits := uint(ansSizeLog + 1)
	items := make([]bins.Bin, 0, nBins)
	for i := uint64(0); i < nBins; i++ {
		lower, err := r.ReadBits(uint(latentBits))
		if err != nil {
			return LatentVarMeta{}, err
		}
		weight, err := r.ReadBits(weightBits)
		if err != nil {
			return LatentVarMeta{}, err
		}
		offsetBits, err := r.ReadBits(7)
		if err != nil {
			return LatentVarMeta{}, err
		}
		hasGCD, err := r.ReadBits(1)
		if err != nil {
			return LatentVarMeta{}, err
		}
		var gcd uint64
		if hasGCD == 1 {
			gcd, err = r.ReadBits(uint(latentBits))
			if err != nil {
				return LatentVarMeta{}, err
			}
		}

		items = append(items, bins.Bin{
			Lower:      lower,
			OffsetBits: uint(offsetBits),
			Weight:     uint32(weight),
			GCD:        gcd,
			Code:       uint32(i),
		})
	}

	return LatentVarMeta{
		AnsSizeLog: uint(ansSizeLog),
		LatentBits: int(latentBits),
		Bins:       bins.Bins{Items: items, AnsSizeLog: uint(ansSizeLog)},
	}, nil
}
