package standalone

import "github.com/arlobytes/pco/latent"

// DtypeClass tri-states the next chunk-header byte, per
// original_source/pco/src/standalone/dtype_or_termination.rs: a
// forward-compatible reader can skip a chunk of a dtype it doesn't
// recognize instead of erroring outright (recorded as an Open Question
// resolution in DESIGN.md, since spec.md itself only says "dtype_byte == 0
// marks end-of-file" and is silent on unknown nonzero bytes).
type DtypeClass uint8

const (
	// Termination means the byte was 0: no more chunks follow.
	Termination DtypeClass = iota
	// Known means the byte names a dtype this build has a codec for.
	Known
	// Unknown means the byte is nonzero but not a dtype this build
	// recognizes; a permissive reader may skip the chunk rather than fail.
	Unknown
)

// ClassifyDtype inspects a raw dtype byte and reports its class, plus the
// parsed latent.Dtype when Known.
func ClassifyDtype(b byte) (DtypeClass, latent.Dtype) {
	if b == 0 {
		return Termination, latent.DtypeTermination
	}

	switch latent.Dtype(b) {
	case latent.DtypeI64, latent.DtypeU64, latent.DtypeI32, latent.DtypeU32,
		latent.DtypeF32, latent.DtypeF64:
		return Known, latent.Dtype(b)
	default:
		return Unknown, latent.Dtype(b)
	}
}
