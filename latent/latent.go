// Package latent implements the order-preserving bijections from each
// supported primitive number type to a fixed-width unsigned "latent" value,
// the substrate every downstream stage (delta, bins, entropy coding)
// operates on.
//
// Rather than a single generic engine, each supported (T, L) pair gets its
// own monomorphized Trait value with plain function fields — the same
// "concrete type per codec" shape mebo uses for NumericGorillaEncoder,
// NumericRawEncoder and friends, generalized here across primitive types
// instead of across compression schemes. This realizes spec §9's dispatch
// table without needing Go associated types: a caller holding a Trait[T, L]
// gets monomorphized, allocation-free ToLatentOrdered/FromLatentOrdered
// calls, while the root package's dtype-byte dispatch (see DtypeByte below)
// gives file formats their required tagged entry point.
package latent

import "math"

// Latent is the fixed-width unsigned integer family latents are stored as.
// The spec allows u16/u32/u64; this implementation supports the two widths
// needed to cover every canonical dtype (u32 for 32-bit numbers, u64 for
// 64-bit numbers and timestamps); the 16-bit width is not implemented.
type Latent interface {
	~uint32 | ~uint64
}

// Dtype identifies a supported primitive number type by its on-disk byte,
// per spec §6. Canonical values are implemented; legacy values are accepted
// on read dispatch but rejected with ErrInvalidDtype since this build
// carries no encoder/decoder for them.
type Dtype byte

const (
	DtypeI64 Dtype = 1
	DtypeU64 Dtype = 2
	DtypeI32 Dtype = 3
	DtypeU32 Dtype = 4
	DtypeF32 Dtype = 5
	DtypeF64 Dtype = 6

	// Legacy dtypes, byte reserved for read-compatibility classification
	// only; this build has no codec for them.
	DtypeBoolLegacy Dtype = 7
	DtypeI128Legacy Dtype = 10
	DtypeI16Legacy  Dtype = 13

	// DtypeTermination marks end-of-file in the standalone framer.
	DtypeTermination Dtype = 0
)

// Trait bundles a primitive type T's capability set against latent width L:
// the physical bit width, the byte identifying it on disk, and the pair of
// bijections to/from an ordered latent. ToLatentOrdered/FromLatentOrdered
// must be mutual inverses and must preserve <= ordering, i.e.
// a <= b  <=>  ToLatentOrdered(a) <= ToLatentOrdered(b).
type Trait[T any, L Latent] struct {
	PhysicalBits int
	DtypeByte    Dtype

	ToLatentOrdered   func(T) L
	FromLatentOrdered func(L) T
}

// Int32 is the Trait for the i32 dtype over u32 latents: order-preserving
// via the classic "flip the sign bit" transform.
var Int32 = Trait[int32, uint32]{
	PhysicalBits: 32,
	DtypeByte:    DtypeI32,
	ToLatentOrdered: func(v int32) uint32 {
		return uint32(v) ^ 0x8000_0000
	},
	FromLatentOrdered: func(l uint32) int32 {
		return int32(l ^ 0x8000_0000)
	},
}

// Uint32 is the Trait for the u32 dtype: the identity bijection.
var Uint32 = Trait[uint32, uint32]{
	PhysicalBits:      32,
	DtypeByte:         DtypeU32,
	ToLatentOrdered:   func(v uint32) uint32 { return v },
	FromLatentOrdered: func(l uint32) uint32 { return l },
}

// Int64 is the Trait for the i64 dtype over u64 latents.
var Int64 = Trait[int64, uint64]{
	PhysicalBits: 64,
	DtypeByte:    DtypeI64,
	ToLatentOrdered: func(v int64) uint64 {
		return uint64(v) ^ 0x8000_0000_0000_0000
	},
	FromLatentOrdered: func(l uint64) int64 {
		return int64(l ^ 0x8000_0000_0000_0000)
	},
}

// Uint64 is the Trait for the u64 dtype: the identity bijection.
var Uint64 = Trait[uint64, uint64]{
	PhysicalBits:      64,
	DtypeByte:         DtypeU64,
	ToLatentOrdered:   func(v uint64) uint64 { return v },
	FromLatentOrdered: func(l uint64) uint64 { return l },
}

// Float32 is the Trait for the f32 dtype over u32 latents, using the
// standard "flip all bits if negative, else flip just the sign bit" total
// order so that latent order matches IEEE-754 float order (NaNs aside,
// which round-trip bit-for-bit but have no defined position).
var Float32 = Trait[float32, uint32]{
	PhysicalBits: 32,
	DtypeByte:    DtypeF32,
	ToLatentOrdered: func(v float32) uint32 {
		bits := math.Float32bits(v)
		if bits&0x8000_0000 != 0 {
			return ^bits
		}

		return bits ^ 0x8000_0000
	},
	FromLatentOrdered: func(l uint32) float32 {
		var bits uint32
		if l&0x8000_0000 != 0 {
			bits = l ^ 0x8000_0000
		} else {
			bits = ^l
		}

		return math.Float32frombits(bits)
	},
}

// Float64 is the Trait for the f64 dtype over u64 latents, same bijection
// as Float32 widened to 64 bits.
var Float64 = Trait[float64, uint64]{
	PhysicalBits: 64,
	DtypeByte:    DtypeF64,
	ToLatentOrdered: func(v float64) uint64 {
		bits := math.Float64bits(v)
		if bits&0x8000_0000_0000_0000 != 0 {
			return ^bits
		}

		return bits ^ 0x8000_0000_0000_0000
	},
	FromLatentOrdered: func(l uint64) float64 {
		var bits uint64
		if l&0x8000_0000_0000_0000 != 0 {
			bits = l ^ 0x8000_0000_0000_0000
		} else {
			bits = ^l
		}

		return math.Float64frombits(bits)
	},
}

// TimestampMicros is a convenience Trait layering timestamps (stored as
// int64 microseconds since epoch, per spec §6) onto Int64's latent
// bijection. A widened nanosecond encoding is not implemented; callers needing nanosecond precision should scale before
// compressing and document the scale out of band.
var TimestampMicros = Int64
