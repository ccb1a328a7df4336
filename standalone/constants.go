package standalone

import "github.com/arlobytes/pco/latent"

// Magic bytes identifying the standalone file format, per spec §6. Lifted
// directly from original_source/pco/src/standalone/constants.rs: the
// current magic plus the legacy one implementations must still accept for
// read.
var (
	MagicCurrent = [4]byte{'p', 'c', 'o', '!'}
	MagicLegacy  = [4]byte{'q', 'c', 'o', '!'}
)

// FormatVersionCurrent is the standalone format version this build writes.
const FormatVersionCurrent byte = 2

// legacyHuffmanMaxVersion is the highest format version that still uses the
// legacy canonical-Huffman entropy subsection (spec §4.5/§9); versions above
// it use tabled ANS.
const legacyHuffmanMaxVersion byte = 1

// minSupportedVersion/maxSupportedVersion bound the versions this build can
// decode; outside this range is a CompatibilityError, not a Corruption.
const (
	minSupportedVersion byte = 1
	maxSupportedVersion byte = FormatVersionCurrent
)

// usesLegacyHuffman reports whether a file written at version v used the
// legacy Huffman entropy subsection instead of ANS.
func usesLegacyHuffman(version byte) bool {
	return version <= legacyHuffmanMaxVersion
}

// terminationByte marks end-of-chunks within a file, equal to
// latent.DtypeTermination.
const terminationByte = byte(latent.DtypeTermination)

// dtypeHeaderLen is the fixed per-chunk preamble before chunk_meta: a
// 1-byte dtype and a 3-byte (24-bit) little-endian entry count, per spec
// §6's wire layout table.
const dtypeHeaderLen = 1 + 3
