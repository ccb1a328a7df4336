// Package errs defines the sentinel errors and error taxonomy shared across
// the pco engine.
//
// Every exported error below is a sentinel created with errors.New, meant to
// be compared with errors.Is or wrapped at call sites with
// fmt.Errorf("%w: ...", errs.ErrX). This mirrors how mebo's (unexported from
// this pack, but widely imported) errs package is used throughout blob and
// section: a flat list of package-level sentinels, never a bespoke error
// struct per call site.
//
// On top of the sentinels, Kind realizes the four-way error taxonomy the
// engine promises callers: InsufficientData is retryable, Corruption and
// CompatibilityError are fatal for the instance that produced them, and
// InvalidArgument is fatal at the call site. Decompressors surface errors
// wrapped in *Error so callers can switch on Kind() without parsing strings.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for retry/fatal policy decisions.
type Kind uint8

const (
	// KindInsufficientData means a parse ran out of input mid-structure.
	// Retryable: neither the decompressor's state nor the caller's cursor
	// advances when this Kind is returned.
	KindInsufficientData Kind = iota
	// KindCorruption means a structural invariant was violated (bad magic,
	// impossible bin width, ANS state out of range, fingerprint mismatch).
	// Fatal for the instance; the caller must discard it.
	KindCorruption
	// KindInvalidArgument means the caller passed a config or dtype the
	// engine cannot honor. Fatal at the call site, never produced mid-parse.
	KindInvalidArgument
	// KindCompatibility means the format version is newer or older than
	// this build supports. Fatal for the instance.
	KindCompatibility
)

func (k Kind) String() string {
	switch k {
	case KindInsufficientData:
		return "insufficient_data"
	case KindCorruption:
		return "corruption"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindCompatibility:
		return "compatibility"
	default:
		return "unknown"
	}
}

// Error wraps a sentinel with a Kind so callers can branch on retry policy
// without string-matching the message.
type Error struct {
	kind Kind
	err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.kind, e.err)
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the error's taxonomy classification.
func (e *Error) Kind() Kind { return e.kind }

// Wrap attaches a Kind to err, producing a classifiable *Error.
// If err is nil, Wrap returns nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}

	return &Error{kind: kind, err: err}
}

// Insufficient wraps err as a retryable KindInsufficientData error.
func Insufficient(err error) error { return Wrap(KindInsufficientData, err) }

// Corrupt wraps err as a fatal KindCorruption error.
func Corrupt(err error) error { return Wrap(KindCorruption, err) }

// Invalid wraps err as a fatal KindInvalidArgument error.
func Invalid(err error) error { return Wrap(KindInvalidArgument, err) }

// Incompatible wraps err as a fatal KindCompatibility error.
func Incompatible(err error) error { return Wrap(KindCompatibility, err) }

// KindOf reports the Kind of err if it (or something it wraps) is an *Error.
// The second return is false if err carries no known Kind.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.kind, true
	}

	return 0, false
}

// IsInsufficientData reports whether err is retryable: the caller may supply
// a longer prefix and retry without any side effects from the failed call.
func IsInsufficientData(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindInsufficientData
}

// Sentinel errors. Each is returned (usually wrapped via errs.Insufficient /
// errs.Corrupt / errs.Invalid / errs.Incompatible) from exactly the
// components named in the comment.

var (
	// ErrShortBuffer is returned by the bit reader when fewer bits remain
	// than requested and no more input can be supplied without a retry.
	ErrShortBuffer = errors.New("pco: not enough bits buffered")
	// ErrShortWrite is returned by the bit writer when asked to write more
	// than 64 bits in a single call.
	ErrShortWrite = errors.New("pco: cannot write more than 64 bits at once")

	// ErrInvalidMagic is returned when the standalone header's magic bytes
	// match neither the current "pco!" magic nor the legacy "qco!" magic.
	ErrInvalidMagic = errors.New("pco: invalid magic bytes")
	// ErrUnsupportedVersion is returned when the standalone format version
	// byte is outside the range this build knows how to decode.
	ErrUnsupportedVersion = errors.New("pco: unsupported standalone format version")
	// ErrInvalidDtype is returned for a dtype byte this build's dispatch
	// table has no handler for, when the caller required a known dtype.
	ErrInvalidDtype = errors.New("pco: invalid or unsupported dtype byte")
	// ErrDtypeMismatch is returned when a chunk's dtype byte does not match
	// the type parameter the caller is decoding into.
	ErrDtypeMismatch = errors.New("pco: chunk dtype does not match requested type")

	// ErrInvalidMode is returned for an unrecognized mode discriminant.
	ErrInvalidMode = errors.New("pco: invalid mode discriminant")
	// ErrInvalidModeSpec is returned when a ModeSpec's parameters are
	// nonsensical for the chosen mode (e.g. a zero IntMult base).
	ErrInvalidModeSpec = errors.New("pco: invalid mode specification")

	// ErrInvalidDeltaOrder is returned for a delta order outside 0..=7.
	ErrInvalidDeltaOrder = errors.New("pco: delta order must be between 0 and 7")

	// ErrInvalidCompressionLevel is returned for a level outside 0..=12.
	ErrInvalidCompressionLevel = errors.New("pco: compression level must be between 0 and 12")

	// ErrBinRangeOverlap is a corruption signal: two bins claim overlapping
	// latent ranges, violating the monotonic bin coverage invariant.
	ErrBinRangeOverlap = errors.New("pco: bin ranges overlap or leave a gap")
	// ErrLatentOutOfRange is a corruption signal: a decoded latent does not
	// fall inside any bin's range.
	ErrLatentOutOfRange = errors.New("pco: latent value outside all bin ranges")

	// ErrAnsStateOutOfRange is a corruption signal: a decoded ANS state
	// falls outside the table's valid state range.
	ErrAnsStateOutOfRange = errors.New("pco: ANS state out of range")
	// ErrInvalidAnsSizeLog is returned for an ans_size_log outside the
	// supported range.
	ErrInvalidAnsSizeLog = errors.New("pco: invalid ANS table size log")

	// ErrFingerprintMismatch is a corruption signal: the chunk metadata
	// fingerprint stored in the preamble does not match the recomputed one.
	ErrFingerprintMismatch = errors.New("pco: chunk metadata fingerprint mismatch")

	// ErrEncoderFinished is returned when a method is called on an encoder
	// after Finish has released its buffers.
	ErrEncoderFinished = errors.New("pco: encoder already finished")
	// ErrNoChunkStarted guards against API misuse before any chunk begins.
	ErrNoChunkStarted = errors.New("pco: no chunk has been started")
	// ErrChunkAlreadyStarted guards against starting a second chunk on a
	// compressor still mid-chunk.
	ErrChunkAlreadyStarted = errors.New("pco: a chunk is already in progress")
	// ErrEmptyInput guards operations that require at least one number.
	ErrEmptyInput = errors.New("pco: input slice is empty")
)

// Is reports whether err is or wraps target, forwarding to errors.Is. It
// exists purely so call sites that already import errs don't need a second
// import of the standard errors package just to check a sentinel.
func Is(err, target error) bool { return errors.Is(err, target) }
