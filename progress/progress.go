// Package progress reports how much of a decode call actually advanced,
// mirroring the source's streaming decode report (durendal/src/progress.rs
// in the retrieved original) so callers driving decompress_remaining_extend
// in a loop can tell whether to feed more bytes or stop.
package progress

// Progress describes the outcome of one decode step.
type Progress struct {
	// NumProcessed is how many numbers were successfully decoded and
	// appended to the caller's output this call.
	NumProcessed int
	// FinishedPage is true once the current page has been fully consumed.
	FinishedPage bool
	// InsufficientData is true when decoding stopped only because the
	// input ran out, not because of any structural error; the caller may
	// retry with more bytes appended to the same tail.
	InsufficientData bool
}

// Add accumulates other into p, for callers summing progress across
// multiple decompress_remaining_extend calls within one decode session.
// FinishedPage and InsufficientData are OR-ed rather than overwritten, the
// same way durendal::Progress::add_assign folds booleans: once either has
// been true for any call in the session, it stays true for the session.
func (p *Progress) Add(other Progress) {
	p.NumProcessed += other.NumProcessed
	p.FinishedPage = p.FinishedPage || other.FinishedPage
	p.InsufficientData = p.InsufficientData || other.InsufficientData
}
