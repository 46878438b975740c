package parse

import "errors"

// Sentinel errors for the structural violations a trace log can contain.
// Parse errors wrap one of these plus the offending line number and the
// expected/actual names; callers test with errors.Is.
var (
	// ErrMissingInput reports a log path that does not exist.
	ErrMissingInput = errors.New("input log file does not exist")

	// ErrNestingViolation reports a module END whose name does not match the
	// open frame, or an END with no frame open at all.
	ErrNestingViolation = errors.New("module nesting violation")

	// ErrSymbolMismatch reports an operation END incompatible with the
	// currently open operation.
	ErrSymbolMismatch = errors.New("operation symbol mismatch")

	// ErrOpOverlap reports an operation BEGIN while another operation is
	// still open. Operations do not nest in this trace model.
	ErrOpOverlap = errors.New("operation begun while another is open")

	// ErrOrphanDuration reports a duration sample with no open operation,
	// under OrphanError strictness.
	ErrOrphanDuration = errors.New("duration sample outside any operation")

	// ErrMalformedDuration reports a duration value that does not parse as a
	// number. Fatal rather than coerced to zero, so aggregates stay honest.
	ErrMalformedDuration = errors.New("malformed duration value")
)
