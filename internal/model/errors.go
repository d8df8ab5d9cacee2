package model

import (
	"fmt"
	"strings"
)

// UnsupportedOperandFormatError is returned when an operand string matches
// none of the accepted grammar. It names the offending text and lists the
// formats the resolver understands so the upstream description can be fixed
// without guesswork.
type UnsupportedOperandFormatError struct {
	Operand  string
	Accepted []string
}

func (e *UnsupportedOperandFormatError) Error() string {
	return fmt.Sprintf("unsupported operand format %q (accepted: %s)",
		e.Operand, strings.Join(e.Accepted, ", "))
}

// WeightSumMismatchError is returned at construction time when specified
// weights do not sum to 1.0 within tolerance.
type WeightSumMismatchError struct {
	Sum float64
}

func (e *WeightSumMismatchError) Error() string {
	return fmt.Sprintf("specified weights sum to %g, expected 1.0", e.Sum)
}

// SchemaInvariantViolationError is a field-path-qualified preflight failure.
// The remote platform gives no field-level diagnostics, so this error is the
// caller's only actionable signal.
type SchemaInvariantViolationError struct {
	Path   string
	Reason string
}

func (e *SchemaInvariantViolationError) Error() string {
	return fmt.Sprintf("schema invariant violated at %s: %s", e.Path, e.Reason)
}

// PlatformRejectionError carries the remote platform's raw error text
// verbatim. PreflightOK records whether the local validator had passed the
// document, so callers can tell a validator gap from a platform-side failure.
type PlatformRejectionError struct {
	RemoteMessage string
	PreflightOK   bool
}

func (e *PlatformRejectionError) Error() string {
	return fmt.Sprintf("platform rejected submission (preflight ok: %t): %s",
		e.PreflightOK, e.RemoteMessage)
}
