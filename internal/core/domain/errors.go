package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates no parser handles a document.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrOrphanReference indicates a derived record points at a source
	// record that does not exist.
	ErrOrphanReference = errors.New("orphaned reference")

	// ErrImmutable indicates an attempt to change an imported requirement
	// beyond its status field.
	ErrImmutable = errors.New("requirement is immutable once imported")

	// ErrUnknownFramework indicates a compliance framework is not registered.
	ErrUnknownFramework = errors.New("unknown compliance framework")

	// ErrUnknownWorkflow indicates a workflow name is not recognised.
	ErrUnknownWorkflow = errors.New("unknown workflow")

	// ErrPublisherNotConfigured indicates a destination lacks settings.
	ErrPublisherNotConfigured = errors.New("publisher not configured")
)

// FormatError reports a document that cannot be read or lacks the
// structure its format requires. It aborts that document's import only.
type FormatError struct {
	Document string
	Format   DocumentFormat
	Reason   string
	Err      error
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("format error")
	if e.Document != "" {
		fmt.Fprintf(&b, " in %s", e.Document)
	}
	if e.Format != "" {
		fmt.Fprintf(&b, " (%s)", e.Format)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *FormatError) Unwrap() error { return e.Err }

// RowError reports one malformed record inside an otherwise valid document.
// The record is skipped and the error kept as a warning.
type RowError struct {
	Document string
	// Row is the 1-based row or section number in the source document,
	// or 0 when unknown.
	Row      int
	RecordID string
	Reason   string
}

func (e *RowError) Error() string {
	var parts []string
	if e.Document != "" {
		parts = append(parts, e.Document)
	}
	if e.Row > 0 {
		parts = append(parts, fmt.Sprintf("row %d", e.Row))
	}
	if e.RecordID != "" {
		parts = append(parts, "("+e.RecordID+")")
	}
	if len(parts) == 0 {
		return e.Reason
	}
	return strings.Join(parts, " ") + ": " + e.Reason
}

// MappingError reports a generator that could not derive a record from
// incomplete source fields.
type MappingError struct {
	Generator string
	SourceID  string
	Field     string
	Reason    string
}

func (e *MappingError) Error() string {
	msg := fmt.Sprintf("%s: cannot map %s", e.Generator, e.SourceID)
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	return msg + ": " + e.Reason
}

// ValidationRuleError reports a rule that could not be evaluated against a
// target. It becomes a not_applicable finding carrying the reason.
type ValidationRuleError struct {
	RuleID   string
	TargetID string
	Reason   string
}

func (e *ValidationRuleError) Error() string {
	return fmt.Sprintf("rule %s cannot evaluate %s: %s", e.RuleID, e.TargetID, e.Reason)
}

// IsFormatError reports whether err is or wraps a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
