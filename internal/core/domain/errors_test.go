package domain

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedFormat", ErrUnsupportedFormat},
		{"ErrOrphanReference", ErrOrphanReference},
		{"ErrImmutable", ErrImmutable},
		{"ErrUnknownFramework", ErrUnknownFramework},
		{"ErrUnknownWorkflow", ErrUnknownWorkflow},
		{"ErrPublisherNotConfigured", ErrPublisherNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestFormatError_MessageAndUnwrap(t *testing.T) {
	err := &FormatError{
		Document: "reqs.xlsx",
		Format:   FormatSpreadsheet,
		Reason:   "corrupt container",
		Err:      io.ErrUnexpectedEOF,
	}

	assert.Equal(t, "format error in reqs.xlsx (spreadsheet): corrupt container: unexpected EOF", err.Error())
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	wrapped := fmt.Errorf("import: %w", err)
	assert.True(t, IsFormatError(wrapped))
	assert.False(t, IsFormatError(io.EOF))
}

func TestRowError_Message(t *testing.T) {
	err := &RowError{Document: "reqs.csv", Row: 4, RecordID: "REQ-9", Reason: "unknown priority \"urgent\""}
	assert.Equal(t, `reqs.csv row 4 (REQ-9): unknown priority "urgent"`, err.Error())

	bare := &RowError{Row: 2, Reason: "missing id"}
	assert.Equal(t, "row 2: missing id", bare.Error())

	unplaced := &RowError{Document: "spec.docx", RecordID: "REQ-3", Reason: "already imported"}
	assert.Equal(t, "spec.docx (REQ-3): already imported", unplaced.Error())

	assert.Equal(t, "empty", (&RowError{Reason: "empty"}).Error())
}

func TestMappingError_Message(t *testing.T) {
	err := &MappingError{Generator: "user-story", SourceID: "REQ-2", Field: "description", Reason: "empty"}
	assert.Equal(t, "user-story: cannot map REQ-2 (description): empty", err.Error())
}

func TestValidationRuleError_Message(t *testing.T) {
	err := &ValidationRuleError{RuleID: "PRIV-01", TargetID: "REQ-1", Reason: "description is empty"}
	assert.Equal(t, "rule PRIV-01 cannot evaluate REQ-1: description is empty", err.Error())
}
