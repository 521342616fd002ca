// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// ReloadRequested asks the app to fetch findings again.
type ReloadRequested struct{}

// FindingsLoaded carries the newest findings back to the model.
type FindingsLoaded struct {
	Findings []domain.ComplianceFinding
	Err      error
}

// FilterChanged is sent when the framework filter moves.
// An empty Framework shows every framework.
type FilterChanged struct {
	Framework string
}

// ErrorOccurred signals an error that should be displayed.
type ErrorOccurred struct {
	Err error
}

// Error implements the error interface.
func (e ErrorOccurred) Error() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}
