package tui

import "errors"

// ErrMissingComplianceService is returned when the compliance service is not provided.
var ErrMissingComplianceService = errors.New("tui: compliance service is required")
