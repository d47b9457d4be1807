package report

import (
	"errors"
	"fmt"
)

var (
	// ErrExport is returned when a report could not be produced.
	ErrExport = errors.New("report export failed")

	// ErrExportSuperseded is returned to an export call that finished after
	// a newer call had started. Its result is discarded.
	ErrExportSuperseded = errors.New("report export superseded by a newer request")
)

// ExportFailure carries a human-readable cause for the dashboard.
type ExportFailure struct {
	Cause string
	Err   error
}

func (e *ExportFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("report export failed: %s: %v", e.Cause, e.Err)
	}
	return "report export failed: " + e.Cause
}

func (e *ExportFailure) Unwrap() []error {
	return []error{ErrExport, e.Err}
}
