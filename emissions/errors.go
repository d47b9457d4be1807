package emissions

import (
	"errors"
	"fmt"
)

var (
	// ErrTelemetryFetch is returned when the emissions feed cannot be read.
	ErrTelemetryFetch = errors.New("telemetry fetch failed")

	// ErrUnknownSource is returned when activity data names a source without
	// an emission factor.
	ErrUnknownSource = errors.New("unknown emissions source")
)

// TelemetryFetchError describes a failed feed read.
type TelemetryFetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Cause      error
}

func (e *TelemetryFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

func (e *TelemetryFetchError) Unwrap() []error {
	return []error{ErrTelemetryFetch, e.Cause}
}
