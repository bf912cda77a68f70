package extractor

import (
	"fmt"
	"strings"
	"time"
)

// InvalidRangeError reports a malformed date range or chunk parameters.
// It is returned before any network call happens.
type InvalidRangeError struct {
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: %s", e.Reason)
}

// InvalidPeriodError reports a period argument outside the accepted set.
type InvalidPeriodError struct {
	Period string
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("period %q must be one of: %s", e.Period, strings.Join(acceptablePeriods(), ", "))
}

// ConnectivityError reports a transport-level failure reaching the provider.
type ConnectivityError struct {
	URL string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("could not connect to provider API: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// ProviderAPIError reports that the provider was reachable but returned an
// empty or error-flagged payload. Message carries the provider's own text.
type ProviderAPIError struct {
	Message string
}

func (e *ProviderAPIError) Error() string {
	return fmt.Sprintf("provider API error: %s", e.Message)
}

// EmptyResultError reports that the provider returned no rows inside the
// requested window.
type EmptyResultError struct {
	Symbol string
	From   time.Time
	Until  time.Time
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no quotes for %s between %s and %s",
		e.Symbol, e.From.Format("2006-01-02"), e.Until.Format("2006-01-02"))
}
