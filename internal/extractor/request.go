package extractor

import (
	"strings"
	"time"
)

// InstrumentType selects which provider endpoints and response shape apply.
type InstrumentType string

const (
	InstrumentStock  InstrumentType = "stock"
	InstrumentForex  InstrumentType = "forex"
	InstrumentCrypto InstrumentType = "crypto"
)

// ParseInstrumentType converts a CLI string into an InstrumentType.
func ParseInstrumentType(s string) (InstrumentType, bool) {
	switch InstrumentType(strings.ToLower(s)) {
	case InstrumentStock:
		return InstrumentStock, true
	case InstrumentForex:
		return InstrumentForex, true
	case InstrumentCrypto:
		return InstrumentCrypto, true
	}
	return "", false
}

// Period is the sampling granularity of a quote series.
type Period string

const (
	Period1Min  Period = "1min"
	Period5Min  Period = "5min"
	Period15Min Period = "15min"
	Period30Min Period = "30min"
	Period60Min Period = "60min"
	PeriodDaily Period = "daily"
)

var validPeriods = []Period{Period1Min, Period5Min, Period15Min, Period30Min, Period60Min, PeriodDaily}

func acceptablePeriods() []string {
	out := make([]string, len(validPeriods))
	for i, p := range validPeriods {
		out[i] = string(p)
	}
	return out
}

// ParsePeriod validates a period string against the accepted set.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(s))
	for _, v := range validPeriods {
		if p == v {
			return p, nil
		}
	}
	return "", &InvalidPeriodError{Period: s}
}

// IsIntraday reports whether the period is finer than daily.
func (p Period) IsIntraday() bool { return p != PeriodDaily }

// Request describes one extraction: which instrument, at which granularity,
// over which calendar-date span. From and Until are dates; the filter widens
// them to [From 00:00:00, Until 23:59:59].
type Request struct {
	Instrument InstrumentType

	// Symbol is the ticker (stocks), asset code (crypto) or "EUR/USD" style
	// pair (forex).
	Symbol string

	// Market is the quote currency for crypto requests.
	Market string

	Period Period
	From   time.Time
	Until  time.Time
}

// PairSymbols splits a forex pair into its from/to legs.
func (r Request) PairSymbols() (from, to string, ok bool) {
	parts := strings.SplitN(r.Symbol, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Validate rejects a request before any I/O happens.
func (r Request) Validate() error {
	if _, err := ParsePeriod(string(r.Period)); err != nil {
		return err
	}
	if r.From.After(r.Until) {
		return &InvalidRangeError{Reason: "from date is after until date"}
	}
	return nil
}
