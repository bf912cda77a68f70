package extractor

import (
	"fmt"
	"time"

	"github.com/schrutebeet/stock-market/pkg/models"
)

// columnMapping ties one provider field label to a canonical column name.
// Order matters: it defines the output column order.
type columnMapping struct {
	label  string
	column string
}

// Normalize transposes a merged timestamp-keyed payload into a canonical
// table. The renaming table is chosen from the request's instrument type and
// period, never by inspecting payload keys. The instrument identifier is
// attached as the last column on every row. Rows come back in ascending
// timestamp order, so the same payload always yields the same table.
func Normalize(payload RawPayload, req Request) (*models.Table, error) {
	mappings := renameTable(req)

	columns := make([]string, len(mappings))
	for i, m := range mappings {
		columns[i] = m.column
	}
	table := models.NewTable(columns...)

	for stamp, fields := range payload {
		ts, err := parseTimestamp(stamp)
		if err != nil {
			return nil, fmt.Errorf("unparseable timestamp %q: %w", stamp, err)
		}

		cells := make(map[string]models.Value, len(mappings))
		for _, m := range mappings {
			raw, ok := fields[m.label]
			if !ok {
				cells[m.column] = models.Missing()
				continue
			}
			cells[m.column] = models.Text(raw)
		}
		table.Append(ts, cells)
	}

	switch req.Instrument {
	case InstrumentForex:
		table.SetConstant("symbol_pair", models.Text(req.Symbol))
	case InstrumentCrypto:
		if req.Period.IsIntraday() {
			table.SetConstant("currency", models.Text(req.Market))
		}
		table.SetConstant("symbol", models.Text(req.Symbol))
	default:
		table.SetConstant("symbol", models.Text(req.Symbol))
	}

	// The payload is a map, so rows were appended in iteration order.
	table.SortAscending()

	return table, nil
}

// renameTable selects the provider-label renaming for
// (instrument type, daily or intraday, dual-currency quoting).
func renameTable(req Request) []columnMapping {
	daily := !req.Period.IsIntraday()

	switch req.Instrument {
	case InstrumentForex:
		// Forex series carry no volume field, daily or intraday.
		return []columnMapping{
			{"1. open", "open"},
			{"2. high", "high"},
			{"3. low", "low"},
			{"4. close", "close"},
		}

	case InstrumentCrypto:
		if daily {
			// Dual-currency quoting: every price field comes in the local
			// market currency and in USD. Volume has no currency suffix.
			ccy := req.Market
			return []columnMapping{
				{fmt.Sprintf("1a. open (%s)", ccy), "open_" + ccy},
				{"1b. open (USD)", "open_USD"},
				{fmt.Sprintf("2a. high (%s)", ccy), "high_" + ccy},
				{"2b. high (USD)", "high_USD"},
				{fmt.Sprintf("3a. low (%s)", ccy), "low_" + ccy},
				{"3b. low (USD)", "low_USD"},
				{fmt.Sprintf("4a. close (%s)", ccy), "close_" + ccy},
				{"4b. close (USD)", "close_USD"},
				{"5. volume", "volume"},
				{"6. market cap (USD)", "market_cap_USD"},
			}
		}
		return []columnMapping{
			{"1. open", "open"},
			{"2. high", "high"},
			{"3. low", "low"},
			{"4. close", "close"},
			{"5. volume", "volume"},
		}

	default: // stock
		if daily {
			return []columnMapping{
				{"1. open", "open"},
				{"2. high", "high"},
				{"3. low", "low"},
				{"4. close", "close"},
				{"5. adjusted close", "adjusted_close"},
				{"6. volume", "volume"},
				{"7. dividend amount", "dividend_amount"},
				{"8. split coefficient", "split_coefficient"},
			}
		}
		return []columnMapping{
			{"1. open", "open"},
			{"2. high", "high"},
			{"3. low", "low"},
			{"4. close", "close"},
			{"5. volume", "volume"},
		}
	}
}

// parseTimestamp accepts both date-only and date-time provider stamps.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
