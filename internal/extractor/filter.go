package extractor

import (
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/schrutebeet/stock-market/pkg/models"
)

// identifierColumns never go through numeric coercion.
var identifierColumns = map[string]bool{
	"symbol":      true,
	"symbol_pair": true,
	"currency":    true,
}

// WindowFilter restricts the table to [from 00:00:00, until 23:59:59]
// inclusive, sorts rows ascending, coerces non-identifier columns to numeric
// where the whole column parses, and forward-fills missing values. A value
// missing at the earliest retained timestamp stays missing.
func WindowFilter(t *models.Table, from, until time.Time, logger *logrus.Entry) *models.Table {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := time.Date(until.Year(), until.Month(), until.Day(), 23, 59, 59, 0, until.Location())

	filtered := models.NewTable(t.Columns...)
	for _, row := range t.Rows {
		if row.Timestamp.Before(start) || row.Timestamp.After(end) {
			continue
		}
		filtered.Rows = append(filtered.Rows, row)
	}
	filtered.SortAscending()

	coerceNumericColumns(filtered)
	forwardFill(filtered)

	if earliest, ok := filtered.EarliestTimestamp(); ok && earliest.After(start) {
		logger.WithFields(logrus.Fields{
			"requested_from": start.Format("2006-01-02 15:04:05"),
			"earliest":       earliest.Format("2006-01-02 15:04:05"),
		}).Warn("API could not provide quotes on all requested days")
	}

	return filtered
}

// coerceNumericColumns converts textual cells to numbers, column by column.
// A column with any non-numeric text passes through unchanged; missing cells
// do not block coercion.
func coerceNumericColumns(t *models.Table) {
	for _, col := range t.Columns {
		if identifierColumns[col] {
			continue
		}

		parsed := make([]models.Value, len(t.Rows))
		coercible := true
		for i, row := range t.Rows {
			cell := row.Cells[col]
			switch cell.Kind {
			case models.KindMissing:
				parsed[i] = models.Missing()
			case models.KindNumber:
				parsed[i] = cell
			default:
				f, err := strconv.ParseFloat(cell.Str, 64)
				if err != nil {
					coercible = false
				} else {
					parsed[i] = models.Number(f)
				}
			}
			if !coercible {
				break
			}
		}

		if !coercible {
			continue
		}
		for i := range t.Rows {
			t.Rows[i].Cells[col] = parsed[i]
		}
	}
}

// forwardFill propagates the nearest earlier non-missing value down each
// column. Rows must already be in ascending timestamp order.
func forwardFill(t *models.Table) {
	for _, col := range t.Columns {
		var last models.Value
		haveLast := false
		for i := range t.Rows {
			cell := t.Rows[i].Cells[col]
			if cell.IsMissing() {
				if haveLast {
					t.Rows[i].Cells[col] = last
				}
				continue
			}
			last = cell
			haveLast = true
		}
	}
}
