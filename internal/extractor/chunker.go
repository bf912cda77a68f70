package extractor

import (
	"fmt"
	"time"
)

// DateChunk is one provider-sized sub-range of a requested date span.
type DateChunk struct {
	// Key is the provider selector for the chunk: "YYYY-MM" for the
	// month policy, "start/end" for the fixed-window policy.
	Key   string
	Start time.Time
	End   time.Time
}

// MonthChunks splits [from, until] into calendar-month chunks. The chunk keys
// are the consecutive "YYYY-MM" strings from from's month to until's month.
// The first chunk starts at from and the last ends at until, so the union of
// chunks covers the span exactly.
func MonthChunks(from, until time.Time) ([]DateChunk, error) {
	if from.After(until) {
		return nil, &InvalidRangeError{Reason: "from date is after until date"}
	}

	from = truncateToDay(from)
	until = truncateToDay(until)

	var chunks []DateChunk
	current := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, from.Location())
	for !current.After(until) {
		monthEnd := current.AddDate(0, 1, -1)

		start := current
		if start.Before(from) {
			start = from
		}
		end := monthEnd
		if end.After(until) {
			end = until
		}

		chunks = append(chunks, DateChunk{
			Key:   current.Format("2006-01"),
			Start: start,
			End:   end,
		})
		current = current.AddDate(0, 1, 0)
	}

	return chunks, nil
}

// FixedWindowChunks produces consecutive windows of chunkSize days covering
// exactly lookback days ending at end. Windows are computed backwards from
// end and returned ascending. When lookback is not a multiple of chunkSize,
// only the first window is narrowed; all others keep full width.
func FixedWindowChunks(end time.Time, lookback, chunkSize int) ([]DateChunk, error) {
	if lookback <= 0 {
		return nil, &InvalidRangeError{Reason: fmt.Sprintf("lookback period must be positive, got %d", lookback)}
	}
	if chunkSize <= 0 {
		return nil, &InvalidRangeError{Reason: fmt.Sprintf("chunk size must be positive, got %d", chunkSize)}
	}

	end = truncateToDay(end)
	initialStart := end.AddDate(0, 0, -(lookback - 1))

	var chunks []DateChunk
	for remaining := lookback; remaining > 0; remaining -= chunkSize {
		start := end.AddDate(0, 0, -(chunkSize - 1))
		chunks = append(chunks, DateChunk{Start: start, End: end})
		end = start.AddDate(0, 0, -1)
	}

	// Reverse into ascending order.
	for i, j := 0, len(chunks)-1; i < j; i, j = i+1, j-1 {
		chunks[i], chunks[j] = chunks[j], chunks[i]
	}

	// The oldest window absorbs the remainder so the total span is exactly
	// lookback days rather than chunkSize * len(chunks).
	chunks[0].Start = initialStart

	for i := range chunks {
		chunks[i].Key = fmt.Sprintf("%s/%s",
			chunks[i].Start.Format("2006-01-02"), chunks[i].End.Format("2006-01-02"))
	}

	return chunks, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
