package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextEmptyStringIsMissing(t *testing.T) {
	assert.True(t, Text("").IsMissing())
	assert.False(t, Text("0").IsMissing())
	assert.False(t, Number(0).IsMissing())
}

func TestValueFloat(t *testing.T) {
	f, ok := Number(1.5).Float()
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	_, ok = Text("1.5").Float()
	assert.False(t, ok)
}

func TestSetConstantDeclaresColumnOnce(t *testing.T) {
	table := NewTable("open")
	table.Append(time.Now(), map[string]Value{"open": Number(1)})

	table.SetConstant("symbol", Text("TSLA"))
	table.SetConstant("symbol", Text("TSLA"))

	assert.Equal(t, []string{"open", "symbol"}, table.Columns)
	assert.Equal(t, Text("TSLA"), table.Rows[0].Cells["symbol"])
}

func TestSortAscending(t *testing.T) {
	table := NewTable("open")
	t3 := time.Date(2023, time.November, 3, 0, 0, 0, 0, time.UTC)
	t1 := time.Date(2023, time.November, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2023, time.November, 2, 0, 0, 0, 0, time.UTC)
	table.Append(t3, nil)
	table.Append(t1, nil)
	table.Append(t2, nil)

	table.SortAscending()

	require.Equal(t, 3, table.Len())
	assert.Equal(t, t1, table.Rows[0].Timestamp)
	assert.Equal(t, t2, table.Rows[1].Timestamp)
	assert.Equal(t, t3, table.Rows[2].Timestamp)
}

func TestEarliestTimestamp(t *testing.T) {
	table := NewTable("open")
	_, ok := table.EarliestTimestamp()
	assert.False(t, ok)

	t1 := time.Date(2023, time.November, 1, 0, 0, 0, 0, time.UTC)
	table.Append(time.Date(2023, time.November, 5, 0, 0, 0, 0, time.UTC), nil)
	table.Append(t1, nil)

	earliest, ok := table.EarliestTimestamp()
	require.True(t, ok)
	assert.Equal(t, t1, earliest)
}
