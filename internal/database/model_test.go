package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteModelName(t *testing.T) {
	tests := []struct {
		symbol string
		period string
		schema string
		table  string
	}{
		{"AAPL", "daily", "daily_quotes", "aapl_daily"},
		{"TSLA", "5min", "intraday_quotes", "tsla_5min"},
		{"EUR/USD", "1min", "intraday_quotes", "eurusd_1min"},
		{"BTC", "daily", "daily_quotes", "btc_daily"},
		{"BRK.B", "daily", "daily_quotes", "brkb_daily"},
	}

	for _, tt := range tests {
		schema, table := QuoteModelName(tt.symbol, tt.period)
		assert.Equal(t, tt.schema, schema, tt.symbol)
		assert.Equal(t, tt.table, table, tt.symbol)
	}
}

func TestNewQuoteModel(t *testing.T) {
	model := NewQuoteModel("daily_quotes", "tsla_daily",
		[]string{"open", "high", "low", "close", "volume", "symbol"})

	assert.Equal(t, []string{
		"timestamp", "timestamp_day", "datetime",
		"open", "high", "low", "close", "volume", "symbol",
	}, model.ColumnNames())

	byName := make(map[string]Column)
	for _, c := range model.Columns {
		byName[c.Name] = c
	}

	assert.Equal(t, TypeDouble, byName["open"].Type)
	assert.True(t, byName["open"].Nullable)
	assert.Equal(t, TypeVarchar, byName["symbol"].Type)
	assert.True(t, byName["symbol"].Key)
	assert.True(t, byName["datetime"].Key)
}

func TestNewQuoteModelForexIdentifier(t *testing.T) {
	model := NewQuoteModel("intraday_quotes", "eurusd_5min",
		[]string{"open", "high", "low", "close", "symbol_pair"})

	byName := make(map[string]Column)
	for _, c := range model.Columns {
		byName[c.Name] = c
	}
	assert.Equal(t, TypeVarchar, byName["symbol_pair"].Type)
	assert.True(t, byName["symbol_pair"].Key)
}

func TestNewQuoteModelCryptoCurrencyColumn(t *testing.T) {
	model := NewQuoteModel("intraday_quotes", "btc_60min",
		[]string{"open", "close", "volume", "currency", "symbol"})

	byName := make(map[string]Column)
	for _, c := range model.Columns {
		byName[c.Name] = c
	}
	// currency qualifies rows but is not part of the key.
	assert.Equal(t, TypeVarchar, byName["currency"].Type)
	assert.False(t, byName["currency"].Key)
}

func TestCreateTableSQL(t *testing.T) {
	model := NewQuoteModel("daily_quotes", "tsla_daily", []string{"open", "symbol"})
	ddl := model.CreateTableSQL()

	assert.Contains(t, ddl, "CREATE TABLE `daily_quotes`.`tsla_daily`")
	assert.Contains(t, ddl, "`open` DOUBLE")
	assert.Contains(t, ddl, "`datetime` DATETIME NOT NULL")
	assert.Contains(t, ddl, "PRIMARY KEY (`datetime`, `symbol`)")
}

func TestFixedModels(t *testing.T) {
	models := FixedModels()
	require.Len(t, models, 3)
	for _, m := range models {
		assert.Equal(t, "stocks", m.Schema)
		assert.NotEmpty(t, m.Columns)
	}
}
