package database

import (
	"fmt"
	"strings"
)

// ColumnType is the SQL type of one storage column.
type ColumnType string

const (
	TypeTimestamp ColumnType = "TIMESTAMP"
	TypeDateTime  ColumnType = "DATETIME"
	TypeDouble    ColumnType = "DOUBLE"
	TypeVarchar   ColumnType = "VARCHAR(32)"
	TypeText      ColumnType = "TEXT"
)

// Column describes one column of a storage model.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
	Key      bool
}

// StorageModel is a declarative table definition: schema, table name and an
// ordered column set. Models are created lazily on first reference and never
// altered or dropped by the pipeline.
type StorageModel struct {
	Schema  string
	Table   string
	Columns []Column
}

// QualifiedName returns the backtick-quoted `schema`.`table` identifier.
func (m StorageModel) QualifiedName() string {
	return fmt.Sprintf("`%s`.`%s`", m.Schema, m.Table)
}

// ColumnNames returns the ordered column names.
func (m StorageModel) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// CreateTableSQL renders the DDL for the model.
func (m StorageModel) CreateTableSQL() string {
	var defs []string
	var keys []string
	for _, c := range m.Columns {
		def := fmt.Sprintf("`%s` %s", c.Name, c.Type)
		if !c.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
		if c.Key {
			keys = append(keys, fmt.Sprintf("`%s`", c.Name))
		}
	}
	if len(keys) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(keys, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", m.QualifiedName(), strings.Join(defs, ",\n\t"))
}

// Quote model factory

// The registration columns every quote model carries in front of the quote
// fields: when the extraction ran, the extraction day, and the quote's own
// timestamp (part of the primary key together with the symbol).
var quoteBookkeepingColumns = []Column{
	{Name: "timestamp", Type: TypeTimestamp, Nullable: true},
	{Name: "timestamp_day", Type: TypeDateTime, Nullable: true},
	{Name: "datetime", Type: TypeDateTime, Key: true},
}

// NewQuoteModel builds a per-instrument model from the canonical table's
// column set. Identifier columns become VARCHAR key columns, everything else
// a nullable DOUBLE.
func NewQuoteModel(schema, table string, quoteColumns []string) StorageModel {
	columns := append([]Column(nil), quoteBookkeepingColumns...)
	for _, name := range quoteColumns {
		switch name {
		case "symbol", "symbol_pair":
			columns = append(columns, Column{Name: name, Type: TypeVarchar, Key: true})
		case "currency":
			columns = append(columns, Column{Name: name, Type: TypeVarchar, Nullable: true})
		default:
			columns = append(columns, Column{Name: name, Type: TypeDouble, Nullable: true})
		}
	}
	return StorageModel{Schema: schema, Table: table, Columns: columns}
}

// QuoteModelName derives the schema and table for one (symbol, period) pair,
// e.g. AAPL daily -> daily_quotes.aapl_daily, EUR/USD 1min ->
// intraday_quotes.eurusd_1min.
func QuoteModelName(symbol, period string) (schema, table string) {
	if period == "daily" {
		schema = "daily_quotes"
	} else {
		schema = "intraday_quotes"
	}
	return schema, fmt.Sprintf("%s_%s", sanitizeName(symbol), period)
}

// sanitizeName lowercases a symbol and strips everything that cannot appear
// in a table name.
func sanitizeName(symbol string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(symbol) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Fixed reference models

const referenceSchema = "stocks"

// NasdaqListedModel is the NASDAQ-listed securities directory table.
func NasdaqListedModel() StorageModel {
	return StorageModel{
		Schema: referenceSchema,
		Table:  "nasdaq_listed",
		Columns: []Column{
			{Name: "timestamp", Type: TypeTimestamp, Key: true},
			{Name: "symbol", Type: TypeVarchar, Key: true},
			{Name: "security_name", Type: TypeText, Nullable: true},
			{Name: "market_category", Type: TypeVarchar, Nullable: true},
			{Name: "test_issue", Type: TypeVarchar, Nullable: true},
			{Name: "financial_status", Type: TypeVarchar, Nullable: true},
			{Name: "round_lot_size", Type: TypeVarchar, Nullable: true},
			{Name: "is_etf", Type: TypeVarchar, Nullable: true},
			{Name: "source_time", Type: TypeDateTime, Nullable: true},
			{Name: "registration_date", Type: TypeDateTime, Nullable: true},
		},
	}
}

// OtherListedModel is the directory table for non-NASDAQ US listings.
func OtherListedModel() StorageModel {
	return StorageModel{
		Schema: referenceSchema,
		Table:  "other_listed",
		Columns: []Column{
			{Name: "timestamp", Type: TypeTimestamp, Key: true},
			{Name: "symbol", Type: TypeVarchar, Key: true},
			{Name: "security_name", Type: TypeText, Nullable: true},
			{Name: "exchange", Type: TypeVarchar, Nullable: true},
			{Name: "cqs_symbol", Type: TypeVarchar, Nullable: true},
			{Name: "test_issue", Type: TypeVarchar, Nullable: true},
			{Name: "round_lot_size", Type: TypeVarchar, Nullable: true},
			{Name: "is_etf", Type: TypeVarchar, Nullable: true},
			{Name: "nasdaq_symbol", Type: TypeVarchar, Nullable: true},
			{Name: "source_time", Type: TypeDateTime, Nullable: true},
			{Name: "registration_date", Type: TypeDateTime, Nullable: true},
		},
	}
}

// StockInfoModel is the listing-status reference table.
func StockInfoModel() StorageModel {
	return StorageModel{
		Schema: referenceSchema,
		Table:  "stock_info",
		Columns: []Column{
			{Name: "timestamp", Type: TypeTimestamp, Key: true},
			{Name: "symbol", Type: TypeVarchar, Key: true},
			{Name: "name", Type: TypeText, Nullable: true},
			{Name: "exchange", Type: TypeVarchar, Nullable: true},
			{Name: "asset_type", Type: TypeVarchar, Nullable: true},
			{Name: "ipo_date", Type: TypeVarchar, Nullable: true},
			{Name: "delisting_date", Type: TypeVarchar, Nullable: true},
			{Name: "status", Type: TypeVarchar, Nullable: true},
			{Name: "registration_date", Type: TypeDateTime, Nullable: true},
		},
	}
}

// FixedModels lists the pre-declared reference models.
func FixedModels() []StorageModel {
	return []StorageModel{NasdaqListedModel(), OtherListedModel(), StockInfoModel()}
}
