package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/schrutebeet/stock-market/pkg/models"
)

// DefaultBatchSize is the number of rows per bulk insert.
const DefaultBatchSize = 5000

// PersistenceError reports a failure during model creation or batch
// insertion. It aborts every remaining batch for the affected table; tables
// already committed in the same run are unaffected.
type PersistenceError struct {
	Schema string
	Table  string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed for %s.%s: %v", e.Schema, e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persister writes canonical tables into storage models in fixed-size
// batches, one transaction per table. Callers must have ensured the model
// exists (EnsureModel) before persisting, and must not share a Persister
// between two in-flight calls.
type Persister struct {
	mysql  *MySQLClient
	logger *logrus.Entry
	now    func() time.Time
}

// NewPersister creates a persister on top of the MySQL client.
func NewPersister(mysql *MySQLClient, logger *logrus.Logger) *Persister {
	return &Persister{
		mysql:  mysql,
		logger: logger.WithField("component", "persister"),
		now:    time.Now,
	}
}

// PersistTable writes every row of the canonical table into the model and
// returns the number of rows written. Batches preserve the table's row
// order; a failing batch rolls back the whole table's write.
func (p *Persister) PersistTable(ctx context.Context, model StorageModel, t *models.Table, batchSize int) (int, error) {
	rows := make([][]interface{}, t.Len())
	registeredAt := p.now()
	for i, row := range t.Rows {
		rows[i] = p.materializeRow(model, row, registeredAt)
	}
	return p.PersistRows(ctx, model, rows, batchSize)
}

// PersistRows writes pre-materialized rows (one value per model column, in
// model column order) in batches inside a single transaction.
func (p *Persister) PersistRows(ctx context.Context, model StorageModel, rows [][]interface{}, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if len(rows) == 0 {
		return 0, nil
	}

	columns := model.ColumnNames()
	written := 0

	err := p.mysql.ExecTx(ctx, func(tx *sql.Tx) error {
		for start := 0; start < len(rows); start += batchSize {
			end := start + batchSize
			if end > len(rows) {
				end = len(rows)
			}
			batch := rows[start:end]

			query, args := buildInsert(model.QualifiedName(), columns, batch)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("batch %d-%d: %w", start, end, err)
			}
			written += len(batch)

			p.logger.WithFields(logrus.Fields{
				"table": model.Table,
				"rows":  len(batch),
			}).Debug("Inserted batch")
		}
		return nil
	})
	if err != nil {
		return 0, &PersistenceError{Schema: model.Schema, Table: model.Table, Err: err}
	}

	p.logger.WithFields(logrus.Fields{
		"schema": model.Schema,
		"table":  model.Table,
		"rows":   written,
	}).Info("Table persisted")

	return written, nil
}

// materializeRow maps one canonical row onto the model's column order. The
// bookkeeping columns record when the extraction ran; quote columns come
// from the row's cells, missing cells become NULL.
func (p *Persister) materializeRow(model StorageModel, row models.Row, registeredAt time.Time) []interface{} {
	values := make([]interface{}, len(model.Columns))
	for i, col := range model.Columns {
		switch col.Name {
		case "timestamp":
			values[i] = registeredAt
		case "timestamp_day":
			values[i] = registeredAt.Format("2006-01-02")
		case "datetime":
			values[i] = row.Timestamp
		default:
			values[i] = cellValue(row.Cells[col.Name])
		}
	}
	return values
}

// cellValue converts a table cell into a driver value.
func cellValue(v models.Value) interface{} {
	switch v.Kind {
	case models.KindNumber:
		return v.Num
	case models.KindText:
		return v.Str
	default:
		return nil
	}
}

// buildInsert renders one multi-row INSERT statement with its arguments.
func buildInsert(qualifiedName string, columns []string, rows [][]interface{}) (string, []interface{}) {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = fmt.Sprintf("`%s`", c)
	}

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	placeholders := make([]string, len(rows))
	args := make([]interface{}, 0, len(rows)*len(columns))
	for i, row := range rows {
		placeholders[i] = placeholder
		args = append(args, row...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		qualifiedName, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	return query, args
}
