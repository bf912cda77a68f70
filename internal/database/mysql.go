package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"github.com/schrutebeet/stock-market/pkg/config"
)

// MySQLClient handles MySQL database operations
type MySQLClient struct {
	db     *sql.DB
	logger *logrus.Entry
	cfg    *config.MySQLConfig
}

// NewMySQLClient creates a new MySQL client
func NewMySQLClient(cfg *config.MySQLConfig, logger *logrus.Logger) (*MySQLClient, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	logger.WithField("dsn", fmt.Sprintf("%s:***@tcp(%s:%d)/%s", cfg.User, cfg.Host, cfg.Port, cfg.Database)).Debug("Connecting to MySQL")

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	return &MySQLClient{
		db:     db,
		logger: logger.WithField("component", "mysql"),
		cfg:    cfg,
	}, nil
}

// newMySQLClientFromDB wraps an existing connection; used by tests.
func newMySQLClientFromDB(db *sql.DB, logger *logrus.Logger) *MySQLClient {
	return &MySQLClient{
		db:     db,
		logger: logger.WithField("component", "mysql"),
	}
}

// Close closes the database connection
func (mc *MySQLClient) Close() error {
	return mc.db.Close()
}

// Health checks database health
func (mc *MySQLClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return mc.db.PingContext(ctx)
}

// Model provisioning

// HasTable reports whether the model's table already exists.
func (mc *MySQLClient) HasTable(ctx context.Context, model StorageModel) (bool, error) {
	query := `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = ? AND table_name = ?
	`

	var count int
	if err := mc.db.QueryRowContext(ctx, query, model.Schema, model.Table).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return count > 0, nil
}

// EnsureModel creates the model's schema and table if they do not exist yet.
// Creation is idempotent; existing tables are never altered.
func (mc *MySQLClient) EnsureModel(ctx context.Context, model StorageModel) error {
	if _, err := mc.db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", model.Schema)); err != nil {
		return &PersistenceError{Schema: model.Schema, Table: model.Table,
			Err: fmt.Errorf("failed to create schema: %w", err)}
	}

	exists, err := mc.HasTable(ctx, model)
	if err != nil {
		return &PersistenceError{Schema: model.Schema, Table: model.Table, Err: err}
	}
	if exists {
		return nil
	}

	mc.logger.WithFields(logrus.Fields{
		"schema": model.Schema,
		"table":  model.Table,
	}).Info("Creating storage model")

	if _, err := mc.db.ExecContext(ctx, model.CreateTableSQL()); err != nil {
		return &PersistenceError{Schema: model.Schema, Table: model.Table,
			Err: fmt.Errorf("failed to create table: %w", err)}
	}

	return nil
}

// Transaction support

// ExecTx executes a function within a transaction
func (mc *MySQLClient) ExecTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := mc.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %v, rb err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}
