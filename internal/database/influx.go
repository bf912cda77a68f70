package database

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/sirupsen/logrus"

	"github.com/schrutebeet/stock-market/pkg/config"
	"github.com/schrutebeet/stock-market/pkg/models"
)

// InfluxClient mirrors persisted quote tables into InfluxDB for time-series
// queries. The relational store stays the source of truth.
type InfluxClient struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	logger   *logrus.Entry
	cfg      *config.InfluxConfig
}

// NewInfluxClient creates a new InfluxDB client
func NewInfluxClient(cfg *config.InfluxConfig, logger *logrus.Logger) *InfluxClient {
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetHTTPRequestTimeout(uint(cfg.Timeout.Seconds())).
			SetLogLevel(0),
	)

	return &InfluxClient{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		logger:   logger.WithField("component", "influxdb"),
		cfg:      cfg,
	}
}

// Close closes the InfluxDB client
func (ic *InfluxClient) Close() {
	ic.client.Close()
}

// Health checks InfluxDB health
func (ic *InfluxClient) Health(ctx context.Context) error {
	health, err := ic.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("failed to check health: %w", err)
	}

	if health.Status != "pass" {
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return fmt.Errorf("influxdb health check failed: %s", msg)
	}

	return nil
}

// MirrorTable writes the numeric cells of a canonical table as points in the
// "quotes" measurement, tagged by symbol and period.
func (ic *InfluxClient) MirrorTable(ctx context.Context, symbol, period string, t *models.Table) error {
	for _, row := range t.Rows {
		fields := make(map[string]interface{}, len(t.Columns))
		for _, col := range t.Columns {
			if num, ok := row.Cells[col].Float(); ok {
				fields[col] = num
			}
		}
		if len(fields) == 0 {
			continue
		}

		point := influxdb2.NewPoint(
			"quotes",
			map[string]string{
				"symbol": symbol,
				"period": period,
			},
			fields,
			row.Timestamp,
		)
		if err := ic.writeAPI.WritePoint(ctx, point); err != nil {
			return fmt.Errorf("failed to mirror quotes for %s: %w", symbol, err)
		}
	}

	ic.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"period": period,
		"rows":   t.Len(),
	}).Debug("Mirrored table to InfluxDB")

	return nil
}
