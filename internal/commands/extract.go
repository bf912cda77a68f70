package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/schrutebeet/stock-market/internal/cache"
	"github.com/schrutebeet/stock-market/internal/database"
	"github.com/schrutebeet/stock-market/internal/extractor"
	"github.com/schrutebeet/stock-market/internal/messaging"
	"github.com/schrutebeet/stock-market/pkg/config"
	"github.com/schrutebeet/stock-market/pkg/logger"
)

var (
	extractType      string
	extractSymbols   string
	extractPeriod    string
	extractFrom      string
	extractUntil     string
	extractMarket    string
	extractBatchSize int
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract and persist quote data",
	Long: `Extract quote data from the provider API, normalize it into canonical
tables and persist it into per-instrument MySQL tables.

Examples:
  # One year of daily stock quotes
  stock-market extract --type stock --symbols AAPL --period daily --from 2023-01-01 --until 2023-12-31

  # Intraday forex quotes for a pair
  stock-market extract --type forex --symbols EUR/USD --period 5min --from 2023-11-01 --until 2023-11-30

  # Daily crypto quotes with dual-currency columns
  stock-market extract --type crypto --symbols BTC --market CHF --period daily --from 2023-11-01 --until 2023-11-30`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractType, "type", "stock", "Instrument type (stock, forex, crypto)")
	extractCmd.Flags().StringVar(&extractSymbols, "symbols", "", "Comma-separated symbols (e.g. AAPL,TSLA or EUR/USD)")
	extractCmd.Flags().StringVar(&extractPeriod, "period", "daily", "Quote period (1min, 5min, 15min, 30min, 60min, daily)")
	extractCmd.Flags().StringVar(&extractFrom, "from", "", "Start date (YYYY-MM-DD, default today)")
	extractCmd.Flags().StringVar(&extractUntil, "until", "", "End date (YYYY-MM-DD, default today)")
	extractCmd.Flags().StringVar(&extractMarket, "market", "", "Market currency for crypto (e.g. USD, CHF)")
	extractCmd.Flags().IntVar(&extractBatchSize, "batch-size", database.DefaultBatchSize, "Rows per insert batch")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractSymbols == "" {
		return fmt.Errorf("--symbols must be specified")
	}

	instrument, ok := extractor.ParseInstrumentType(extractType)
	if !ok {
		return fmt.Errorf("invalid instrument type: %s (expected stock, forex or crypto)", extractType)
	}

	period, err := extractor.ParsePeriod(extractPeriod)
	if err != nil {
		return err
	}

	from, until, err := parseDateRange(extractFrom, extractUntil)
	if err != nil {
		return err
	}

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.AlphaVantage.APIKey == "" {
		return fmt.Errorf("ALPHAVANTAGE_API_KEY must be set")
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	mysqlClient, err := database.NewMySQLClient(&cfg.MySQL, log)
	if err != nil {
		return fmt.Errorf("failed to create MySQL client: %w", err)
	}
	defer mysqlClient.Close()

	dispatcher := extractor.NewDispatcher(&cfg.AlphaVantage, log)

	if cfg.Features.PayloadCacheEnabled {
		redisClient, err := cache.NewRedisClient(&cfg.Redis, cfg.Features.PayloadCacheTTL, log)
		if err != nil {
			log.WithError(err).Warn("Payload cache unavailable, continuing without it")
		} else {
			defer redisClient.Close()
			dispatcher.SetCache(redisClient)
		}
	}

	var influxClient *database.InfluxClient
	if cfg.Features.InfluxMirrorEnabled {
		influxClient = database.NewInfluxClient(&cfg.InfluxDB, log)
		defer influxClient.Close()
	}

	var natsClient *messaging.NATSClient
	if cfg.Features.EventsEnabled {
		natsClient, err = messaging.NewNATSClient(&cfg.NATS, log)
		if err != nil {
			log.WithError(err).Warn("NATS unavailable, continuing without events")
			natsClient = nil
		} else {
			defer natsClient.Close()
		}
	}

	ext, err := extractor.New(instrument, dispatcher, log)
	if err != nil {
		return err
	}

	persister := database.NewPersister(mysqlClient, log)
	ctx := context.Background()

	symbols := splitSymbols(extractSymbols)
	failed := 0
	for _, symbol := range symbols {
		if err := extractOne(ctx, ext, persister, mysqlClient, influxClient, natsClient, log, extractor.Request{
			Symbol: symbol,
			Market: extractMarket,
			Period: period,
			From:   from,
			Until:  until,
		}); err != nil {
			// One symbol failing must not abort the remaining symbols.
			log.WithError(err).WithField("symbol", symbol).Error("Extraction failed")
			failed++
		}
	}

	if failed == len(symbols) {
		return fmt.Errorf("extraction failed for all %d symbols", failed)
	}

	log.WithFields(logrus.Fields{
		"symbols": len(symbols),
		"failed":  failed,
		"period":  string(period),
	}).Info("Extraction run completed")

	return nil
}

// extractOne runs the full pipeline for a single symbol: extract, provision
// the storage model, persist in batches, then mirror and publish when those
// features are enabled.
func extractOne(
	ctx context.Context,
	ext extractor.Extractor,
	persister *database.Persister,
	mysqlClient *database.MySQLClient,
	influxClient *database.InfluxClient,
	natsClient *messaging.NATSClient,
	log *logrus.Logger,
	req extractor.Request,
) error {
	table, err := ext.Extract(ctx, req)
	if err != nil {
		return err
	}

	schema, tableName := database.QuoteModelName(req.Symbol, string(req.Period))
	model := database.NewQuoteModel(schema, tableName, table.Columns)

	if err := mysqlClient.EnsureModel(ctx, model); err != nil {
		return err
	}

	written, err := persister.PersistTable(ctx, model, table, extractBatchSize)
	if err != nil {
		return err
	}

	if influxClient != nil {
		if err := influxClient.MirrorTable(ctx, req.Symbol, string(req.Period), table); err != nil {
			log.WithError(err).WithField("symbol", req.Symbol).Warn("InfluxDB mirror failed")
		}
	}

	if natsClient != nil {
		event := messaging.StoredEvent{
			Symbol:    req.Symbol,
			Schema:    schema,
			Table:     tableName,
			Period:    string(req.Period),
			Rows:      written,
			Timestamp: time.Now(),
		}
		if err := natsClient.PublishStored(event); err != nil {
			log.WithError(err).WithField("symbol", req.Symbol).Warn("Event publish failed")
		}
	}

	return nil
}

// parseDateRange parses the --from/--until flags, defaulting both to today.
func parseDateRange(fromStr, untilStr string) (from, until time.Time, err error) {
	today := time.Now().Format("2006-01-02")
	if fromStr == "" {
		fromStr = today
	}
	if untilStr == "" {
		untilStr = today
	}

	from, err = time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date %q: %w", fromStr, err)
	}
	until, err = time.Parse("2006-01-02", untilStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --until date %q: %w", untilStr, err)
	}
	return from, until, nil
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
