package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/schrutebeet/stock-market/internal/database"
	"github.com/schrutebeet/stock-market/internal/listings"
	"github.com/schrutebeet/stock-market/pkg/config"
	"github.com/schrutebeet/stock-market/pkg/logger"
)

var listingsGroups []string

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "Refresh reference listings",
	Long: `Download the exchange symbol directories and the provider's
listing-status report, then persist them into the stocks schema.

Examples:
  stock-market listings
  stock-market listings --groups nasdaq
  stock-market listings --groups status`,
	RunE: runListings,
}

func init() {
	listingsCmd.Flags().StringSliceVar(&listingsGroups, "groups",
		[]string{listings.GroupNasdaq, listings.GroupOther, "status"},
		"Listing groups to refresh (nasdaq, other, status)")

	rootCmd.AddCommand(listingsCmd)
}

func runListings(cmd *cobra.Command, args []string) error {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
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

	client := listings.NewClient(&cfg.AlphaVantage, log)
	persister := database.NewPersister(mysqlClient, log)
	ctx := context.Background()

	for _, group := range listingsGroups {
		switch group {
		case listings.GroupNasdaq, listings.GroupOther:
			if err := refreshDirectory(ctx, client, mysqlClient, persister, group); err != nil {
				return err
			}
		case "status":
			if cfg.AlphaVantage.APIKey == "" {
				return fmt.Errorf("ALPHAVANTAGE_API_KEY must be set for the status group")
			}
			if err := refreshListingStatus(ctx, client, mysqlClient, persister); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown listing group %q (expected nasdaq, other or status)", group)
		}
	}

	return nil
}

func refreshDirectory(
	ctx context.Context,
	client *listings.Client,
	mysqlClient *database.MySQLClient,
	persister *database.Persister,
	group string,
) error {
	dir, err := client.FetchDirectory(ctx, group)
	if err != nil {
		return err
	}

	model := database.NasdaqListedModel()
	if group == listings.GroupOther {
		model = database.OtherListedModel()
	}
	if err := mysqlClient.EnsureModel(ctx, model); err != nil {
		return err
	}

	stocks := listings.Stocks(dir)
	rows := listings.DirectoryRows(dir, stocks)
	if _, err := persister.PersistRows(ctx, model, rows, database.DefaultBatchSize); err != nil {
		return err
	}
	return nil
}

func refreshListingStatus(
	ctx context.Context,
	client *listings.Client,
	mysqlClient *database.MySQLClient,
	persister *database.Persister,
) error {
	infos, err := client.FetchListingStatus(ctx)
	if err != nil {
		return err
	}

	model := database.StockInfoModel()
	if err := mysqlClient.EnsureModel(ctx, model); err != nil {
		return err
	}

	rows := listings.StatusRows(infos, time.Now())
	if _, err := persister.PersistRows(ctx, model, rows, database.DefaultBatchSize); err != nil {
		return err
	}
	return nil
}
