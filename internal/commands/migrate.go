package commands

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/schrutebeet/stock-market/internal/database"
	"github.com/schrutebeet/stock-market/pkg/config"
	"github.com/schrutebeet/stock-market/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Provision the fixed schemas and tables",
	Long: `Create the schemas and fixed reference tables if they do not exist.
Quote tables are provisioned on demand during extraction; this command only
covers the fixed listing tables.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
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

	ctx := context.Background()
	for _, model := range database.FixedModels() {
		if err := mysqlClient.EnsureModel(ctx, model); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"schema": model.Schema,
			"table":  model.Table,
		}).Info("Model ensured")
	}

	return nil
}
