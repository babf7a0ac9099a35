// Package cli provides the exchange-backoffice commands.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/ReberMislem/Exchange-app/internal/config"
	"github.com/ReberMislem/Exchange-app/internal/database"
	"github.com/ReberMislem/Exchange-app/internal/ledger"
	"github.com/ReberMislem/Exchange-app/internal/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	cfgFile string
	debug   bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "exchange",
	Short: "Currency exchange back-office",
	Long: `exchange runs the back-office API of a currency exchange shop and
the maintenance commands around its cashbox ledger.

Example:
  exchange serve
  exchange seed
  exchange verify --repair`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if debug {
			c.Log.Level = "debug"
		}
		logger.Init(c.Log)
		cfg = c
		return nil
	},
}

// Execute runs the root command. It is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(balancesCmd)
}

// openDB opens and migrates the database.
func openDB() (*gorm.DB, error) {
	db, err := database.Init(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// openLedger opens the database and builds the engine with the configured
// strategy.
func openLedger() (*gorm.DB, *ledger.Engine, error) {
	db, err := openDB()
	if err != nil {
		return nil, nil, err
	}
	engine := ledger.New(ledger.NewGormStore(db),
		ledger.WithStrategy(ledger.Strategy(cfg.Ledger.Strategy)),
		ledger.WithLogger(slog.Default()),
	)
	return db, engine, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
