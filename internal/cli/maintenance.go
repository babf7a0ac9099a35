package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ReberMislem/Exchange-app/internal/currency"
	"github.com/ReberMislem/Exchange-app/internal/ledger"
	"github.com/ReberMislem/Exchange-app/internal/models"
	"github.com/ReberMislem/Exchange-app/internal/report"
	"github.com/ReberMislem/Exchange-app/internal/seed"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(db)
		slog.Info("database migrated", "path", cfg.Database.Path)
		return nil
	},
}

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the admin user, currencies and opening balances",
	Long: `seed loads a YAML seed file (seed.file, or the built-in defaults when
the file does not exist). Existing users and currencies are kept; ledger
events are only added to an empty cashbox.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := seedFile
		if path == "" {
			path = cfg.Seed.File
		}
		f, err := seed.Load(path)
		if err != nil {
			return err
		}

		db, engine, err := openLedger()
		if err != nil {
			return err
		}
		defer closeDB(db)

		s := &seed.Seeder{
			DB:         db,
			Ledger:     engine,
			Currencies: currency.NewService(db, nil),
			BcryptCost: cfg.Security.BcryptCost,
		}
		res, err := s.Run(cmd.Context(), f)
		if err != nil {
			return err
		}
		slog.Info("seed finished",
			"users", res.Users,
			"currencies", res.Currencies,
			"adjustments", res.Adjustments,
			"expenses", res.Expenses,
			"transactions", res.Transactions,
		)
		return nil
	},
}

var repair bool

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check every cashbox chain, optionally rebuilding broken ones",
	Long: `verify walks each currency's cashbox rows in (occurred_at, id) order and
checks balance_after against the running sum of flows. With --repair,
broken chains are rebuilt from the recorded events. Run it with --repair
after switching ledger.strategy from latest-only to recompute.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, engine, err := openLedger()
		if err != nil {
			return err
		}
		defer closeDB(db)

		var currencies []models.Currency
		if err := db.Order("id ASC").Find(&currencies).Error; err != nil {
			return err
		}

		ctx := cmd.Context()
		broken := 0
		for _, c := range currencies {
			err := engine.Verify(ctx, c.ID)
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%-6s ok\n", c.Code)
				continue
			}
			var ce *ledger.ConsistencyError
			if !errors.As(err, &ce) {
				return err
			}
			broken++
			fmt.Fprintf(cmd.OutOrStdout(), "%-6s broken at row %d: expected %s, found %s\n",
				c.Code, ce.EntryID, ce.Expected.String(), ce.Actual.String())
			if repair {
				if err := engine.Rebuild(ctx, c.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-6s rebuilt\n", c.Code)
			}
		}
		if broken > 0 && !repair {
			return fmt.Errorf("%d cashbox chain(s) inconsistent, rerun with --repair", broken)
		}
		return nil
	},
}

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Print the latest cashbox balance of every currency",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, engine, err := openLedger()
		if err != nil {
			return err
		}
		defer closeDB(db)

		balances, err := engine.Balances(cmd.Context())
		if err != nil {
			return err
		}
		for _, code := range report.SortedCodes(balances) {
			fmt.Fprintf(cmd.OutOrStdout(), "%-6s %20s\n", code, report.FormatMoney(balances[code]))
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "seed file (default is seed.file from config)")
	verifyCmd.Flags().BoolVar(&repair, "repair", false, "rebuild chains that fail verification")
}
