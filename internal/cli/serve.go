package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/router"
	"github.com/ReberMislem/Exchange-app/internal/util"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := ensureDir(cfg.Backup.Dir); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	if cfg.JWT.Secret == "" {
		secret, err := util.RandomString(32)
		if err != nil {
			return err
		}
		cfg.JWT.Secret = secret
		slog.Warn("jwt.secret is empty, using a random secret; sessions end on restart")
	}
	if cfg.Security.EncryptionKey == "" {
		slog.Warn("security.encryption_key is empty, audit logs are stored in plain text")
	}

	db, engine, err := openLedger()
	if err != nil {
		return err
	}
	defer closeDB(db)

	r := router.SetupRouter(cfg, db, engine)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr, "ledger_strategy", engine.Strategy())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
