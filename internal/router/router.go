package router

import (
	"log/slog"

	"github.com/ReberMislem/Exchange-app/internal/config"
	"github.com/ReberMislem/Exchange-app/internal/currency"
	"github.com/ReberMislem/Exchange-app/internal/handler"
	"github.com/ReberMislem/Exchange-app/internal/ledger"
	"github.com/ReberMislem/Exchange-app/internal/middleware"
	"github.com/ReberMislem/Exchange-app/internal/models"
	"github.com/ReberMislem/Exchange-app/internal/report"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter builds the JSON API.
func SetupRouter(cfg *config.Config, db *gorm.DB, engine *ledger.Engine) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(slog.Default()), gin.Recovery())

	currencies := currency.NewService(db, nil)
	reports := report.NewService(db, engine)
	encKey := cfg.Security.EncryptionKey

	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.Issuer, cfg.JWT.ExpireHours)
	limiter := middleware.NewIPRateLimiter(cfg.Security.LoginRatePerMinute, cfg.Security.LoginBurst)
	api.POST("/auth/login", middleware.RateLimit(limiter), authHandler.Login)

	// everything below needs a valid session
	authed := api.Group("")
	authed.Use(
		middleware.AuthMiddleware(jwtSecret, db),
		middleware.AuditMiddleware(db, encKey),
	)
	authed.POST("/auth/logout", authHandler.Logout)
	authed.GET("/me", handler.GetMe)
	authed.POST("/profile/password", handler.ChangePassword(db, cfg.Security.BcryptCost))

	// viewers are read-only from here on
	protected := authed.Group("")
	protected.Use(middleware.ReadOnlyForViewers())

	settingsHandler := handler.NewSettingsHandler(db)
	protected.GET("/settings", settingsHandler.GetSettings)

	currencyHandler := handler.NewCurrencyHandler(currencies)
	protected.GET("/currencies", currencyHandler.ListCurrencies)
	protected.GET("/currencies/:id", currencyHandler.GetCurrency)
	protected.GET("/currencies/:id/diffs", currencyHandler.ListDiffs)
	protected.POST("/currencies", currencyHandler.CreateCurrency)
	protected.PUT("/currencies/:id", currencyHandler.UpdateCurrency)
	protected.DELETE("/currencies/:id", currencyHandler.DeleteCurrency)

	pageSize := cfg.App.PageSize
	txHandler := handler.NewTransactionHandler(db, engine, pageSize)
	protected.GET("/transactions", txHandler.ListTransactions)
	protected.GET("/transactions/:id", txHandler.GetTransaction)
	protected.POST("/transactions", txHandler.CreateTransaction)
	protected.PUT("/transactions/:id", txHandler.UpdateTransaction)
	protected.DELETE("/transactions/:id", txHandler.DeleteTransaction)

	expenseHandler := handler.NewExpenseHandler(db, engine, pageSize)
	protected.GET("/expenses", expenseHandler.ListExpenses)
	protected.GET("/expenses/:id", expenseHandler.GetExpense)
	protected.POST("/expenses", expenseHandler.CreateExpense)
	protected.PUT("/expenses/:id", expenseHandler.UpdateExpense)
	protected.DELETE("/expenses/:id", expenseHandler.DeleteExpense)

	cashboxHandler := handler.NewCashboxHandler(db, engine)
	protected.GET("/cashbox", cashboxHandler.ListCashbox)
	protected.GET("/cashbox/balances", cashboxHandler.Balances)
	protected.GET("/cashbox/adjustments", cashboxHandler.ListAdjustments)
	protected.POST("/cashbox/adjustments", cashboxHandler.CreateAdjustment)
	protected.PUT("/cashbox/adjustments/:id", cashboxHandler.UpdateAdjustment)
	protected.DELETE("/cashbox/adjustments/:id", cashboxHandler.DeleteAdjustment)

	debtHandler := handler.NewDebtHandler(db, currencies)
	protected.GET("/debts", debtHandler.ListDebts)
	protected.POST("/debts", debtHandler.CreateDebt)
	protected.PUT("/debts/:id", debtHandler.UpdateDebt)
	protected.POST("/debts/:id/pay", debtHandler.PayDebt)
	protected.DELETE("/debts/:id", debtHandler.DeleteDebt)

	reportHandler := handler.NewReportHandler(reports)
	protected.GET("/dashboard", reportHandler.Dashboard)
	protected.GET("/reports/summary", reportHandler.Summary)
	protected.GET("/reports/export/transactions.xlsx", reportHandler.ExportTransactionsXLSX)
	protected.GET("/reports/export/expenses.xlsx", reportHandler.ExportExpensesXLSX)
	protected.GET("/reports/export/cashbox.csv", reportHandler.ExportCashboxCSV)
	protected.GET("/reports/export/summary.pdf", reportHandler.ExportSummaryPDF)

	admin := protected.Group("")
	admin.Use(middleware.RequireRole(models.RoleAdmin))

	admin.PUT("/settings", settingsHandler.UpdateSettings)

	userHandler := handler.NewUserHandler(db, cfg.Security.BcryptCost)
	admin.GET("/users", userHandler.ListUsers)
	admin.POST("/users", userHandler.CreateUser)
	admin.PUT("/users/:id", userHandler.UpdateUser)
	admin.DELETE("/users/:id", userHandler.DeleteUser)

	backupHandler := handler.NewBackupHandler(db, engine, currencies, encKey, cfg.Backup.Dir)
	admin.POST("/backups", backupHandler.CreateBackup)
	admin.GET("/backups", backupHandler.ListBackups)
	admin.GET("/backups/:id/download", backupHandler.DownloadBackup)
	admin.POST("/backups/:id/restore", backupHandler.RestoreBackup)
	admin.DELETE("/backups/:id", backupHandler.DeleteBackup)

	logHandler := handler.NewLogHandler(db, encKey)
	admin.GET("/logs", logHandler.ListLogs)

	return r
}
