package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/currency"
	"github.com/ReberMislem/Exchange-app/internal/ledger"
	"github.com/ReberMislem/Exchange-app/internal/models"
	"github.com/ReberMislem/Exchange-app/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const backupVersion = 1

// BackupHandler writes and restores encrypted snapshots of the ledger tables.
// Cashbox rows are derived, so they are not stored; restore rebuilds them.
type BackupHandler struct {
	DB         *gorm.DB
	Ledger     *ledger.Engine
	Currencies *currency.Service
	EncryptKey string
	BackupDir  string
}

func NewBackupHandler(db *gorm.DB, engine *ledger.Engine, currencies *currency.Service, encryptKey, backupDir string) *BackupHandler {
	return &BackupHandler{
		DB:         db,
		Ledger:     engine,
		Currencies: currencies,
		EncryptKey: encryptKey,
		BackupDir:  backupDir,
	}
}

type backupData struct {
	Version       int                   `json:"version"`
	Created       time.Time             `json:"created"`
	Settings      []models.Settings     `json:"settings"`
	Currencies    []models.Currency     `json:"currencies"`
	ExchangeDiffs []models.ExchangeDiff `json:"exchange_diffs"`
	Transactions  []models.Transaction  `json:"transactions"`
	Expenses      []models.Expense      `json:"expenses"`
	Adjustments   []models.Adjustment   `json:"adjustments"`
	Debts         []models.Debt         `json:"debts"`
}

func (h *BackupHandler) snapshot() (*backupData, error) {
	data := backupData{Version: backupVersion, Created: time.Now().UTC()}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		for _, dst := range []interface{}{
			&data.Settings, &data.Currencies, &data.ExchangeDiffs,
			&data.Transactions, &data.Expenses, &data.Adjustments, &data.Debts,
		} {
			if err := tx.Order("id ASC").Find(dst).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// CreateBackup snapshots the ledger into an encrypted file under BackupDir.
func (h *BackupHandler) CreateBackup(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	data, err := h.snapshot()
	if err != nil {
		writeError(c, err, "read ledger")
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		writeError(c, err, "encode backup")
		return
	}
	enc, err := util.EncryptAES(h.EncryptKey, raw)
	if err != nil {
		writeError(c, err, "encrypt backup")
		return
	}
	if err := os.MkdirAll(h.BackupDir, 0o755); err != nil {
		writeError(c, err, "create backup dir")
		return
	}

	fileName := fmt.Sprintf("backup-%s-%s.bin", data.Created.Format("20060102-150405"), uuid.New().String())
	filePath := filepath.Join(h.BackupDir, fileName)
	if err := os.WriteFile(filePath, enc, 0o600); err != nil {
		writeError(c, err, "write backup file")
		return
	}

	backup := models.Backup{
		UserID:   user.ID,
		FileName: fileName,
		FilePath: filePath,
		Size:     int64(len(enc)),
	}
	if err := h.DB.Create(&backup).Error; err != nil {
		_ = os.Remove(filePath)
		writeError(c, err, "save backup record")
		return
	}

	util.Success(c, util.Response{"backup": backupView(&backup)})
}

func backupView(b *models.Backup) gin.H {
	return gin.H{
		"id":         b.ID,
		"file_name":  b.FileName,
		"size":       b.Size,
		"user_id":    b.UserID,
		"created_at": b.CreatedAt,
	}
}

func (h *BackupHandler) ListBackups(c *gin.Context) {
	var list []models.Backup
	if err := h.DB.Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		writeError(c, err, "list backups")
		return
	}
	items := make([]gin.H, 0, len(list))
	for i := range list {
		items = append(items, backupView(&list[i]))
	}
	util.Success(c, util.Response{"items": items})
}

func (h *BackupHandler) find(c *gin.Context) (*models.Backup, bool) {
	id, ok := idParam(c)
	if !ok {
		return nil, false
	}
	var backup models.Backup
	if err := h.DB.First(&backup, id).Error; err != nil {
		writeError(c, err, "load backup")
		return nil, false
	}
	return &backup, true
}

func (h *BackupHandler) DownloadBackup(c *gin.Context) {
	backup, ok := h.find(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "application/octet-stream")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", backup.FileName))
	c.File(backup.FilePath)
}

// DeleteBackup removes the file first, then the record.
func (h *BackupHandler) DeleteBackup(c *gin.Context) {
	backup, ok := h.find(c)
	if !ok {
		return
	}
	if err := os.Remove(backup.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		writeError(c, err, "remove backup file")
		return
	}
	if err := h.DB.Delete(backup).Error; err != nil {
		writeError(c, err, "delete backup record")
		return
	}
	util.Success(c, util.Response{"message": "deleted"})
}

// RestoreBackup replaces the ledger tables with the snapshot, keeping the
// original ids, then rebuilds every cashbox chain. Users are untouched.
func (h *BackupHandler) RestoreBackup(c *gin.Context) {
	backup, ok := h.find(c)
	if !ok {
		return
	}
	encData, err := os.ReadFile(backup.FilePath)
	if err != nil {
		writeError(c, err, "read backup file")
		return
	}
	raw, err := util.DecryptAES(h.EncryptKey, encData)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "backup cannot be decrypted with the current key")
		return
	}
	var data backupData
	if err := json.Unmarshal(raw, &data); err != nil || data.Version != backupVersion {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "unsupported backup format")
		return
	}

	// a dropped client must not abort a half-done restore
	ctx := context.WithoutCancel(c.Request.Context())
	if err := h.restore(ctx, &data); err != nil {
		writeError(c, err, "restore backup")
		return
	}
	h.Currencies.Invalidate()

	util.Success(c, util.Response{
		"message":      "restored",
		"currencies":   len(data.Currencies),
		"transactions": len(data.Transactions),
		"expenses":     len(data.Expenses),
		"adjustments":  len(data.Adjustments),
		"debts":        len(data.Debts),
	})
}

// restore swaps the ledger tables for the snapshot and rebuilds the cashbox
// in one transaction, under the locks of every currency before and after.
func (h *BackupHandler) restore(ctx context.Context, data *backupData) error {
	var existing []uint
	if err := h.DB.WithContext(ctx).Model(&models.Currency{}).Pluck("id", &existing).Error; err != nil {
		return err
	}
	restored := make([]uint, 0, len(data.Currencies))
	for _, cur := range data.Currencies {
		restored = append(restored, cur.ID)
	}
	unlock := h.Ledger.LockCurrencies(append(existing, restored...)...)
	defer unlock()

	return h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// children before parents
		for _, m := range []interface{}{
			&models.CashboxEntry{}, &models.Transaction{}, &models.Expense{},
			&models.Adjustment{}, &models.Debt{}, &models.ExchangeDiff{},
			&models.Currency{}, &models.Settings{},
		} {
			if err := tx.Where("1 = 1").Delete(m).Error; err != nil {
				return err
			}
		}
		insert := func(n int, rows interface{}) error {
			if n == 0 {
				return nil
			}
			return tx.Omit(clause.Associations).Create(rows).Error
		}
		steps := []struct {
			n    int
			rows interface{}
		}{
			{len(data.Settings), &data.Settings},
			{len(data.Currencies), &data.Currencies},
			{len(data.ExchangeDiffs), &data.ExchangeDiffs},
			{len(data.Transactions), &data.Transactions},
			{len(data.Expenses), &data.Expenses},
			{len(data.Adjustments), &data.Adjustments},
			{len(data.Debts), &data.Debts},
		}
		for _, s := range steps {
			if err := insert(s.n, s.rows); err != nil {
				return err
			}
		}
		return h.Ledger.RebuildWithin(ctx, ledger.NewGormStore(tx), restored...)
	})
}
