package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/ledger"
	"github.com/ReberMislem/Exchange-app/internal/models"
	"github.com/ReberMislem/Exchange-app/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionHandler handles buy/sell transactions. Writes go through the
// ledger engine so the cashbox stays consistent.
type TransactionHandler struct {
	DB       *gorm.DB
	Ledger   *ledger.Engine
	PageSize int
}

func NewTransactionHandler(db *gorm.DB, engine *ledger.Engine, pageSize int) *TransactionHandler {
	return &TransactionHandler{DB: db, Ledger: engine, PageSize: pageSize}
}

type transactionReq struct {
	Type       string          `json:"type" binding:"required,oneof=buy sell"`
	CurrencyID uint            `json:"currency_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
	BuyRate    decimal.Decimal `json:"buy_rate"`
	SellRate   decimal.Decimal `json:"sell_rate"`
	Notes      string          `json:"notes" binding:"max=255"`
	OccurredAt string          `json:"occurred_at"`
}

// input validates the request; on failure it writes 400 and returns false.
func (r transactionReq) input(c *gin.Context) (ledger.TransactionInput, bool) {
	if err := util.ValidateAmount(r.Quantity); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "quantity: "+err.Error())
		return ledger.TransactionInput{}, false
	}
	for _, rate := range []decimal.Decimal{r.BuyRate, r.SellRate} {
		if err := util.ValidateRate(rate); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
			return ledger.TransactionInput{}, false
		}
	}
	at, err := util.ParseEventTime(r.OccurredAt)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return ledger.TransactionInput{}, false
	}
	return ledger.TransactionInput{
		Type:       r.Type,
		CurrencyID: r.CurrencyID,
		Quantity:   r.Quantity,
		BuyRate:    r.BuyRate,
		SellRate:   r.SellRate,
		Notes:      r.Notes,
		OccurredAt: at,
	}, true
}

type transactionResp struct {
	ID              uint            `json:"id"`
	Type            string          `json:"type"`
	CurrencyID      uint            `json:"currency_id"`
	CurrencyCode    string          `json:"currency_code"`
	Quantity        decimal.Decimal `json:"quantity"`
	BuyRate         decimal.Decimal `json:"buy_rate"`
	SellRate        decimal.Decimal `json:"sell_rate"`
	TotalValueLocal decimal.Decimal `json:"total_value_local"`
	Profit          decimal.Decimal `json:"profit"`
	Notes           string          `json:"notes"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

func toTransactionResp(t *models.Transaction) transactionResp {
	return transactionResp{
		ID:              t.ID,
		Type:            t.Type,
		CurrencyID:      t.CurrencyID,
		CurrencyCode:    t.Currency.Code,
		Quantity:        t.Quantity,
		BuyRate:         t.BuyRate,
		SellRate:        t.SellRate,
		TotalValueLocal: t.TotalValueLocal,
		Profit:          t.Profit,
		Notes:           t.Notes,
		OccurredAt:      t.OccurredAt,
	}
}

// ListTransactions supports ?type=, ?currency_id=, ?start=/&end= (YYYY-MM-DD)
// and page/page_size.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	p := pageParams(c, h.PageSize)

	q := h.DB.Model(&models.Transaction{})
	if typ := c.Query("type"); typ != "" {
		q = q.Where("type = ?", typ)
	}
	if cid := queryID(c, "currency_id"); cid != 0 {
		q = q.Where("currency_id = ?", cid)
	}
	q, ok := dateRange(c, q)
	if !ok {
		return
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		writeError(c, err, "list transactions")
		return
	}
	var list []models.Transaction
	if err := q.Preload("Currency").
		Order("occurred_at DESC, id DESC").
		Limit(p.Size).Offset(p.Offset).
		Find(&list).Error; err != nil {
		writeError(c, err, "list transactions")
		return
	}

	items := make([]transactionResp, 0, len(list))
	for i := range list {
		items = append(items, toTransactionResp(&list[i]))
	}
	util.Success(c, util.Response{
		"items": items,
		"total": total,
		"page":  p.Page,
		"size":  p.Size,
	})
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var t models.Transaction
	if err := h.DB.Preload("Currency").First(&t, id).Error; err != nil {
		writeError(c, err, "get transaction")
		return
	}
	util.Success(c, util.Response{"transaction": toTransactionResp(&t)})
}

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req transactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	in, ok := req.input(c)
	if !ok {
		return
	}
	t, entry, err := h.Ledger.RecordTransaction(c.Request.Context(), in)
	if err != nil {
		writeError(c, err, "record transaction")
		return
	}
	h.reload(t)
	util.Success(c, util.Response{
		"transaction":   toTransactionResp(t),
		"cashbox_entry": entry,
	})
}

func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req transactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	in, ok := req.input(c)
	if !ok {
		return
	}
	t, err := h.Ledger.EditTransaction(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err, "edit transaction")
		return
	}
	h.reload(t)
	util.Success(c, util.Response{"transaction": toTransactionResp(t)})
}

func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Ledger.DeleteTransaction(c.Request.Context(), id); err != nil {
		writeError(c, err, "delete transaction")
		return
	}
	util.Success(c, util.Response{"message": "deleted"})
}

// reload fills the currency association for the response. The event is
// already committed, so a failure only leaves the code empty.
func (h *TransactionHandler) reload(t *models.Transaction) {
	if err := h.DB.First(&t.Currency, t.CurrencyID).Error; err != nil {
		slog.Warn("load transaction currency failed", "transaction_id", t.ID, "error", err)
	}
}

// dateRange applies ?start= and ?end= (inclusive dates) to occurred_at.
func dateRange(c *gin.Context, q *gorm.DB) (*gorm.DB, bool) {
	if s := c.Query("start"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid start date")
			return q, false
		}
		q = q.Where("occurred_at >= ?", t.UTC())
	}
	if s := c.Query("end"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid end date")
			return q, false
		}
		q = q.Where("occurred_at < ?", t.UTC().Add(24*time.Hour))
	}
	return q, true
}
