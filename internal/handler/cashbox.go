package handler

import (
	"net/http"
	"strconv"

	"github.com/ReberMislem/Exchange-app/internal/ledger"
	"github.com/ReberMislem/Exchange-app/internal/models"
	"github.com/ReberMislem/Exchange-app/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const cashboxListLimit = 200

// CashboxHandler exposes the cashbox chain, balances and manual adjustments.
type CashboxHandler struct {
	DB     *gorm.DB
	Ledger *ledger.Engine
}

func NewCashboxHandler(db *gorm.DB, engine *ledger.Engine) *CashboxHandler {
	return &CashboxHandler{DB: db, Ledger: engine}
}

type cashboxRow struct {
	models.CashboxEntry
	CurrencyCode string `json:"currency_code"`
}

// ListCashbox returns the latest rows, newest first. ?currency_id= narrows
// to one chain and ?limit= caps the result (max 200).
func (h *CashboxHandler) ListCashbox(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > cashboxListLimit {
		limit = cashboxListLimit
	}
	q := h.DB.Preload("Currency")
	if cid := queryID(c, "currency_id"); cid != 0 {
		q = q.Where("currency_id = ?", cid)
	}

	var rows []models.CashboxEntry
	if err := q.Order("occurred_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		writeError(c, err, "list cashbox")
		return
	}
	items := make([]cashboxRow, 0, len(rows))
	for _, r := range rows {
		items = append(items, cashboxRow{CashboxEntry: r, CurrencyCode: r.Currency.Code})
	}
	util.Success(c, util.Response{"items": items})
}

// Balances returns the latest balance per currency code.
func (h *CashboxHandler) Balances(c *gin.Context) {
	balances, err := h.Ledger.Balances(c.Request.Context())
	if err != nil {
		writeError(c, err, "load balances")
		return
	}
	util.Success(c, util.Response{
		"balances": balances,
		"strategy": h.Ledger.Strategy(),
	})
}

// ---------- adjustments ----------

type adjustmentReq struct {
	CurrencyID uint            `json:"currency_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note" binding:"max=255"`
	OccurredAt string          `json:"occurred_at"`
}

func (r adjustmentReq) input(c *gin.Context) (ledger.AdjustmentInput, bool) {
	// signed; only the magnitude is bounded
	if err := util.ValidateAmount(r.Amount.Abs()); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return ledger.AdjustmentInput{}, false
	}
	at, err := util.ParseEventTime(r.OccurredAt)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return ledger.AdjustmentInput{}, false
	}
	return ledger.AdjustmentInput{
		CurrencyID: r.CurrencyID,
		Amount:     r.Amount,
		Note:       r.Note,
		OccurredAt: at,
	}, true
}

func (h *CashboxHandler) ListAdjustments(c *gin.Context) {
	q := h.DB.Model(&models.Adjustment{})
	if cid := queryID(c, "currency_id"); cid != 0 {
		q = q.Where("currency_id = ?", cid)
	}
	var list []models.Adjustment
	if err := q.Order("occurred_at DESC, id DESC").Find(&list).Error; err != nil {
		writeError(c, err, "list adjustments")
		return
	}
	util.Success(c, util.Response{"items": list})
}

func (h *CashboxHandler) CreateAdjustment(c *gin.Context) {
	var req adjustmentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	in, ok := req.input(c)
	if !ok {
		return
	}
	a, entry, err := h.Ledger.RecordAdjustment(c.Request.Context(), in)
	if err != nil {
		writeError(c, err, "record adjustment")
		return
	}
	util.Success(c, util.Response{
		"adjustment":    a,
		"cashbox_entry": entry,
	})
}

func (h *CashboxHandler) UpdateAdjustment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req adjustmentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	in, ok := req.input(c)
	if !ok {
		return
	}
	a, err := h.Ledger.EditAdjustment(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err, "edit adjustment")
		return
	}
	util.Success(c, util.Response{"adjustment": a})
}

func (h *CashboxHandler) DeleteAdjustment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Ledger.DeleteAdjustment(c.Request.Context(), id); err != nil {
		writeError(c, err, "delete adjustment")
		return
	}
	util.Success(c, util.Response{"message": "deleted"})
}
