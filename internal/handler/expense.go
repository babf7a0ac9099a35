package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/ledger"
	"github.com/ReberMislem/Exchange-app/internal/models"
	"github.com/ReberMislem/Exchange-app/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseHandler handles expenses; every write moves the cashbox.
type ExpenseHandler struct {
	DB       *gorm.DB
	Ledger   *ledger.Engine
	PageSize int
}

func NewExpenseHandler(db *gorm.DB, engine *ledger.Engine, pageSize int) *ExpenseHandler {
	return &ExpenseHandler{DB: db, Ledger: engine, PageSize: pageSize}
}

type expenseReq struct {
	Category   string          `json:"category" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
	CurrencyID uint            `json:"currency_id" binding:"required"`
	Notes      string          `json:"notes" binding:"max=255"`
	OccurredAt string          `json:"occurred_at"`
}

func (r expenseReq) input(c *gin.Context) (ledger.ExpenseInput, bool) {
	if err := util.ValidateCategory(r.Category); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return ledger.ExpenseInput{}, false
	}
	if err := util.ValidateAmount(r.Amount); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return ledger.ExpenseInput{}, false
	}
	at, err := util.ParseEventTime(r.OccurredAt)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return ledger.ExpenseInput{}, false
	}
	return ledger.ExpenseInput{
		Category:   strings.TrimSpace(r.Category),
		Amount:     r.Amount,
		CurrencyID: r.CurrencyID,
		Notes:      r.Notes,
		OccurredAt: at,
	}, true
}

type expenseResp struct {
	ID           uint            `json:"id"`
	Category     string          `json:"category"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyID   uint            `json:"currency_id"`
	CurrencyCode string          `json:"currency_code"`
	Notes        string          `json:"notes"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

func toExpenseResp(e *models.Expense) expenseResp {
	return expenseResp{
		ID:           e.ID,
		Category:     e.Category,
		Amount:       e.Amount,
		CurrencyID:   e.CurrencyID,
		CurrencyCode: e.Currency.Code,
		Notes:        e.Notes,
		OccurredAt:   e.OccurredAt,
	}
}

// ListExpenses supports ?category=, ?currency_id=, ?start=/&end= and paging.
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	p := pageParams(c, h.PageSize)

	q := h.DB.Model(&models.Expense{})
	if cat := strings.TrimSpace(c.Query("category")); cat != "" {
		q = q.Where("category = ?", cat)
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
		writeError(c, err, "list expenses")
		return
	}
	var list []models.Expense
	if err := q.Preload("Currency").
		Order("occurred_at DESC, id DESC").
		Limit(p.Size).Offset(p.Offset).
		Find(&list).Error; err != nil {
		writeError(c, err, "list expenses")
		return
	}

	items := make([]expenseResp, 0, len(list))
	for i := range list {
		items = append(items, toExpenseResp(&list[i]))
	}
	util.Success(c, util.Response{
		"items": items,
		"total": total,
		"page":  p.Page,
		"size":  p.Size,
	})
}

func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var e models.Expense
	if err := h.DB.Preload("Currency").First(&e, id).Error; err != nil {
		writeError(c, err, "get expense")
		return
	}
	util.Success(c, util.Response{"expense": toExpenseResp(&e)})
}

func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req expenseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	in, ok := req.input(c)
	if !ok {
		return
	}
	e, entry, err := h.Ledger.RecordExpense(c.Request.Context(), in)
	if err != nil {
		writeError(c, err, "record expense")
		return
	}
	h.reload(e)
	util.Success(c, util.Response{
		"expense":       toExpenseResp(e),
		"cashbox_entry": entry,
	})
}

func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req expenseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	in, ok := req.input(c)
	if !ok {
		return
	}
	e, err := h.Ledger.EditExpense(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err, "edit expense")
		return
	}
	h.reload(e)
	util.Success(c, util.Response{"expense": toExpenseResp(e)})
}

func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Ledger.DeleteExpense(c.Request.Context(), id); err != nil {
		writeError(c, err, "delete expense")
		return
	}
	util.Success(c, util.Response{"message": "deleted"})
}

// reload fills the currency association for the response.
func (h *ExpenseHandler) reload(e *models.Expense) {
	if err := h.DB.First(&e.Currency, e.CurrencyID).Error; err != nil {
		slog.Warn("load expense currency failed", "expense_id", e.ID, "error", err)
	}
}
