package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/currency"
	"github.com/ReberMislem/Exchange-app/internal/models"
	"github.com/ReberMislem/Exchange-app/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DebtHandler manages the debt book. Debts never touch the cashbox.
type DebtHandler struct {
	DB         *gorm.DB
	Currencies *currency.Service
}

func NewDebtHandler(db *gorm.DB, currencies *currency.Service) *DebtHandler {
	return &DebtHandler{DB: db, Currencies: currencies}
}

type debtReq struct {
	PersonName string          `json:"person_name" binding:"required,max=100"`
	Amount     decimal.Decimal `json:"amount"`
	CurrencyID uint            `json:"currency_id" binding:"required"`
	DueDate    string          `json:"due_date"` // YYYY-MM-DD, optional
	Notes      string          `json:"notes" binding:"max=255"`
}

func (h *DebtHandler) apply(c *gin.Context, req debtReq, d *models.Debt) bool {
	name := strings.TrimSpace(req.PersonName)
	if name == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "person name is required")
		return false
	}
	if err := util.ValidateAmount(req.Amount); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return false
	}
	if _, err := h.Currencies.Get(c.Request.Context(), req.CurrencyID); err != nil {
		writeError(c, err, "load currency")
		return false
	}
	d.DueDate = nil
	if req.DueDate != "" {
		if err := util.ValidateDate(req.DueDate); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "due date: "+err.Error())
			return false
		}
		due, _ := time.Parse("2006-01-02", req.DueDate)
		d.DueDate = &due
	}
	d.PersonName = name
	d.Amount = req.Amount
	d.CurrencyID = req.CurrencyID
	d.Notes = req.Notes
	return true
}

// ListDebts supports ?paid=true|false.
func (h *DebtHandler) ListDebts(c *gin.Context) {
	q := h.DB.Model(&models.Debt{})
	switch c.Query("paid") {
	case "true":
		q = q.Where("is_paid = ?", true)
	case "false":
		q = q.Where("is_paid = ?", false)
	}
	var list []models.Debt
	if err := q.Order("is_paid ASC, date DESC, id DESC").Find(&list).Error; err != nil {
		writeError(c, err, "list debts")
		return
	}

	outstanding := map[uint]decimal.Decimal{}
	for _, d := range list {
		if !d.IsPaid {
			outstanding[d.CurrencyID] = outstanding[d.CurrencyID].Add(d.Amount)
		}
	}
	util.Success(c, util.Response{
		"items":       list,
		"outstanding": outstanding,
	})
}

func (h *DebtHandler) CreateDebt(c *gin.Context) {
	var req debtReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	d := models.Debt{Date: time.Now().UTC()}
	if !h.apply(c, req, &d) {
		return
	}
	if err := h.DB.Create(&d).Error; err != nil {
		writeError(c, err, "create debt")
		return
	}
	util.Success(c, util.Response{"debt": d})
}

func (h *DebtHandler) UpdateDebt(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req debtReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	var d models.Debt
	if err := h.DB.First(&d, id).Error; err != nil {
		writeError(c, err, "load debt")
		return
	}
	if !h.apply(c, req, &d) {
		return
	}
	if err := h.DB.Omit("Currency").Save(&d).Error; err != nil {
		writeError(c, err, "update debt")
		return
	}
	util.Success(c, util.Response{"debt": d})
}

// PayDebt marks the debt as settled.
func (h *DebtHandler) PayDebt(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	res := h.DB.Model(&models.Debt{}).Where("id = ?", id).Update("is_paid", true)
	if res.Error != nil {
		writeError(c, res.Error, "pay debt")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "record not found")
		return
	}
	util.Success(c, util.Response{"message": "paid"})
}

func (h *DebtHandler) DeleteDebt(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	res := h.DB.Delete(&models.Debt{}, id)
	if res.Error != nil {
		writeError(c, res.Error, "delete debt")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "record not found")
		return
	}
	util.Success(c, util.Response{"message": "deleted"})
}
