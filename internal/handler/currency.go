package handler

import (
	"net/http"

	"github.com/ReberMislem/Exchange-app/internal/currency"
	"github.com/ReberMislem/Exchange-app/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CurrencyHandler exposes the currency registry.
type CurrencyHandler struct {
	Currencies *currency.Service
}

func NewCurrencyHandler(svc *currency.Service) *CurrencyHandler {
	return &CurrencyHandler{Currencies: svc}
}

type currencyReq struct {
	Code string          `json:"code" binding:"required,max=10"`
	Name string          `json:"name" binding:"max=64"`
	Rate decimal.Decimal `json:"rate"`
}

func (r currencyReq) input() currency.Input {
	return currency.Input{Code: r.Code, Name: r.Name, Rate: r.Rate}
}

func (h *CurrencyHandler) ListCurrencies(c *gin.Context) {
	list, err := h.Currencies.List(c.Request.Context())
	if err != nil {
		writeError(c, err, "list currencies")
		return
	}
	util.Success(c, util.Response{"items": list})
}

func (h *CurrencyHandler) GetCurrency(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	cur, err := h.Currencies.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "get currency")
		return
	}
	util.Success(c, util.Response{"currency": cur})
}

func (h *CurrencyHandler) CreateCurrency(c *gin.Context) {
	var req currencyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	cur, err := h.Currencies.Create(c.Request.Context(), req.input())
	if err != nil {
		writeError(c, err, "create currency")
		return
	}
	util.Success(c, util.Response{"currency": cur})
}

// UpdateCurrency returns the exchange diff written by a rate change, if any.
func (h *CurrencyHandler) UpdateCurrency(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req currencyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	cur, diff, err := h.Currencies.Update(c.Request.Context(), id, req.input())
	if err != nil {
		writeError(c, err, "update currency")
		return
	}
	util.Success(c, util.Response{"currency": cur, "exchange_diff": diff})
}

func (h *CurrencyHandler) DeleteCurrency(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Currencies.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err, "delete currency")
		return
	}
	util.Success(c, util.Response{"message": "deleted"})
}

func (h *CurrencyHandler) ListDiffs(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	diffs, err := h.Currencies.Diffs(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "list exchange diffs")
		return
	}
	util.Success(c, util.Response{"items": diffs})
}
