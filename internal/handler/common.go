package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ReberMislem/Exchange-app/internal/currency"
	"github.com/ReberMislem/Exchange-app/internal/ledger"
	"github.com/ReberMislem/Exchange-app/internal/middleware"
	"github.com/ReberMislem/Exchange-app/internal/models"
	"github.com/ReberMislem/Exchange-app/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// currentUser writes 401 and returns nil when the request is anonymous.
func currentUser(c *gin.Context) *models.User {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
	}
	return user
}

// idParam parses :id, writing 400 on failure.
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// queryID parses an optional numeric query parameter; 0 means absent.
func queryID(c *gin.Context, name string) uint {
	id, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

type pagination struct {
	Page   int
	Size   int
	Offset int
}

func pageParams(c *gin.Context, defaultSize int) pagination {
	if defaultSize <= 0 {
		defaultSize = 50
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.Query("page_size"))
	if size <= 0 || size > 500 {
		size = defaultSize
	}
	return pagination{Page: page, Size: size, Offset: (page - 1) * size}
}

// writeError maps domain errors onto the JSON envelope. what names the
// failed operation for the 500 message.
func writeError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, currency.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "record not found")
	case errors.Is(err, ledger.ErrInvalidCurrency),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidKind),
		errors.Is(err, currency.ErrInvalidCode),
		errors.Is(err, currency.ErrInvalidRate):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	case errors.Is(err, currency.ErrDuplicateCode),
		errors.Is(err, currency.ErrInUse):
		util.Error(c, http.StatusConflict, util.CodeConflict, err.Error())
	default:
		slog.Error(what+" failed", "error", err, "path", c.Request.URL.Path)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, what+" failed")
	}
}
