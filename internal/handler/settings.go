package handler

import (
	"net/http"
	"strings"

	"github.com/ReberMislem/Exchange-app/internal/models"
	"github.com/ReberMislem/Exchange-app/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SettingsHandler reads and writes the single company settings row.
type SettingsHandler struct {
	DB *gorm.DB
}

func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{DB: db}
}

type settingsReq struct {
	CompanyName string `json:"company_name" binding:"required,max=100"`
	CompanyLogo string `json:"company_logo" binding:"max=200"`
}

// load returns the settings row, creating the default one on first use.
func (h *SettingsHandler) load() (*models.Settings, error) {
	var st models.Settings
	err := h.DB.Order("id ASC").
		Attrs(models.Settings{CompanyName: "Default Company", CompanyLogo: "bi-bank2"}).
		FirstOrCreate(&st).Error
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func settingsView(st *models.Settings) gin.H {
	return gin.H{
		"company_name": st.CompanyName,
		"company_logo": st.CompanyLogo,
		"updated_at":   st.UpdatedAt,
	}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	st, err := h.load()
	if err != nil {
		writeError(c, err, "load settings")
		return
	}
	util.Success(c, util.Response{"settings": settingsView(st)})
}

func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req settingsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	st, err := h.load()
	if err != nil {
		writeError(c, err, "update settings")
		return
	}
	st.CompanyName = strings.TrimSpace(req.CompanyName)
	st.CompanyLogo = strings.TrimSpace(req.CompanyLogo)
	if err := h.DB.Save(st).Error; err != nil {
		writeError(c, err, "update settings")
		return
	}
	util.Success(c, util.Response{"settings": settingsView(st)})
}
