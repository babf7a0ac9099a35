package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/middleware"
	"github.com/ReberMislem/Exchange-app/internal/models"
	"github.com/ReberMislem/Exchange-app/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthHandler handles login and logout.
type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

func NewAuthHandler(db *gorm.DB, jwtSecret, issuer string, ttlHours int) *AuthHandler {
	if ttlHours <= 0 {
		ttlHours = 12
	}
	return &AuthHandler{
		DB:        db,
		JWTSecret: jwtSecret,
		Issuer:    issuer,
		TokenTTL:  time.Duration(ttlHours) * time.Hour,
	}
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	var user models.User
	if err := h.DB.Where("LOWER(username) = LOWER(?)", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "wrong username or password")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load user")
		}
		return
	}
	if !util.CheckPassword(req.Password, user.PasswordHash) {
		slog.Warn("failed login", "username", req.Username, "ip", c.ClientIP())
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "wrong username or password")
		return
	}

	now := time.Now().UTC()
	sess := models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(h.TokenTTL),
	}
	token, err := util.GenerateToken(h.JWTSecret, h.Issuer, user.ID, user.Role, sess.ID, h.TokenTTL)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to issue token")
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sess).Error; err != nil {
			return err
		}
		return tx.Model(&user).Updates(map[string]interface{}{
			"last_login_at": now,
			"last_login_ip": c.ClientIP(),
		}).Error
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to open session")
		return
	}

	util.Success(c, util.Response{
		"token":      token,
		"expires_at": sess.ExpiresAt,
		"user":       userView(&user),
	})
}

// Logout revokes the session behind the presented token.
func (h *AuthHandler) Logout(c *gin.Context) {
	sid := c.GetString(middleware.CtxSession)
	if sid == "" {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}
	if err := h.DB.Model(&models.Session{}).Where("id = ?", sid).Update("revoked", true).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "logout failed")
		return
	}
	util.Success(c, util.Response{"message": "logged out"})
}
