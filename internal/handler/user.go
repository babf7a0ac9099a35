package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/models"
	"github.com/ReberMislem/Exchange-app/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func userView(u *models.User) gin.H {
	return gin.H{
		"id":            u.ID,
		"username":      u.Username,
		"role":          u.Role,
		"created_at":    u.CreatedAt,
		"last_login_at": u.LastLoginAt,
	}
}

// GetMe returns the logged-in user.
func GetMe(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	util.Success(c, util.Response{"user": userView(user)})
}

// UserHandler is the admin-only user management API.
type UserHandler struct {
	DB         *gorm.DB
	BcryptCost int
}

func NewUserHandler(db *gorm.DB, bcryptCost int) *UserHandler {
	return &UserHandler{DB: db, BcryptCost: bcryptCost}
}

type userReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password"`
	Role     string `json:"role" binding:"required,oneof=admin editor viewer"`
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.DB.Order("id ASC").Find(&users).Error; err != nil {
		writeError(c, err, "list users")
		return
	}
	items := make([]gin.H, 0, len(users))
	for i := range users {
		items = append(items, userView(&users[i]))
	}
	util.Success(c, util.Response{"items": items})
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req userReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := util.ValidateUsername(req.Username); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if err := util.ValidatePassword(req.Password); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if taken, err := h.usernameTaken(req.Username, 0); err != nil {
		writeError(c, err, "create user")
		return
	} else if taken {
		util.Error(c, http.StatusConflict, util.CodeConflict, "username already exists")
		return
	}

	hash, err := util.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		writeError(c, err, "create user")
		return
	}
	user := models.User{Username: req.Username, PasswordHash: hash, Role: req.Role}
	if err := h.DB.Create(&user).Error; err != nil {
		writeError(c, err, "create user")
		return
	}
	util.Success(c, util.Response{"user": userView(&user)})
}

// UpdateUser changes username and role, and the password when one is sent.
// Admins edit their own account through the profile endpoints.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	me := currentUser(c)
	if me == nil {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if id == me.ID {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "use the profile page to edit your own account")
		return
	}
	var req userReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := util.ValidateUsername(req.Username); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		writeError(c, err, "update user")
		return
	}
	if taken, err := h.usernameTaken(req.Username, id); err != nil {
		writeError(c, err, "update user")
		return
	} else if taken {
		util.Error(c, http.StatusConflict, util.CodeConflict, "username already exists")
		return
	}

	user.Username = req.Username
	user.Role = req.Role
	if req.Password != "" {
		if err := util.ValidatePassword(req.Password); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
			return
		}
		hash, err := util.HashPassword(req.Password, h.BcryptCost)
		if err != nil {
			writeError(c, err, "update user")
			return
		}
		user.PasswordHash = hash
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		// role or password changes end existing sessions
		return revokeSessions(tx, user.ID)
	})
	if err != nil {
		writeError(c, err, "update user")
		return
	}
	util.Success(c, util.Response{"user": userView(&user)})
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	me := currentUser(c)
	if me == nil {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if id == me.ID {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "you cannot delete your own account")
		return
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		writeError(c, err, "delete user")
		return
	}
	util.Success(c, util.Response{"message": "deleted"})
}

func (h *UserHandler) usernameTaken(name string, exceptID uint) (bool, error) {
	var n int64
	q := h.DB.Model(&models.User{}).Where("LOWER(username) = LOWER(?)", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func revokeSessions(tx *gorm.DB, userID uint) error {
	err := tx.Model(&models.Session{}).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, time.Now().UTC()).
		Update("revoked", true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
