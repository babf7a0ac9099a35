package handler

import (
	"net/http"

	"github.com/ReberMislem/Exchange-app/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ChangePasswordReq is the body of POST /api/profile/password.
type ChangePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword changes the current user's password and closes all of the
// user's sessions, including this one.
func ChangePassword(db *gorm.DB, bcryptCost int) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			return
		}

		var req ChangePasswordReq
		if err := c.ShouldBindJSON(&req); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
			return
		}
		if !util.CheckPassword(req.OldPassword, user.PasswordHash) {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "old password is wrong")
			return
		}
		if err := util.ValidatePassword(req.NewPassword); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
			return
		}

		hash, err := util.HashPassword(req.NewPassword, bcryptCost)
		if err != nil {
			writeError(c, err, "change password")
			return
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(user).Update("password_hash", hash).Error; err != nil {
				return err
			}
			return revokeSessions(tx, user.ID)
		})
		if err != nil {
			writeError(c, err, "change password")
			return
		}

		util.Success(c, util.Response{
			"message": "password changed, please log in again",
		})
	}
}
