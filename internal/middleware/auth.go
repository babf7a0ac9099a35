package middleware

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

// Context keys set by AuthMiddleware.
const (
	CtxUser    = "currentUser"
	CtxSession = "sessionID"
)

// TokenCookie is the cookie checked when no Authorization header is sent.
const TokenCookie = "exb_token"

var roleRank = map[string]int{
	models.RoleViewer: 1,
	models.RoleEditor: 2,
	models.RoleAdmin:  3,
}

// AuthMiddleware validates the JWT, checks that its session is still open
// and puts the current user into the context.
func AuthMiddleware(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			util.Abort(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
			return
		}

		claims, err := util.ParseToken(jwtSecret, tokenStr)
		if err != nil || claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
			util.Abort(c, http.StatusUnauthorized, util.CodeAuth, "session expired, please log in again")
			return
		}

		var sess models.Session
		if err := db.Where("id = ? AND user_id = ?", claims.ID, claims.UserID).First(&sess).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				util.Abort(c, http.StatusUnauthorized, util.CodeAuth, "session not found")
			} else {
				util.Abort(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load session")
			}
			return
		}
		if sess.Revoked || sess.ExpiresAt.Before(time.Now()) {
			util.Abort(c, http.StatusUnauthorized, util.CodeAuth, "session expired, please log in again")
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				util.Abort(c, http.StatusUnauthorized, util.CodeAuth, "user does not exist")
			} else {
				util.Abort(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load user")
			}
			return
		}

		c.Set(CtxUser, &user)
		c.Set(CtxSession, sess.ID)
		c.Next()
	}
}

// bearerToken looks at the Authorization header, then ?token= (file
// downloads), then the token cookie.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if t := c.Query("token"); t != "" {
		return t
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

// CurrentUser returns the user set by AuthMiddleware, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CtxUser)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// HasRole reports whether role grants at least min.
func HasRole(role, min string) bool {
	return roleRank[role] >= roleRank[min] && roleRank[min] > 0
}

// RequireRole rejects users below min.
func RequireRole(min string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			util.Abort(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
			return
		}
		if !HasRole(user.Role, min) {
			util.Abort(c, http.StatusForbidden, util.CodeForbidden, "permission denied")
			return
		}
		c.Next()
	}
}

// ReadOnlyForViewers lets every role read and requires editor for anything
// that is not GET or HEAD.
func ReadOnlyForViewers() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		user := CurrentUser(c)
		if user == nil || !HasRole(user.Role, models.RoleEditor) {
			util.Abort(c, http.StatusForbidden, util.CodeForbidden, "read-only account")
			return
		}
		c.Next()
	}
}
