package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/models"
	"github.com/ReberMislem/Exchange-app/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestIDHeader carries the per-request id in both directions.
const RequestIDHeader = "X-Request-ID"

// maxAuditBody is the largest request body copied into the audit action.
const maxAuditBody = 2000

// RequestLogger logs one line per request and tags it with a request id.
func RequestLogger(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("requestID", reqID)
		c.Header(RequestIDHeader, reqID)

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"request_id", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
		}
		if user := CurrentUser(c); user != nil {
			attrs = append(attrs, "user", user.Username)
		}
		switch {
		case status >= http.StatusInternalServerError:
			l.Error("request", attrs...)
		case status >= http.StatusBadRequest:
			l.Warn("request", attrs...)
		default:
			l.Info("request", attrs...)
		}
	}
}

// AuditMiddleware stores an encrypted audit record for every mutating call
// made by a logged-in user.
func AuditMiddleware(db *gorm.DB, encryptKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		c.Next()

		user := CurrentUser(c)
		if user == nil {
			return
		}

		path := c.Request.URL.Path
		action := c.Request.Method + " " + path
		if len(body) > 0 && len(body) < maxAuditBody {
			action += " " + string(body)
		}

		entry := models.AuditLog{
			UserID:    &user.ID,
			Method:    c.Request.Method,
			PathEnc:   encryptField(encryptKey, path),
			ActionEnc: encryptField(encryptKey, action),
			Status:    c.Writer.Status(),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		if err := db.Create(&entry).Error; err != nil {
			slog.Warn("write audit log failed", "error", err)
		}
	}
}

// encryptField leaves plain text untouched when no key is configured.
func encryptField(key, plain string) string {
	if plain == "" || key == "" {
		return plain
	}
	enc, err := util.EncryptString(key, plain)
	if err != nil {
		return ""
	}
	return enc
}
