package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/models"
	"github.com/ReberMislem/Exchange-app/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LogHandler serves the audit log to admins.
type LogHandler struct {
	DB         *gorm.DB
	EncryptKey string
}

func NewLogHandler(db *gorm.DB, encryptKey string) *LogHandler {
	return &LogHandler{DB: db, EncryptKey: encryptKey}
}

// decryptField falls back to the stored value when it is not ciphertext.
func (h *LogHandler) decryptField(s string) string {
	if s == "" || h.EncryptKey == "" {
		return s
	}
	plain, err := util.DecryptString(h.EncryptKey, s)
	if err != nil {
		return s
	}
	return plain
}

type logResp struct {
	ID        uint      `json:"id"`
	UserID    *uint     `json:"user_id"`
	Username  string    `json:"username"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Action    string    `json:"action"`
	Status    int       `json:"status"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// ListLogs pages through audit logs. Filters: ?user_id=, ?method=,
// ?start=/&end= (YYYY-MM-DD) and ?q= matched against the decrypted path.
func (h *LogHandler) ListLogs(c *gin.Context) {
	p := pageParams(c, 20)

	base := h.DB.Model(&models.AuditLog{})
	if uid := queryID(c, "user_id"); uid != 0 {
		base = base.Where("user_id = ?", uid)
	}
	if m := strings.ToUpper(strings.TrimSpace(c.Query("method"))); m != "" {
		base = base.Where("method = ?", m)
	}
	if s := c.Query("start"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid start date")
			return
		}
		base = base.Where("created_at >= ?", t)
	}
	if s := c.Query("end"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid end date")
			return
		}
		base = base.Where("created_at < ?", t.Add(24*time.Hour))
	}

	var logs []models.AuditLog
	if err := base.Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		writeError(c, err, "list logs")
		return
	}

	// the path is encrypted, so keyword filtering happens after decryption
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	items := make([]logResp, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		item := logResp{
			ID:        l.ID,
			UserID:    l.UserID,
			Method:    l.Method,
			Path:      h.decryptField(l.PathEnc),
			Action:    h.decryptField(l.ActionEnc),
			Status:    l.Status,
			IP:        l.IP,
			UserAgent: l.UserAgent,
			CreatedAt: l.CreatedAt,
		}
		if q != "" && !strings.Contains(strings.ToLower(item.Path), q) &&
			!strings.Contains(strings.ToLower(item.Action), q) {
			continue
		}
		items = append(items, item)
	}

	total := len(items)
	start := p.Offset
	if start > total {
		start = total
	}
	end := start + p.Size
	if end > total {
		end = total
	}
	page := items[start:end]
	h.attachUsernames(page)

	util.Success(c, util.Response{
		"items": page,
		"total": total,
		"page":  p.Page,
		"size":  p.Size,
	})
}

func (h *LogHandler) attachUsernames(items []logResp) {
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		if it.UserID != nil {
			ids = append(ids, *it.UserID)
		}
	}
	if len(ids) == 0 {
		return
	}
	var users []models.User
	if err := h.DB.Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	for i := range items {
		if items[i].UserID != nil {
			items[i].Username = names[*items[i].UserID]
		}
	}
}
