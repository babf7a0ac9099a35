package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the data part of a success envelope.
type Response map[string]interface{}

// Business error codes carried next to the HTTP status.
const (
	CodeOK           = 0
	CodeInvalidParam = 40001
	CodeAuth         = 40101
	CodeForbidden    = 40301
	CodeNotFound     = 40401
	CodeConflict     = 40901
	CodeTooMany      = 42901
	CodeServerErr    = 50001
)

// Success writes {"code":0,"data":...}.
func Success(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// Error writes {"code":N,"message":...}.
func Error(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
	})
}

// Abort is Error followed by c.Abort, for middleware.
func Abort(c *gin.Context, httpStatus int, code int, msg string) {
	Error(c, httpStatus, code, msg)
	c.Abort()
}
