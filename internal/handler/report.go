package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ReberMislem/Exchange-app/internal/report"
	"github.com/ReberMislem/Exchange-app/internal/util"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves the summary, dashboard and file exports.
type ReportHandler struct {
	Reports *report.Service
}

func NewReportHandler(reports *report.Service) *ReportHandler {
	return &ReportHandler{Reports: reports}
}

func (h *ReportHandler) Summary(c *gin.Context) {
	s, err := h.Reports.Summary(c.Request.Context())
	if err != nil {
		writeError(c, err, "build summary")
		return
	}
	util.Success(c, util.Response{"summary": s})
}

func (h *ReportHandler) Dashboard(c *gin.Context) {
	d, err := h.Reports.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err, "build dashboard")
		return
	}
	util.Success(c, util.Response{"dashboard": d})
}

func (h *ReportHandler) ExportTransactionsXLSX(c *gin.Context) {
	h.export(c, "transactions", "xlsx", report.ContentTypeXLSX, h.Reports.WriteTransactionsXLSX)
}

func (h *ReportHandler) ExportExpensesXLSX(c *gin.Context) {
	h.export(c, "expenses", "xlsx", report.ContentTypeXLSX, h.Reports.WriteExpensesXLSX)
}

func (h *ReportHandler) ExportCashboxCSV(c *gin.Context) {
	h.export(c, "cashbox", "csv", report.ContentTypeCSV, h.Reports.WriteCashboxCSV)
}

func (h *ReportHandler) ExportSummaryPDF(c *gin.Context) {
	h.export(c, "summary", "pdf", report.ContentTypePDF, h.Reports.WriteSummaryPDF)
}

// export renders into a buffer first so a failure can still produce a JSON
// error instead of a truncated file.
func (h *ReportHandler) export(c *gin.Context, name, ext, contentType string, write func(context.Context, io.Writer) error) {
	var buf bytes.Buffer
	if err := write(c.Request.Context(), &buf); err != nil {
		writeError(c, err, "export "+name)
		return
	}
	fileName := fmt.Sprintf("%s_%s.%s", name, time.Now().Format("20060102_150405"), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", fileName))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
