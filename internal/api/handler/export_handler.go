package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Kot-Pawel/squashLeague/internal/service"
	"github.com/Kot-Pawel/squashLeague/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportMatchRequests 导出约球申请
// GET /api/v1/export/match-requests.xlsx
func (h *ExportHandler) ExportMatchRequests(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportMatchRequests(c.Request.Context(), userID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeAttachment(c, buf, filename, contentTypeXLSX)
}

// ExportMatchesICS 导出已接受的约球日历
// GET /api/v1/export/matches.ics
func (h *ExportHandler) ExportMatchesICS(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportMatchesICS(c.Request.Context(), userID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeAttachment(c, buf, filename, contentTypeICS)
}

// writeAttachment 设置下载响应头并写入文件内容
func writeAttachment(c *gin.Context, buf *bytes.Buffer, filename, contentType string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 16001, "生成导出文件失败")
	default:
		response.InternalError(c)
	}
}
