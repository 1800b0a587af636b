package httpapi

import (
	"fmt"
	"net/http"

	"contacthub-data/internal/query"
	"contacthub-data/internal/service"

	"go.uber.org/zap"
)

// ExportHandler 批量导出接口
type ExportHandler struct {
	exports service.ExportService
	logger  *zap.Logger
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exports service.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{exports: exports, logger: logger}
}

// Export 导出为 xlsx/csv。body 同时承载过滤参数和导出选项；
// fields/format/skipPagination 之外的键全部交给 FilterCompiler
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid JSON body"))
		return
	}

	req := service.ExportContactsRequest{}
	if v, ok := body["fields"].([]any); ok {
		for _, item := range v {
			if s, ok := item.(string); ok {
				req.Fields = append(req.Fields, s)
			}
		}
	}
	if v, ok := body["format"].(string); ok {
		req.Format = v
	}
	if v, ok := body["skipPagination"].(bool); ok {
		req.SkipPagination = v
	}
	delete(body, "fields")
	delete(body, "format")
	delete(body, "skipPagination")
	req.Params = query.ParamsFromJSON(body)

	resp, err := h.exports.ExportContacts(r.Context(), req)
	if err != nil {
		h.logger.Error("export failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("export failed"))
		return
	}

	w.Header().Set("Content-Type", resp.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resp.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp.Data)
}
