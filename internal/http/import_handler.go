package httpapi

import (
	"errors"
	"net/http"

	"contacthub-data/internal/ingest"
	"contacthub-data/internal/service"

	"go.uber.org/zap"
)

// ImportHandler 批量导入接口
type ImportHandler struct {
	imports service.ImportService
	logger  *zap.Logger
}

// NewImportHandler 创建 ImportHandler
func NewImportHandler(imports service.ImportService, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{imports: imports, logger: logger}
}

// Import 执行导入。管线级失败（空输入/超上限/无可用行）返回 400，
// 行级/记录级错误进响应体，不影响 HTTP 状态
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req service.ImportContactsRequest
	if err := readBodyJSON(r, 64<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid JSON body"))
		return
	}

	resp, err := h.imports.ImportContacts(r.Context(), req)
	if err != nil {
		if errors.Is(err, ingest.ErrEmptyImport) ||
			errors.Is(err, ingest.ErrTooManyRows) ||
			errors.Is(err, service.ErrNoUsableRows) {
			writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
			return
		}
		h.logger.Error("import failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("import failed"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Progress 轮询导入进度
func (h *ImportHandler) Progress(w http.ResponseWriter, r *http.Request, jobID string) {
	p, err := h.imports.GetImportProgress(r.Context(), jobID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

// Template 下载导入模板
func (h *ImportHandler) Template(w http.ResponseWriter, _ *http.Request) {
	data, err := service.GenerateContactImportTemplate()
	if err != nil {
		h.logger.Error("template generation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("template generation failed"))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="contact-import-template.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
