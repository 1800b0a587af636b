package httpapi

import (
	"errors"
	"net/http"

	"contacthub-data/internal/domain"
	"contacthub-data/internal/query"
	"contacthub-data/internal/repository"
	"contacthub-data/internal/service"

	"go.uber.org/zap"
)

// ContactHandler 联系人查询/维护接口
type ContactHandler struct {
	contacts service.ContactService
	avatar   *service.AvatarClient // 可为 nil（媒体服务未启用）
	logger   *zap.Logger
}

// NewContactHandler 创建 ContactHandler
func NewContactHandler(contacts service.ContactService, avatar *service.AvatarClient, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{contacts: contacts, avatar: avatar, logger: logger}
}

// Search GET 用 query string，POST 用 JSON body，过滤语义相同。
// 畸形过滤输入从不 4xx —— FilterCompiler 宽容降级
func (h *ContactHandler) Search(w http.ResponseWriter, r *http.Request) {
	var params query.Params
	switch r.Method {
	case http.MethodGet:
		params = query.Params(r.URL.Query())
	case http.MethodPost:
		var body map[string]any
		if err := readBodyJSON(r, 1<<20, &body); err != nil {
			writeJSON(w, http.StatusBadRequest, Fail("invalid JSON body"))
			return
		}
		params = query.ParamsFromJSON(body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	resp, err := h.contacts.SearchContacts(r.Context(), service.SearchContactsRequest{Params: params})
	if err != nil {
		h.logger.Error("contact search failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("search failed"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Get 按 id 查询
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request, contactID string) {
	c, err := h.contacts.GetContact(r.Context(), contactID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, Fail("contact not found"))
			return
		}
		h.logger.Error("get contact failed", zap.Error(err), zap.String("contact_id", contactID))
		writeJSON(w, http.StatusInternalServerError, Fail("get contact failed"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(c))
}

// Create 单条创建
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c domain.Contact
	if err := readBodyJSON(r, 1<<20, &c); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid JSON body"))
		return
	}

	created, err := h.contacts.CreateContact(r.Context(), service.CreateContactRequest{Contact: c})
	if err != nil {
		if errors.Is(err, domain.ErrNameRequired) ||
			errors.Is(err, domain.ErrMainHasParent) ||
			errors.Is(err, domain.ErrRelatedWithoutParent) {
			writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
			return
		}
		h.logger.Error("create contact failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("create contact failed"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(created))
}

// Update 按 patch 更新
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request, contactID string) {
	var patch map[string]any
	if err := readBodyJSON(r, 1<<20, &patch); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid JSON body"))
		return
	}

	updated, err := h.contacts.UpdateContact(r.Context(), contactID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, Fail("contact not found"))
			return
		}
		h.logger.Error("update contact failed", zap.Error(err), zap.String("contact_id", contactID))
		writeJSON(w, http.StatusInternalServerError, Fail("update contact failed"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(updated))
}

// AvatarUpload 为联系人头像换取签名上传URL
func (h *ContactHandler) AvatarUpload(w http.ResponseWriter, r *http.Request, contactID string) {
	if h.avatar == nil {
		writeJSON(w, http.StatusServiceUnavailable, Fail("avatar service is not enabled"))
		return
	}

	var req service.AvatarSignRequest
	if err := readBodyJSON(r, 64<<10, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid JSON body"))
		return
	}
	req.ContactID = contactID

	// 先确认联系人存在，避免为幽灵 id 签发上传URL
	if _, err := h.contacts.GetContact(r.Context(), contactID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, Fail("contact not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, Fail("get contact failed"))
		return
	}

	signed, err := h.avatar.SignUpload(r.Context(), req)
	if err != nil {
		h.logger.Error("avatar sign failed", zap.Error(err), zap.String("contact_id", contactID))
		writeJSON(w, http.StatusBadGateway, Fail("avatar service error"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(signed))
}
