package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

const contactsPrefix = "/data/api/v1/contacts"

// RegisterContactRoutes 注册联系人路由
func (r *Router) RegisterContactRoutes(contacts *ContactHandler, imports *ImportHandler, exports *ExportHandler) {
	// search（GET query string / POST body）
	r.Handle(contactsPrefix+"/search", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		contacts.Search(w, req)
	})

	// import
	r.Handle(contactsPrefix+"/import", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		imports.Import(w, req)
	})

	// import/template 和 import/{job}/progress
	r.Handle(contactsPrefix+"/import/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rest := strings.TrimPrefix(req.URL.Path, contactsPrefix+"/import/")
		switch {
		case rest == "template":
			imports.Template(w, req)
		case strings.HasSuffix(rest, "/progress"):
			jobID := strings.TrimSuffix(rest, "/progress")
			if jobID == "" || strings.Contains(jobID, "/") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			imports.Progress(w, req, jobID)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	// export
	r.Handle(contactsPrefix+"/export", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		exports.Export(w, req)
	})

	// create
	r.Handle(contactsPrefix, func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		contacts.Create(w, req)
	})

	// {id} 和 {id}/avatar-upload
	r.Handle(contactsPrefix+"/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, contactsPrefix+"/")

		if strings.HasSuffix(rest, "/avatar-upload") {
			if req.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			contactID := strings.TrimSuffix(rest, "/avatar-upload")
			if contactID == "" || strings.Contains(contactID, "/") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			contacts.AvatarUpload(w, req, contactID)
			return
		}

		if rest == "" || strings.Contains(rest, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch req.Method {
		case http.MethodGet:
			contacts.Get(w, req, rest)
		case http.MethodPut:
			contacts.Update(w, req, rest)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// RegisterHealthRoutes 注册健康检查
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
}
