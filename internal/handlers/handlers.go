package handlers

import (
	"bytes"
	"encoding/json"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/Masterminds/sprig"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"typing-server/internal/results"
	"typing-server/internal/state"
	"typing-server/internal/text"
	"typing-server/internal/types"
	"typing-server/internal/websocket"
)

const pageTemplate = "index.html"

// Handlers serves the page, the static assets and the JSON API
type Handlers struct {
	loader  *text.Loader
	results *results.Store // nil when result storage is disabled
	static  fs.FS
	page    *template.Template
}

// pageData is the context handed to index.html
type pageData struct {
	Request *http.Request
}

// New parses the page template from assets/templates and serves assets/static.
// store may be nil.
func New(loader *text.Loader, store *results.Store, assets fs.FS) (*Handlers, error) {
	page, err := template.New(pageTemplate).Funcs(sprig.FuncMap()).ParseFS(assets, "templates/"+pageTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "parsing page template")
	}

	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, errors.Wrap(err, "static assets")
	}

	return &Handlers{
		loader:  loader,
		results: store,
		static:  static,
		page:    page,
	}, nil
}

// Routes returns the HTTP handler for every route
func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.HomeHandler)
	mux.Handle("GET /static/", http.StripPrefix("/static/", h.StaticHandler()))
	mux.HandleFunc("GET /api/text", h.TextHandler)
	mux.HandleFunc("GET /api/state", h.StateHandler)
	mux.HandleFunc("/api/results", h.ResultsHandler)
	mux.HandleFunc("GET /ws", websocket.Handler(h.TextMessage))
	return logRequests(mux)
}

// HomeHandler renders the main HTML page
func (h *Handlers) HomeHandler(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.page.Execute(&buf, pageData{Request: r}); err != nil {
		logrus.WithError(err).Error("Failed to render page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// StaticHandler serves files from the static tree. Directories are not listed.
func (h *Handlers) StaticHandler() http.Handler {
	files := http.FileServer(http.FS(h.static))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path
		if name == "" || name[len(name)-1] == '/' {
			http.NotFound(w, r)
			return
		}
		if info, err := fs.Stat(h.static, name); err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// TextHandler returns the practice text
func (h *Handlers) TextHandler(w http.ResponseWriter, r *http.Request) {
	t, err := h.loadText()
	if err != nil {
		logrus.WithError(err).WithField("path", h.loader.Path()).Error("Failed to load text")
		sendError(w, "Failed to load text", http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusOK, types.TextResponse{Text: t.Value})
}

// TextMessage loads the text and wraps it for WebSocket clients
func (h *Handlers) TextMessage() types.WSMessage {
	t, err := h.loadText()
	if err != nil {
		logrus.WithError(err).WithField("path", h.loader.Path()).Error("Failed to load text for push")
		return types.WSMessage{Type: "error", Message: "Failed to load text"}
	}
	return types.WSMessage{Type: "text", Text: t.Value, Source: t.Source}
}

// PushText broadcasts the current text to every WebSocket client
func (h *Handlers) PushText() {
	websocket.BroadcastToAll(h.TextMessage())
}

func (h *Handlers) loadText() (text.Text, error) {
	t, err := h.loader.Load()
	if err != nil {
		return t, err
	}
	state.RecordTextLoad(t.Source)
	return t, nil
}

// sendJSON writes v as a JSON body with the given status
func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("Failed to encode response")
	}
}

// sendError sends an error response
func sendError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, status, types.Response{
		Success: false,
		Message: message,
	})
}
