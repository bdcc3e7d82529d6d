package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"typing-server/internal/results"
	"typing-server/internal/types"
)

const maxResultBody = 1 << 16

// ResultsHandler lists (GET) and stores (POST) practice results
func (h *Handlers) ResultsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.listResults(w, r)
	case http.MethodPost:
		h.saveResult(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handlers) listResults(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		sendError(w, "Result storage is disabled", http.StatusServiceUnavailable)
		return
	}

	limit := results.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			sendError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, results.MaxLimit)
	}

	list, err := h.results.Recent(limit)
	if err != nil {
		logrus.WithError(err).Error("Failed to list results")
		sendError(w, "Failed to list results", http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusOK, list)
}

func (h *Handlers) saveResult(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		sendError(w, "Result storage is disabled", http.StatusServiceUnavailable)
		return
	}

	var req types.ResultRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxResultBody)).Decode(&req); err != nil {
		sendError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := results.Validate(req); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Tag the run with where the text currently comes from
	var source types.TextSource
	if t, err := h.loader.Load(); err == nil {
		source = t.Source
	} else {
		logrus.WithError(err).Debug("Could not determine text source for result")
	}

	res := results.NewResult(req, source)
	if err := h.results.Save(res); err != nil {
		logrus.WithError(err).Error("Failed to save result")
		sendError(w, "Failed to save result", http.StatusInternalServerError)
		return
	}

	logrus.WithFields(logrus.Fields{
		"id":       res.ID,
		"accuracy": res.Accuracy,
		"errors":   res.Errors,
	}).Info("Result saved")

	sendJSON(w, http.StatusCreated, res)
}
