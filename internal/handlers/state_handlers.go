package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"typing-server/internal/state"
	"typing-server/pkg/config"
)

// StateHandler returns the global server state
func (h *Handlers) StateHandler(w http.ResponseWriter, r *http.Request) {
	snap := state.GetServerState(config.WSClientCount())

	if h.results != nil {
		if n, err := h.results.Count(); err == nil {
			snap.Results = &n
		} else {
			logrus.WithError(err).Warn("Failed to count results")
		}
	}

	sendJSON(w, http.StatusOK, snap)
}
