package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"service-dispatch/internal/logx"
)

// PresenceHandler exposes read-only presence lookups and the suggestion
// pass-through.
type PresenceHandler struct {
	presence  presenceReader
	suggester suggester
	logger    logx.Logger
}

// NewPresenceHandler creates a new PresenceHandler.
func NewPresenceHandler(logger logx.Logger, p presenceReader, s suggester) *PresenceHandler {
	return &PresenceHandler{presence: p, suggester: s, logger: logger}
}

// Status handles GET /presence/{identity}. Unknown identities read as
// offline; this lookup never blocks.
func (h *PresenceHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	writeJSON(h.logger, w, r, http.StatusOK, presenceResponse{
		Identity: identity,
		Status:   string(h.presence.StatusOf(identity)),
	})
}

// Suggestions handles POST /suggestions. The generator is advisory: its
// failures surface as an empty list, never as an error.
func (h *PresenceHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	var req suggestionsRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	out := h.suggester.Suggestions(r.Context(), req.Recent)
	if out == nil {
		out = []string{}
	}
	writeJSON(h.logger, w, r, http.StatusOK, suggestionsResponse{Suggestions: out})
}
