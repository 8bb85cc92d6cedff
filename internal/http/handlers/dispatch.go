package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/logx"
	dispatchsvc "service-dispatch/internal/service/dispatch"
)

// DispatchHandler handles HTTP requests for assignment resources.
type DispatchHandler struct {
	usecase dispatchUsecase
	logger  logx.Logger
}

// NewDispatchHandler creates a new DispatchHandler.
func NewDispatchHandler(logger logx.Logger, uc dispatchUsecase) *DispatchHandler {
	return &DispatchHandler{usecase: uc, logger: logger}
}

// Create handles POST /assignments: broadcast an order to its candidates.
func (h *DispatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	a, err := h.usecase.CreateAndBroadcast(r.Context(),
		dispatchsvc.OrderInfo{ID: req.OrderID, Drop: req.Drop}, req.Candidates)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusCreated, assignmentToResponse(a))
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, apperr.ErrAlreadyBroadcasting):
		writeError(h.logger, w, r, http.StatusConflict, "order already broadcasting")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// Accept handles POST /assignments/{id}/accept. The race loser gets a 409
// and must not retry; a late accept on an expired assignment gets a 410.
func (h *DispatchHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req courierActionRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if strings.TrimSpace(req.CourierID) == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, "courier_id required")
		return
	}

	res, err := h.usecase.Accept(id, req.CourierID)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, acceptResponse{
			AssignmentID: res.AssignmentID,
			OrderID:      res.OrderID,
			CourierID:    res.CourierID,
			DeliveryID:   res.DeliveryID,
		})
	case errors.Is(err, apperr.ErrAlreadyAccepted):
		writeError(h.logger, w, r, http.StatusConflict, "assignment already accepted")
	case errors.Is(err, apperr.ErrAssignmentExpired):
		writeError(h.logger, w, r, http.StatusGone, "assignment expired")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "assignment not found")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// Reject handles POST /assignments/{id}/reject.
func (h *DispatchHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req courierActionRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	err := h.usecase.Reject(r.Context(), id, req.CourierID)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, map[string]string{"status": "rejected"})
	case errors.Is(err, apperr.ErrAlreadyAccepted), errors.Is(err, apperr.ErrAssignmentExpired):
		writeError(h.logger, w, r, http.StatusConflict, "assignment no longer broadcasting")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "assignment not found")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// Get handles GET /assignments/{id}.
func (h *DispatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.usecase.Get(chi.URLParam(r, "id"))
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, assignmentToResponse(a))
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "assignment not found")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}
