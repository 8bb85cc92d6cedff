package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/logx"
)

// DeliveryHandler handles HTTP requests for delivery resources.
type DeliveryHandler struct {
	usecase  deliveryUsecase
	dispatch dispatchUsecase
	logger   logx.Logger
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(logger logx.Logger, uc deliveryUsecase, dispatch dispatchUsecase) *DeliveryHandler {
	return &DeliveryHandler{usecase: uc, dispatch: dispatch, logger: logger}
}

// Start handles POST /deliveries: create the lifecycle record for an
// accepted assignment.
func (h *DeliveryHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startDeliveryRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	a, err := h.dispatch.Get(req.AssignmentID)
	if errors.Is(err, apperr.ErrNotFound) {
		writeError(h.logger, w, r, http.StatusNotFound, "assignment not found")
		return
	}

	d, err := h.usecase.Start(a, req.CustomerID, req.Drop)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusCreated, deliveryToResponse(d))
	case errors.Is(err, apperr.ErrBadState):
		writeError(h.logger, w, r, http.StatusConflict, "assignment not accepted")
	case errors.Is(err, apperr.ErrConflict):
		writeError(h.logger, w, r, http.StatusConflict, "delivery already exists")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// MarkArrived handles POST /deliveries/{id}/arrived: the courier reached the
// drop-off and the proof-of-delivery code goes out to the customer.
func (h *DeliveryHandler) MarkArrived(w http.ResponseWriter, r *http.Request) {
	err := h.usecase.MarkArrived(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, map[string]string{"status": "otp_pending"})
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "delivery not found")
	case errors.Is(err, apperr.ErrBadState):
		writeError(h.logger, w, r, http.StatusConflict, "delivery not en route")
	case errors.Is(err, apperr.ErrNotificationFailed):
		writeError(h.logger, w, r, http.StatusBadGateway, "could not notify customer")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// SubmitOTP handles POST /deliveries/{id}/otp.
func (h *DeliveryHandler) SubmitOTP(w http.ResponseWriter, r *http.Request) {
	var req submitOTPRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	err := h.usecase.SubmitOTP(r.Context(), chi.URLParam(r, "id"), req.Code)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, map[string]string{"status": "delivered"})
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "delivery not found")
	case errors.Is(err, apperr.ErrBadState):
		writeError(h.logger, w, r, http.StatusConflict, "delivery not awaiting code")
	case errors.Is(err, apperr.ErrInvalidCode):
		writeError(h.logger, w, r, http.StatusUnprocessableEntity, "invalid code")
	case errors.Is(err, apperr.ErrCodeExpired):
		writeError(h.logger, w, r, http.StatusGone, "code expired")
	case errors.Is(err, apperr.ErrAttemptsExceeded):
		writeError(h.logger, w, r, http.StatusTooManyRequests, "attempts exceeded")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// Cancel handles POST /deliveries/{id}/cancel.
func (h *DeliveryHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelDeliveryRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	err := h.usecase.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, map[string]string{"status": "cancelled"})
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "delivery not found")
	case errors.Is(err, apperr.ErrBadState):
		writeError(h.logger, w, r, http.StatusConflict, "delivery already terminal")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// Get handles GET /deliveries/{id}.
func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.usecase.Get(chi.URLParam(r, "id"))
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, deliveryToResponse(d))
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "delivery not found")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}
