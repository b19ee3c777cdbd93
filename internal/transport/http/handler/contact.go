package handler

import (
	"net/http"

	"github.com/bike-resale-api/internal/application/contact"
	"github.com/bike-resale-api/internal/domain"
	"github.com/bike-resale-api/internal/transport/http/middleware"
)

// ContactHandler relays a buyer's interest to a listing owner.
type ContactHandler struct {
	svc contact.Service
}

func NewContactHandler(svc contact.Service) *ContactHandler { return &ContactHandler{svc: svc} }

type contactRequest struct {
	BikeID  string `json:"bikeId"`
	Message string `json:"message"`
}

func (h *ContactHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.svc.ContactOwner(r.Context(), middleware.CallerID(r.Context()), req.BikeID, req.Message); err != nil {
		writeServiceError(w, r, err, on(domain.ErrNotFound, "Bike not found"))
		return
	}
	writeMessage(w, http.StatusOK, "Email sent successfully")
}
