package handler

import (
	"errors"
	"net/http"

	"github.com/bike-resale-api/internal/application/image"
	"github.com/bike-resale-api/internal/application/user"
	"github.com/bike-resale-api/internal/domain"
	"github.com/bike-resale-api/internal/transport/http/middleware"
)

// UserHandler handles the caller's own profile.
type UserHandler struct {
	svc      user.Service
	maxBytes int64
}

func NewUserHandler(svc user.Service, maxUploadBytes int64) *UserHandler {
	return &UserHandler{svc: svc, maxBytes: maxUploadBytes}
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Profile(r.Context(), middleware.CallerID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, on(domain.ErrNotFound, "User not found"))
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{Message: "User profile fetched successfully", User: u})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	err := h.svc.ChangePassword(r.Context(), middleware.CallerID(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err,
			on(domain.ErrInvalidCredentials, "Current password is incorrect"),
			on(domain.ErrNotFound, "User not found"))
		return
	}
	writeMessage(w, http.StatusOK, "Password updated successfully")
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.maxBytes+1<<20); err != nil {
		writeMessage(w, http.StatusBadRequest, "No avatar image provided")
		return
	}
	f, fh, err := r.FormFile("avatar")
	if errors.Is(err, http.ErrMissingFile) {
		writeMessage(w, http.StatusBadRequest, "No avatar image provided")
		return
	}
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer f.Close()

	u, err := h.svc.UploadAvatar(r.Context(), middleware.CallerID(r.Context()), &image.Upload{Reader: f, Filename: fh.Filename})
	if err != nil {
		writeServiceError(w, r, err, on(domain.ErrNotFound, "User not found"))
		return
	}
	writeJSON(w, http.StatusOK, AvatarEnvelope{Message: "Avatar uploaded successfully", AvatarURL: *u.Avatar})
}
