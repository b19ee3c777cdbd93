package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bike-resale-api/internal/application/auth"
	"github.com/bike-resale-api/internal/domain"
	"github.com/bike-resale-api/internal/pkg/validate"
)

// AuthHandler handles registration, login and password recovery.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	res, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if res.Resent {
		writeJSON(w, http.StatusOK, UserIDEnvelope{Message: "OTP re-sent to your email", UserID: res.UserID})
		return
	}
	writeJSON(w, http.StatusCreated, UserIDEnvelope{
		Message: "OTP sent to your email. Verify to complete registration",
		UserID:  res.UserID,
	})
}

func (h *AuthHandler) VerifyRegistration(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyRegistrationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeMessage(w, http.StatusBadRequest, "OTP is required")
		return
	}
	if err := h.svc.VerifyRegistration(r.Context(), chi.URLParam(r, "id"), req.OTP); err != nil {
		writeServiceError(w, r, err, on(domain.ErrNotFound, "User not found"))
		return
	}
	writeMessage(w, http.StatusOK, "Account verified successfully")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginEnvelope{
		Message:     "Login successful",
		AccessToken: res.AccessToken,
		User:        res.User,
	})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" {
		writeMessage(w, http.StatusBadRequest, "Email is required")
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err, on(domain.ErrNotFound, "User not found or not verified"))
		return
	}
	writeMessage(w, http.StatusOK, "OTP sent to your email")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password updated successfully")
}
