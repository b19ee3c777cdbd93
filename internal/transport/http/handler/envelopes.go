package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bike-resale-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message"`
}

// UserIDEnvelope wraps register and not-verified responses.
type UserIDEnvelope struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// LoginEnvelope wraps a successful login.
type LoginEnvelope struct {
	Message     string       `json:"message"`
	AccessToken string       `json:"accessToken"`
	User        *domain.User `json:"user"`
}

// UserEnvelope wraps the caller's profile.
type UserEnvelope struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

// AvatarEnvelope wraps an avatar upload.
type AvatarEnvelope struct {
	Message   string `json:"message"`
	AvatarURL string `json:"avatarUrl"`
}

// BikeEnvelope wraps one listing.
type BikeEnvelope struct {
	Message string       `json:"message"`
	Bike    *domain.Bike `json:"bike"`
}

// BikeWithSellerEnvelope wraps a single listing joined with its owner.
type BikeWithSellerEnvelope struct {
	Message string                 `json:"message"`
	Bike    *domain.BikeWithSeller `json:"bike"`
}

// BikeListEnvelope wraps the caller's own listings.
type BikeListEnvelope struct {
	Message string        `json:"message"`
	Count   int           `json:"count"`
	Bikes   []domain.Bike `json:"bikes"`
}

// BikePageEnvelope wraps a paginated listing query.
type BikePageEnvelope struct {
	Message string `json:"message"`
	*domain.BikePage
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Message: msg})
}

// override replaces the default response message for one sentinel error.
type override struct {
	target error
	msg    string
}

func on(target error, msg string) override { return override{target: target, msg: msg} }

var errorStatus = []struct {
	target error
	status int
	msg    string
}{
	{domain.ErrValidation, http.StatusBadRequest, ""},
	{domain.ErrInvalidOTP, http.StatusBadRequest, "Invalid OTP"},
	{domain.ErrInvalidOTPOrEmail, http.StatusBadRequest, "Invalid email or OTP"},
	{domain.ErrAlreadyVerified, http.StatusBadRequest, "User already verified"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{domain.ErrNotVerified, http.StatusUnauthorized, "Account not verified. OTP sent to your email"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{domain.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{domain.ErrNotFound, http.StatusNotFound, "Not found"},
	{domain.ErrConflict, http.StatusConflict, "Email already registered and verified"},
}

// writeServiceError maps a service error to its HTTP status. Validation
// errors expose their own text; unmapped errors become a 500 with the cause
// logged, never returned.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, overrides ...override) {
	var nv *domain.NotVerifiedError
	if errors.As(err, &nv) {
		writeJSON(w, http.StatusUnauthorized, UserIDEnvelope{
			Message: "Account not verified. OTP sent to your email",
			UserID:  nv.UserID,
		})
		return
	}
	for _, e := range errorStatus {
		if !errors.Is(err, e.target) {
			continue
		}
		msg := e.msg
		for _, o := range overrides {
			if o.target == e.target {
				msg = o.msg
			}
		}
		if msg == "" {
			msg = validationMessage(err)
		}
		writeMessage(w, e.status, msg)
		return
	}
	slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	writeMessage(w, http.StatusInternalServerError, "Server error")
}

// validationMessage strips the sentinel suffix and capitalises the first letter.
func validationMessage(err error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+domain.ErrValidation.Error())
	if msg == "" || msg == domain.ErrValidation.Error() {
		return "Invalid request"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// decodeJSON decodes a JSON request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}
