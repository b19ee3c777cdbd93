package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody matches the {"message": ...} shape the handlers use.
type errorBody struct {
	Message string `json:"message"`
}

// writeJSONError rejects a request before it reaches a handler.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Message: msg})
}
