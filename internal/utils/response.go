// Package utils holds small HTTP helpers shared by the server handlers.
package utils

import (
	"encoding/json"
	"net/http"

	"github.com/brizzai/httpdeco/internal/logger"
	"go.uber.org/zap"
)

// WriteJSON writes data as a JSON response with status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// WriteError writes a JSON error body of the form {"error": code, "error_description": message}.
func WriteError(w http.ResponseWriter, code, message string, status int) {
	WriteJSON(w, status, map[string]string{
		"error":             code,
		"error_description": message,
	})
}
