package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"ordernow/internal/apperrors"
)

// Envelope is the response shape every endpoint returns. Validation
// detail travels in Data keyed by field tag; framework-level errors
// (auth, permission, not-found) put a human-readable string in Message
// and leave Data null.
type Envelope struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data"`
	Message *string     `json:"message"`
}

// Success writes a success envelope
func Success(w http.ResponseWriter, code int, data interface{}) {
	writeJSON(w, code, Envelope{Status: "success", Data: data})
}

// Error maps err onto the error envelope
func Error(w http.ResponseWriter, err error) {
	if ve, ok := apperrors.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, Envelope{
			Status: "error",
			Data:   map[string]string{ve.Field: ve.Message},
		})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrPermission):
		ErrorMessage(w, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, apperrors.ErrNotFound):
		ErrorMessage(w, http.StatusNotFound, "Not Found.")
	case apperrors.IsRetryable(err):
		ErrorMessage(w, http.StatusServiceUnavailable, "Service temporarily unavailable. Please retry.")
	default:
		ErrorMessage(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// ErrorMessage writes an error envelope with a message and null data
func ErrorMessage(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, Envelope{Status: "error", Message: &message})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
