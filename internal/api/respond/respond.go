package respond

import (
	"encoding/json"
	"net/http"
)

// Envelope is the canonical response shape for every /api endpoint. The
// front end unwraps exactly this; no legacy per-resource shapes are served.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JSON writes a success envelope with the given status and payload.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Success: true, Data: data})
}

// Error writes a failure envelope. The message is shown verbatim to the
// user, so callers keep it free of internal detail.
func Error(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Success: false, Error: message})
}

// Internal writes the generic 500 response used when the real error has
// already been logged.
func Internal(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "internal server error")
}

// Fields writes a 400 failure envelope carrying field-keyed validation
// messages, so forms can render inline errors per input.
func Fields(w http.ResponseWriter, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(Envelope{
		Success: false,
		Error:   "validation failed",
		Data:    map[string]any{"fields": fields},
	})
}
