package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// RespondJSON writes a JSON response with the provided status code.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondError writes an {"error": ...} payload with the provided status code.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// RespondErrorDetail writes an error payload with additional fields, e.g. the
// validTypes list attached to an invalid facility-type rejection.
func RespondErrorDetail(w http.ResponseWriter, status int, message string, detail map[string]interface{}) {
	payload := map[string]interface{}{"error": message}
	for k, v := range detail {
		payload[k] = v
	}
	RespondJSON(w, status, payload)
}
