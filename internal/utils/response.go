package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"FINTRACK_BACK-END/internal/dto"
)

// WriteJSONResponse writes data as a JSON body with the given status
func WriteJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are already sent
		slog.Warn("write response body", "error", err)
	}
}

// WriteErrorResponse writes an error body of the form {"error", "message"}
func WriteErrorResponse(w http.ResponseWriter, status int, errTitle, message string) {
	WriteJSONResponse(w, status, dto.ErrorResponse{Error: errTitle, Message: message})
}
