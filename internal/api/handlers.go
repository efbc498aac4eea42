package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	apperrors "github.com/mohd-saif-1850/trophy-store-api/pkg/errors"
)

// ApiResponse is the envelope every endpoint answers with
type ApiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Health represents the health check response
type Health struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// healthCheckHandler handles the health check endpoint
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	health := Health{
		Status:    "ok",
		Version:   "1.0.0",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    health,
	})
}

// respondWithJSON writes a JSON response with the given status code
func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)

	if err != nil {
		s.logger.Error("Failed to marshal response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError maps a service error onto the response envelope
func (s *Server) respondWithError(w http.ResponseWriter, err error) {
	s.respondWithJSON(w, apperrors.StatusCode(err), ApiResponse{
		Success: false,
		Message: errorMessage(err),
	})
}

// respondWithMessage writes a failure envelope with an explicit code
func (s *Server) respondWithMessage(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, ApiResponse{
		Success: false,
		Message: message,
	})
}

func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}

	return "An unexpected error occurred"
}

// decodeJSON parses a request body into dst with unknown fields rejected
func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(dst); err != nil {
		return apperrors.NewInvalidInputError("Invalid request payload")
	}

	return nil
}
