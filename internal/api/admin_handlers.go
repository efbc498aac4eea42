package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// getDeadLettersHandler lists dead-lettered notification messages
func (s *Server) getDeadLettersHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := s.dlqRepo.GetAll(r.Context(), limit, offset)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    messages,
	})
}

// retryDeadLetterHandler redelivers one dead-lettered message now
func (s *Server) retryDeadLetterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	if err != nil {
		s.respondWithMessage(w, http.StatusBadRequest, "Invalid dead letter id")
		return
	}

	msg, err := s.dlqRepo.GetByID(r.Context(), id)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	if err := s.deadLetterProcessor.Redeliver(r.Context(), msg); err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Message redelivered",
	})
}

// discardDeadLetterHandler terminally discards one dead-lettered message
func (s *Server) discardDeadLetterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	if err != nil {
		s.respondWithMessage(w, http.StatusBadRequest, "Invalid dead letter id")
		return
	}

	if err := s.dlqRepo.MarkDiscarded(r.Context(), id); err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Message discarded",
	})
}

// mailerStatusHandler reports the mail transport circuit state
func (s *Server) mailerStatusHandler(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    s.mailer.Breaker().GetMetrics(),
	})
}

// mailerResetHandler closes the mail transport circuit
func (s *Server) mailerResetHandler(w http.ResponseWriter, r *http.Request) {
	s.mailer.Breaker().Reset()

	s.logger.Info("Mailer circuit manually reset")

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Mailer circuit reset",
	})
}
