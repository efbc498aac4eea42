package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mohd-saif-1850/trophy-store-api/internal/service"
)

// getTrophiesHandler lists the catalog
func (s *Server) getTrophiesHandler(w http.ResponseWriter, r *http.Request) {
	trophies, err := s.trophyService.GetAllTrophies(r.Context())

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    trophies,
	})
}

// searchTrophiesHandler matches the query against product names
func (s *Server) searchTrophiesHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	trophies, err := s.trophyService.SearchTrophies(r.Context(), r.URL.Query().Get("q"), limit)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    trophies,
	})
}

// getTrophyByIDHandler returns one catalog entry
func (s *Server) getTrophyByIDHandler(w http.ResponseWriter, r *http.Request) {
	trophy, err := s.trophyService.GetTrophy(r.Context(), mux.Vars(r)["id"])

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    trophy,
	})
}

// createTrophyHandler adds a catalog entry
func (s *Server) createTrophyHandler(w http.ResponseWriter, r *http.Request) {
	var input service.TrophyInput

	if err := decodeJSON(r, &input); err != nil {
		s.respondWithError(w, err)
		return
	}

	trophy, err := s.trophyService.CreateTrophy(r.Context(), input)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "Trophy created",
		Data:    trophy,
	})
}

// updateTrophyHandler replaces the writable fields of a catalog entry
func (s *Server) updateTrophyHandler(w http.ResponseWriter, r *http.Request) {
	var input service.TrophyInput

	if err := decodeJSON(r, &input); err != nil {
		s.respondWithError(w, err)
		return
	}

	trophy, err := s.trophyService.UpdateTrophy(r.Context(), mux.Vars(r)["id"], input)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Trophy updated",
		Data:    trophy,
	})
}

// deleteTrophyHandler removes a catalog entry
func (s *Server) deleteTrophyHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.trophyService.DeleteTrophy(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Trophy deleted",
	})
}
