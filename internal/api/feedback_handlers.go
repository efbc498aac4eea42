package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

type submitFeedbackRequest struct {
	Comment string `json:"comment"`
	Rating  *int   `json:"rating"`
}

type moderateFeedbackRequest struct {
	Approve bool   `json:"approve"`
	Reply   string `json:"reply"`
}

type submitReviewRequest struct {
	TrophyID string `json:"trophyId"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

// submitFeedbackHandler records a site comment pending moderation
func (s *Server) submitFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req submitFeedbackRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithError(w, err)
		return
	}

	fb, err := s.feedbackService.SubmitFeedback(r.Context(), user, req.Comment, req.Rating)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "Feedback submitted for review",
		Data:    fb,
	})
}

// getApprovedFeedbackHandler lists the publicly visible feedback
func (s *Server) getApprovedFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := s.feedbackService.GetApprovedFeedback(r.Context())

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    entries,
	})
}

// getAllFeedbackHandler lists every entry for the admin panel
func (s *Server) getAllFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := s.feedbackService.GetAllFeedback(r.Context())

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    entries,
	})
}

// getMyFeedbackHandler lists the caller's feedback
func (s *Server) getMyFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	entries, err := s.feedbackService.GetMyFeedback(r.Context(), user.Email)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    entries,
	})
}

// moderateFeedbackHandler approves or rejects an entry
func (s *Server) moderateFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	var req moderateFeedbackRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithError(w, err)
		return
	}

	fb, err := s.feedbackService.ModerateFeedback(r.Context(), mux.Vars(r)["id"], req.Approve, req.Reply)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	message := "Feedback rejected"
	if req.Approve {
		message = "Feedback approved"
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: message,
		Data:    fb,
	})
}

// deleteFeedbackHandler removes an entry, owner or admin only
func (s *Server) deleteFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	if err := s.feedbackService.DeleteFeedback(r.Context(), mux.Vars(r)["id"], user); err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Feedback deleted",
	})
}

// submitReviewHandler records a product rating
func (s *Server) submitReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req submitReviewRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithError(w, err)
		return
	}

	review, err := s.feedbackService.SubmitReview(r.Context(), user, req.TrophyID, req.Rating, req.Comment)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "Review submitted",
		Data:    review,
	})
}

// getReviewsHandler lists every product review
func (s *Server) getReviewsHandler(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.feedbackService.GetAllReviews(r.Context())

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    reviews,
	})
}

// getReviewByIDHandler returns one review
func (s *Server) getReviewByIDHandler(w http.ResponseWriter, r *http.Request) {
	review, err := s.feedbackService.GetReview(r.Context(), mux.Vars(r)["id"])

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    review,
	})
}
