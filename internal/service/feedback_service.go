package service

import (
	"context"
	"strings"

	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
	apperrors "github.com/mohd-saif-1850/trophy-store-api/pkg/errors"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

// FeedbackStore is the persistence surface the feedback service needs
type FeedbackStore interface {
	Create(ctx context.Context, fb *models.Feedback) error
	GetByID(ctx context.Context, id string) (*models.Feedback, error)
	GetAll(ctx context.Context) ([]*models.Feedback, error)
	GetByEmail(ctx context.Context, email string) ([]*models.Feedback, error)
	UpdateStatus(ctx context.Context, id, status, reply string) error
	Delete(ctx context.Context, id string) error
}

// ReviewStore is the persistence surface the review service needs
type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id string) (*models.Review, error)
	GetAll(ctx context.Context) ([]*models.Review, error)
}

// FeedbackService owns site feedback moderation and product reviews
type FeedbackService struct {
	feedbacks FeedbackStore
	reviews   ReviewStore
	logger    logger.Logger
}

// NewFeedbackService creates a feedback service
func NewFeedbackService(feedbacks FeedbackStore, reviews ReviewStore, logger logger.Logger) *FeedbackService {
	return &FeedbackService{
		feedbacks: feedbacks,
		reviews:   reviews,
		logger:    logger,
	}
}

// SubmitFeedback records a site-wide comment pending moderation
func (s *FeedbackService) SubmitFeedback(ctx context.Context, user *models.User, comment string, rating *int) (*models.Feedback, error) {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, apperrors.NewInvalidInputError("Rating must be between 1 and 5")
	}

	fb := models.NewFeedback(user.ID, user.Name, user.Email, strings.TrimSpace(comment), rating)

	if err := s.feedbacks.Create(ctx, fb); err != nil {
		return nil, mapRepositoryError(err, "feedback")
	}

	s.logger.Info("Feedback submitted", "feedbackID", fb.ID, "userID", user.ID)

	return fb, nil
}

// GetApprovedFeedback lists the publicly visible feedback
func (s *FeedbackService) GetApprovedFeedback(ctx context.Context) ([]*models.Feedback, error) {
	all, err := s.feedbacks.GetAll(ctx)

	if err != nil {
		return nil, mapRepositoryError(err, "feedback")
	}

	approved := make([]*models.Feedback, 0, len(all))
	for _, fb := range all {
		if fb.Status == models.FeedbackStatusApproved {
			approved = append(approved, fb)
		}
	}

	return approved, nil
}

// GetAllFeedback lists every feedback entry for the admin panel
func (s *FeedbackService) GetAllFeedback(ctx context.Context) ([]*models.Feedback, error) {
	all, err := s.feedbacks.GetAll(ctx)

	if err != nil {
		return nil, mapRepositoryError(err, "feedback")
	}

	return all, nil
}

// GetMyFeedback lists the feedback left from the given account email
func (s *FeedbackService) GetMyFeedback(ctx context.Context, email string) ([]*models.Feedback, error) {
	entries, err := s.feedbacks.GetByEmail(ctx, email)

	if err != nil {
		return nil, mapRepositoryError(err, "feedback")
	}

	return entries, nil
}

// ModerateFeedback approves or rejects an entry, optionally attaching a
// shop reply. Rejection deletes the entry.
func (s *FeedbackService) ModerateFeedback(ctx context.Context, id string, approve bool, reply string) (*models.Feedback, error) {
	fb, err := s.feedbacks.GetByID(ctx, id)

	if err != nil {
		return nil, mapRepositoryError(err, "feedback")
	}

	if !approve {
		if err := s.feedbacks.Delete(ctx, id); err != nil {
			return nil, mapRepositoryError(err, "feedback")
		}

		s.logger.Info("Feedback rejected", "feedbackID", id)

		return nil, nil
	}

	if err := s.feedbacks.UpdateStatus(ctx, id, models.FeedbackStatusApproved, strings.TrimSpace(reply)); err != nil {
		return nil, mapRepositoryError(err, "feedback")
	}

	fb.Status = models.FeedbackStatusApproved
	if reply = strings.TrimSpace(reply); reply != "" {
		fb.Reply = reply
	}

	s.logger.Info("Feedback approved", "feedbackID", id)

	return fb, nil
}

// DeleteFeedback removes an entry. Non-admin callers may only remove
// their own.
func (s *FeedbackService) DeleteFeedback(ctx context.Context, id string, caller *models.User) error {
	fb, err := s.feedbacks.GetByID(ctx, id)

	if err != nil {
		return mapRepositoryError(err, "feedback")
	}

	if caller.Role != models.RoleAdmin && fb.UserID != caller.ID {
		return apperrors.NewForbiddenError("You can only delete your own feedback")
	}

	if err := s.feedbacks.Delete(ctx, id); err != nil {
		return mapRepositoryError(err, "feedback")
	}

	return nil
}

// SubmitReview records a product rating
func (s *FeedbackService) SubmitReview(ctx context.Context, user *models.User, trophyID string, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewInvalidInputError("Rating must be between 1 and 5")
	}

	review := models.NewReview(user.ID, strings.TrimSpace(trophyID), rating, strings.TrimSpace(comment))

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, mapRepositoryError(err, "review")
	}

	s.logger.Info("Review submitted", "reviewID", review.ID, "userID", user.ID)

	return review, nil
}

// GetReview fetches one product review
func (s *FeedbackService) GetReview(ctx context.Context, id string) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)

	if err != nil {
		return nil, mapRepositoryError(err, "review")
	}

	return review, nil
}

// GetAllReviews lists every product review
func (s *FeedbackService) GetAllReviews(ctx context.Context) ([]*models.Review, error) {
	reviews, err := s.reviews.GetAll(ctx)

	if err != nil {
		return nil, mapRepositoryError(err, "review")
	}

	return reviews, nil
}
