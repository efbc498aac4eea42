package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
	"github.com/mohd-saif-1850/trophy-store-api/internal/repository"
	apperrors "github.com/mohd-saif-1850/trophy-store-api/pkg/errors"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

type fakeFeedbackStore struct {
	feedbacks map[string]*models.Feedback
}

func newFakeFeedbackStore() *fakeFeedbackStore {
	return &fakeFeedbackStore{feedbacks: make(map[string]*models.Feedback)}
}

func (f *fakeFeedbackStore) Create(ctx context.Context, fb *models.Feedback) error {
	cp := *fb
	f.feedbacks[fb.ID] = &cp
	return nil
}

func (f *fakeFeedbackStore) GetByID(ctx context.Context, id string) (*models.Feedback, error) {
	fb, ok := f.feedbacks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *fb
	return &cp, nil
}

func (f *fakeFeedbackStore) GetAll(ctx context.Context) ([]*models.Feedback, error) {
	var out []*models.Feedback
	for _, fb := range f.feedbacks {
		cp := *fb
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeFeedbackStore) GetByEmail(ctx context.Context, email string) ([]*models.Feedback, error) {
	var out []*models.Feedback
	for _, fb := range f.feedbacks {
		if fb.Email == email {
			cp := *fb
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeFeedbackStore) UpdateStatus(ctx context.Context, id, status, reply string) error {
	fb, ok := f.feedbacks[id]
	if !ok {
		return repository.ErrNotFound
	}
	fb.Status = status
	if reply != "" {
		fb.Reply = reply
	}
	return nil
}

func (f *fakeFeedbackStore) Delete(ctx context.Context, id string) error {
	if _, ok := f.feedbacks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.feedbacks, id)
	return nil
}

type fakeReviewStore struct {
	reviews map[string]*models.Review
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{reviews: make(map[string]*models.Review)}
}

func (f *fakeReviewStore) Create(ctx context.Context, review *models.Review) error {
	cp := *review
	f.reviews[review.ID] = &cp
	return nil
}

func (f *fakeReviewStore) GetByID(ctx context.Context, id string) (*models.Review, error) {
	review, ok := f.reviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *review
	return &cp, nil
}

func (f *fakeReviewStore) GetAll(ctx context.Context) ([]*models.Review, error) {
	var out []*models.Review
	for _, r := range f.reviews {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func newTestFeedbackService() (*FeedbackService, *fakeFeedbackStore, *fakeReviewStore) {
	feedbacks := newFakeFeedbackStore()
	reviews := newFakeReviewStore()
	return NewFeedbackService(feedbacks, reviews, logger.NewNopLogger()), feedbacks, reviews
}

func TestSubmitFeedbackDefaults(t *testing.T) {
	svc, _, _ := newTestFeedbackService()

	fb, err := svc.SubmitFeedback(context.Background(), testUser(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, models.FeedbackStatusPending, fb.Status)
	assert.Equal(t, "No Comment Added !", fb.Comment)
	assert.Equal(t, "No Reply Yet !", fb.Reply)
}

func TestSubmitFeedbackRatingBounds(t *testing.T) {
	svc, _, _ := newTestFeedbackService()
	ctx := context.Background()

	bad := 6
	_, err := svc.SubmitFeedback(ctx, testUser(), "great", &bad)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	good := 5
	_, err = svc.SubmitFeedback(ctx, testUser(), "great", &good)
	require.NoError(t, err)
}

func TestFeedbackModeration(t *testing.T) {
	svc, feedbacks, _ := newTestFeedbackService()
	ctx := context.Background()

	fb, err := svc.SubmitFeedback(ctx, testUser(), "lovely trophies", nil)
	require.NoError(t, err)

	// pending entries are hidden from the public listing
	visible, err := svc.GetApprovedFeedback(ctx)
	require.NoError(t, err)
	assert.Empty(t, visible)

	approved, err := svc.ModerateFeedback(ctx, fb.ID, true, "thank you!")
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackStatusApproved, approved.Status)
	assert.Equal(t, "thank you!", approved.Reply)

	visible, err = svc.GetApprovedFeedback(ctx)
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	// rejection removes the entry
	rejected, err := svc.SubmitFeedback(ctx, testUser(), "meh", nil)
	require.NoError(t, err)

	_, err = svc.ModerateFeedback(ctx, rejected.ID, false, "")
	require.NoError(t, err)
	assert.NotContains(t, feedbacks.feedbacks, rejected.ID)
}

func TestDeleteFeedbackOwnership(t *testing.T) {
	svc, _, _ := newTestFeedbackService()
	ctx := context.Background()

	owner := testUser()
	fb, err := svc.SubmitFeedback(ctx, owner, "mine", nil)
	require.NoError(t, err)

	stranger := models.NewUser("Someone", "9000000000", "someone@example.com", "hash")
	err = svc.DeleteFeedback(ctx, fb.ID, stranger)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	admin := models.NewUser("Admin", "9111111111", "admin@example.com", "hash")
	admin.Role = models.RoleAdmin
	require.NoError(t, svc.DeleteFeedback(ctx, fb.ID, admin))
}

func TestSubmitReview(t *testing.T) {
	svc, _, _ := newTestFeedbackService()
	ctx := context.Background()

	_, err := svc.SubmitReview(ctx, testUser(), "trf-1", 0, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	review, err := svc.SubmitReview(ctx, testUser(), "trf-1", 4, "")
	require.NoError(t, err)
	assert.Equal(t, "No Comment Added !", review.Comment)

	got, err := svc.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, review.ID, got.ID)

	all, err := svc.GetAllReviews(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
