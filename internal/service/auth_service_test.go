package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohd-saif-1850/trophy-store-api/internal/config"
	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
	"github.com/mohd-saif-1850/trophy-store-api/internal/repository"
	apperrors "github.com/mohd-saif-1850/trophy-store-api/pkg/errors"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

type fakeUserStore struct {
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserStore) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, identifier) || u.MobileNumber == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserStore) ExistsByEmailOrMobile(ctx context.Context, email, mobile string) (bool, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) || u.MobileNumber == mobile {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) Update(ctx context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) Delete(ctx context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeEventStore struct {
	events []*models.OutboxMessage
}

func (f *fakeEventStore) Create(ctx context.Context, message *models.OutboxMessage) error {
	f.events = append(f.events, message)
	return nil
}

func (f *fakeEventStore) ofType(eventType string) []*models.OutboxMessage {
	var out []*models.OutboxMessage
	for _, ev := range f.events {
		if ev.EventType == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func newTestAuthService() (*AuthService, *fakeUserStore, *fakeEventStore) {
	users := newFakeUserStore()
	events := &fakeEventStore{}

	svc := NewAuthService(users, events, config.JWTConfig{
		Secret: "test-secret",
		TTL:    time.Hour,
	}, logger.NewNopLogger())

	return svc, users, events
}

func signUpTestUser(t *testing.T, svc *AuthService) *models.User {
	t.Helper()

	user, err := svc.SignUp(context.Background(), "Anas", "9876543210", "anas@example.com", "secret123")
	require.NoError(t, err)

	return user
}

func TestSignUp(t *testing.T) {
	svc, users, events := newTestAuthService()

	user := signUpTestUser(t, svc)

	assert.False(t, user.Verified)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.True(t, user.HasPendingOTP())
	require.NotNil(t, user.ExpiresAt)

	stored := users.users[user.ID]
	require.NotNil(t, stored)

	require.Len(t, events.ofType(models.EventEmailUserVerification), 1)
}

func TestSignUpRejectsDuplicates(t *testing.T) {
	svc, _, _ := newTestAuthService()

	signUpTestUser(t, svc)

	_, err := svc.SignUp(context.Background(), "Other", "9000000000", "anas@example.com", "secret123")
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = svc.SignUp(context.Background(), "Other", "9876543210", "other@example.com", "secret123")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestSignUpValidation(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "", "9876543210", "anas@example.com", "secret123")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.SignUp(ctx, "Anas", "9876543210", "not-an-email", "secret123")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.SignUp(ctx, "Anas", "9876543210", "anas@example.com", "short")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestVerifyUser(t *testing.T) {
	svc, users, _ := newTestAuthService()
	ctx := context.Background()

	user := signUpTestUser(t, svc)
	otp := users.users[user.ID].OTP

	_, err := svc.VerifyUser(ctx, user.Email, "000000")
	assert.ErrorIs(t, err, apperrors.ErrOTPMismatch)

	verified, err := svc.VerifyUser(ctx, user.Email, otp)
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	assert.False(t, verified.HasPendingOTP())
	assert.Nil(t, verified.ExpiresAt)

	// verifying again is a no-op success
	again, err := svc.VerifyUser(ctx, user.Email, "anything")
	require.NoError(t, err)
	assert.True(t, again.Verified)
}

func TestVerifyUserExpiredCode(t *testing.T) {
	svc, users, _ := newTestAuthService()
	ctx := context.Background()

	user := signUpTestUser(t, svc)

	stored := users.users[user.ID]
	expired := models.GetCurrentTime().Add(-time.Minute)
	stored.OTPExpiry = &expired

	_, err := svc.VerifyUser(ctx, user.Email, stored.OTP)
	assert.ErrorIs(t, err, apperrors.ErrOTPMismatch)
}

func TestResendOTP(t *testing.T) {
	svc, users, events := newTestAuthService()
	ctx := context.Background()

	user := signUpTestUser(t, svc)

	require.NoError(t, svc.ResendOTP(ctx, user.Email))

	assert.NotEmpty(t, users.users[user.ID].OTP)
	assert.Len(t, events.ofType(models.EventEmailUserVerification), 2)

	// verified accounts cannot request verification codes
	otp := users.users[user.ID].OTP
	_, err := svc.VerifyUser(ctx, user.Email, otp)
	require.NoError(t, err)

	err = svc.ResendOTP(ctx, user.Email)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestSignIn(t *testing.T) {
	svc, users, _ := newTestAuthService()
	ctx := context.Background()

	user := signUpTestUser(t, svc)

	// unverified accounts cannot sign in
	_, _, err := svc.SignIn(ctx, user.Email, "secret123")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	otp := users.users[user.ID].OTP
	_, err = svc.VerifyUser(ctx, user.Email, otp)
	require.NoError(t, err)

	_, _, err = svc.SignIn(ctx, user.Email, "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, _, err = svc.SignIn(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	token, signedIn, err := svc.SignIn(ctx, user.Email, "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, user.ID, signedIn.ID)

	// mobile number works as the identifier too
	_, _, err = svc.SignIn(ctx, user.MobileNumber, "secret123")
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, err := svc.VerifyToken("not.a.token")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, users, events := newTestAuthService()
	ctx := context.Background()

	user := signUpTestUser(t, svc)
	otp := users.users[user.ID].OTP
	_, err := svc.VerifyUser(ctx, user.Email, otp)
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(ctx, user.Email))
	require.Len(t, events.ofType(models.EventEmailPasswordReset), 1)

	resetOTP := users.users[user.ID].OTP
	require.NotEmpty(t, resetOTP)

	// the check endpoint does not consume the code
	require.NoError(t, svc.VerifyForgotOTP(ctx, user.Email, resetOTP))
	require.NoError(t, svc.VerifyForgotOTP(ctx, user.Email, resetOTP))

	err = svc.ChangePassword(ctx, user.Email, "000000", "newsecret")
	assert.ErrorIs(t, err, apperrors.ErrOTPMismatch)

	require.NoError(t, svc.ChangePassword(ctx, user.Email, resetOTP, "newsecret"))

	// the code is consumed with the change
	err = svc.ChangePassword(ctx, user.Email, resetOTP, "another")
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	_, _, err = svc.SignIn(ctx, user.Email, "secret123")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, _, err = svc.SignIn(ctx, user.Email, "newsecret")
	require.NoError(t, err)
}

func TestCart(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	user := signUpTestUser(t, svc)

	cart, err := svc.GetCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart)

	items := []models.CartItem{
		{TrophyID: "trf-1", Name: "Golden Cup", Price: 499, Quantity: 2},
	}

	updated, err := svc.UpdateCart(ctx, user.ID, items)
	require.NoError(t, err)
	assert.Len(t, updated, 1)

	_, err = svc.UpdateCart(ctx, user.ID, []models.CartItem{{TrophyID: "", Quantity: 1}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.UpdateCart(ctx, user.ID, []models.CartItem{{TrophyID: "trf-1", Quantity: 0}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	cleared, err := svc.UpdateCart(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, cleared)
}

func TestUpdateAndDeleteUser(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	user := signUpTestUser(t, svc)

	updated, err := svc.UpdateUser(ctx, user.ID, "New Name", "")
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, user.MobileNumber, updated.MobileNumber)

	require.NoError(t, svc.DeleteUser(ctx, user.ID))

	_, err = svc.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
