package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mohd-saif-1850/trophy-store-api/internal/config"
	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
	apperrors "github.com/mohd-saif-1850/trophy-store-api/pkg/errors"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

const bcryptCost = 10

// UserStore is the persistence surface the auth service needs
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	ExistsByEmailOrMobile(ctx context.Context, email, mobile string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// EventStore queues outbox events outside an order transaction
type EventStore interface {
	Create(ctx context.Context, message *models.OutboxMessage) error
}

// TokenClaims is the identity carried by a session token
type TokenClaims struct {
	UserID string
	Email  string
	Role   string
}

// AuthService owns accounts, email verification and sessions
type AuthService struct {
	users  UserStore
	events EventStore
	jwtCfg config.JWTConfig
	logger logger.Logger
}

// NewAuthService creates an auth service
func NewAuthService(users UserStore, events EventStore, jwtCfg config.JWTConfig, logger logger.Logger) *AuthService {
	return &AuthService{
		users:  users,
		events: events,
		jwtCfg: jwtCfg,
		logger: logger,
	}
}

// SignUp registers an unverified account and queues the verification
// email. The account is removed by the cleanup sweep if the code is
// never confirmed.
func (s *AuthService) SignUp(ctx context.Context, name, mobileNumber, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	mobileNumber = strings.TrimSpace(mobileNumber)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || mobileNumber == "" || email == "" {
		return nil, apperrors.NewInvalidInputError("Name, mobile number and email are required")
	}

	if !strings.Contains(email, "@") {
		return nil, apperrors.NewInvalidInputError("Invalid email address")
	}

	if len(password) < 6 {
		return nil, apperrors.NewInvalidInputError("Password must be at least 6 characters")
	}

	exists, err := s.users.ExistsByEmailOrMobile(ctx, email, mobileNumber)

	if err != nil {
		return nil, mapRepositoryError(err, "user")
	}

	if exists {
		return nil, apperrors.NewConflictError("An account with this email or mobile number already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)

	if err != nil {
		return nil, apperrors.NewInternalError("Failed to hash password")
	}

	user := models.NewUser(name, mobileNumber, email, string(hash))

	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapRepositoryError(err, "user")
	}

	s.queueUserEmail(ctx, models.EventEmailUserVerification, user)

	s.logger.Info("Account created", "userID", user.ID, "email", user.Email)

	return user, nil
}

// VerifyUser confirms the account with the emailed code. Verifying an
// already verified account is a no-op success.
func (s *AuthService) VerifyUser(ctx context.Context, identifier, otp string) (*models.User, error) {
	user, err := s.users.GetByIdentifier(ctx, identifier)

	if err != nil {
		return nil, mapRepositoryError(err, "user")
	}

	if user.Verified {
		return user, nil
	}

	if err := s.checkOTP(user, otp); err != nil {
		return nil, err
	}

	user.Verified = true
	user.OTP = ""
	user.OTPExpiry = nil
	user.ExpiresAt = nil

	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepositoryError(err, "user")
	}

	s.logger.Info("Account verified", "userID", user.ID)

	return user, nil
}

// ResendOTP issues a fresh verification code and extends the cleanup
// deadline for the unverified account.
func (s *AuthService) ResendOTP(ctx context.Context, identifier string) error {
	user, err := s.users.GetByIdentifier(ctx, identifier)

	if err != nil {
		return mapRepositoryError(err, "user")
	}

	if user.Verified {
		return apperrors.NewInvalidStateError("Account is already verified")
	}

	now := models.GetCurrentTime()
	otpExpiry := now.Add(models.OTPValidity)
	accountExpiry := now.Add(models.UnverifiedAccountTTL)

	user.OTP = models.GenerateOTP()
	user.OTPExpiry = &otpExpiry
	user.ExpiresAt = &accountExpiry

	if err := s.users.Update(ctx, user); err != nil {
		return mapRepositoryError(err, "user")
	}

	s.queueUserEmail(ctx, models.EventEmailUserVerification, user)

	return nil
}

// SignIn checks the credentials and returns a signed session token
func (s *AuthService) SignIn(ctx context.Context, identifier, password string) (string, *models.User, error) {
	user, err := s.users.GetByIdentifier(ctx, identifier)

	if err != nil {
		return "", nil, apperrors.NewUnauthorizedError("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.NewUnauthorizedError("Invalid credentials")
	}

	if !user.Verified {
		return "", nil, apperrors.NewForbiddenError("Verify your email before signing in")
	}

	token, err := s.signToken(user)

	if err != nil {
		s.logger.Error("Failed to sign token", "error", err, "userID", user.ID)
		return "", nil, apperrors.NewInternalError("Failed to create session")
	}

	s.logger.Info("User signed in", "userID", user.ID)

	return token, user, nil
}

// ForgotPassword issues a reset code to a verified account
func (s *AuthService) ForgotPassword(ctx context.Context, identifier string) error {
	user, err := s.users.GetByIdentifier(ctx, identifier)

	if err != nil {
		return mapRepositoryError(err, "user")
	}

	otpExpiry := models.GetCurrentTime().Add(models.OTPValidity)
	user.OTP = models.GenerateOTP()
	user.OTPExpiry = &otpExpiry

	if err := s.users.Update(ctx, user); err != nil {
		return mapRepositoryError(err, "user")
	}

	s.queueUserEmail(ctx, models.EventEmailPasswordReset, user)

	return nil
}

// VerifyForgotOTP checks a reset code without consuming it, so the
// client can confirm before submitting the new password.
func (s *AuthService) VerifyForgotOTP(ctx context.Context, identifier, otp string) error {
	user, err := s.users.GetByIdentifier(ctx, identifier)

	if err != nil {
		return mapRepositoryError(err, "user")
	}

	return s.checkOTP(user, otp)
}

// ChangePassword consumes a valid reset code and stores the new password
func (s *AuthService) ChangePassword(ctx context.Context, identifier, otp, newPassword string) error {
	user, err := s.users.GetByIdentifier(ctx, identifier)

	if err != nil {
		return mapRepositoryError(err, "user")
	}

	if err := s.checkOTP(user, otp); err != nil {
		return err
	}

	if len(newPassword) < 6 {
		return apperrors.NewInvalidInputError("Password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)

	if err != nil {
		return apperrors.NewInternalError("Failed to hash password")
	}

	user.PasswordHash = string(hash)
	user.OTP = ""
	user.OTPExpiry = nil

	if err := s.users.Update(ctx, user); err != nil {
		return mapRepositoryError(err, "user")
	}

	s.logger.Info("Password changed", "userID", user.ID)

	return nil
}

// VerifyToken validates a session token and extracts its identity
func (s *AuthService) VerifyToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtCfg.Secret), nil
	})

	if err != nil || !token.Valid {
		return nil, apperrors.NewUnauthorizedError("Invalid or expired session")
	}

	claims, ok := token.Claims.(jwt.MapClaims)

	if !ok {
		return nil, apperrors.NewUnauthorizedError("Invalid session claims")
	}

	userID, _ := claims["user_id"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	if userID == "" {
		return nil, apperrors.NewUnauthorizedError("Invalid session claims")
	}

	return &TokenClaims{UserID: userID, Email: email, Role: role}, nil
}

// GetUser fetches an account by id
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)

	if err != nil {
		return nil, mapRepositoryError(err, "user")
	}

	return user, nil
}

// UpdateUser changes the mutable profile fields
func (s *AuthService) UpdateUser(ctx context.Context, id, name, mobileNumber string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)

	if err != nil {
		return nil, mapRepositoryError(err, "user")
	}

	if name = strings.TrimSpace(name); name != "" {
		user.Name = name
	}
	if mobileNumber = strings.TrimSpace(mobileNumber); mobileNumber != "" {
		user.MobileNumber = mobileNumber
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepositoryError(err, "user")
	}

	return user, nil
}

// DeleteUser removes an account
func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return mapRepositoryError(err, "user")
	}

	s.logger.Info("Account deleted", "userID", id)

	return nil
}

// GetCart returns the server-held cart
func (s *AuthService) GetCart(ctx context.Context, userID string) ([]models.CartItem, error) {
	user, err := s.users.GetByID(ctx, userID)

	if err != nil {
		return nil, mapRepositoryError(err, "user")
	}

	if user.Cart == nil {
		return []models.CartItem{}, nil
	}

	return user.Cart, nil
}

// UpdateCart replaces the server-held cart wholesale
func (s *AuthService) UpdateCart(ctx context.Context, userID string, items []models.CartItem) ([]models.CartItem, error) {
	for i, item := range items {
		if strings.TrimSpace(item.TrophyID) == "" {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("Cart item %d is missing a trophy id", i+1))
		}
		if item.Quantity < 1 {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("Cart item %d has an invalid quantity", i+1))
		}
	}

	user, err := s.users.GetByID(ctx, userID)

	if err != nil {
		return nil, mapRepositoryError(err, "user")
	}

	if items == nil {
		items = []models.CartItem{}
	}
	user.Cart = items

	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepositoryError(err, "user")
	}

	return user.Cart, nil
}

func (s *AuthService) checkOTP(user *models.User, otp string) error {
	if !user.HasPendingOTP() {
		return apperrors.NewInvalidStateError("No verification code was requested")
	}

	if user.OTPExpired(models.GetCurrentTime()) {
		return apperrors.NewOTPMismatchError("Verification code has expired, request a new one")
	}

	if otp != user.OTP {
		return apperrors.NewOTPMismatchError("Invalid verification code")
	}

	return nil
}

func (s *AuthService) signToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(s.jwtCfg.TTL).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.jwtCfg.Secret))
}

// queueUserEmail best-effort queues an account email. A failure here is
// recoverable through the resend endpoint, so it only logs.
func (s *AuthService) queueUserEmail(ctx context.Context, eventType string, user *models.User) {
	event, err := models.NewEmailEvent(eventType, user.ID, models.EmailPayload{
		To:   user.Email,
		Name: user.Name,
		OTP:  user.OTP,
	})

	if err != nil {
		s.logger.Error("Failed to build email event", "error", err, "userID", user.ID)
		return
	}

	if err := s.events.Create(ctx, event); err != nil {
		s.logger.Error("Failed to queue email event", "error", err, "userID", user.ID, "eventType", eventType)
	}
}
