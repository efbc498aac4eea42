package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohd-saif-1850/trophy-store-api/internal/config"
	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
	"github.com/mohd-saif-1850/trophy-store-api/internal/repository"
	"github.com/mohd-saif-1850/trophy-store-api/internal/service"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

type stubUserStore struct {
	users map[string]*models.User
}

func (f *stubUserStore) Create(ctx context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *stubUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (f *stubUserStore) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, identifier) || u.MobileNumber == identifier {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *stubUserStore) ExistsByEmailOrMobile(ctx context.Context, email, mobile string) (bool, error) {
	return false, nil
}

func (f *stubUserStore) Update(ctx context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *stubUserStore) Delete(ctx context.Context, id string) error {
	delete(f.users, id)
	return nil
}

type stubEventStore struct{}

func (stubEventStore) Create(ctx context.Context, message *models.OutboxMessage) error { return nil }

// newTestServer wires just enough of the server to exercise routing and
// the auth middleware.
func newTestServer(t *testing.T) (*Server, *stubUserStore) {
	t.Helper()

	users := &stubUserStore{users: make(map[string]*models.User)}

	authService := service.NewAuthService(users, stubEventStore{}, config.JWTConfig{
		Secret: "test-secret",
		TTL:    time.Hour,
	}, logger.NewNopLogger())

	s := &Server{
		logger:      logger.NewNopLogger(),
		router:      mux.NewRouter(),
		authService: authService,
	}
	s.setupRoutes()

	return s, users
}

func addVerifiedUser(t *testing.T, users *stubUserStore, role string) *models.User {
	t.Helper()

	user := models.NewUser("Anas", "9876543210", role+"@example.com", "hash")
	user.Verified = true
	user.Role = role
	user.OTP = ""
	user.OTPExpiry = nil
	user.ExpiresAt = nil
	users.users[user.ID] = user

	return user
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	return token
}

func doRequest(s *Server, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/v1/health", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ApiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/v1/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/v1/me", "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRouteWithValidToken(t *testing.T) {
	s, users := newTestServer(t)

	user := addVerifiedUser(t, users, models.RoleUser)
	token := tokenFor(t, user)

	rec := doRequest(s, http.MethodGet, "/api/v1/me", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ApiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestAdminRouteRejectsRegularUsers(t *testing.T) {
	s, users := newTestServer(t)

	user := addVerifiedUser(t, users, models.RoleUser)
	token := tokenFor(t, user)

	rec := doRequest(s, http.MethodGet, "/api/v1/admin/mailer/status", token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var resp ApiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Message)
}

func TestAuthRejectsDeletedAccount(t *testing.T) {
	s, users := newTestServer(t)

	user := addVerifiedUser(t, users, models.RoleUser)
	token := tokenFor(t, user)

	delete(users.users, user.ID)

	rec := doRequest(s, http.MethodGet, "/api/v1/me", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
