package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
)

type contextKey string

const userContextKey contextKey = "authenticated-user"

// loggingMiddleware logs every request after it is served
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("Request processed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"remoteAddr", r.RemoteAddr,
		)
	})
}

// requireAuth validates the bearer token and loads the account onto the
// request context. The database record is authoritative for the role.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")

		if !strings.HasPrefix(header, "Bearer ") {
			s.respondWithMessage(w, http.StatusUnauthorized, "Missing or malformed Authorization header")
			return
		}

		claims, err := s.authService.VerifyToken(strings.TrimPrefix(header, "Bearer "))

		if err != nil {
			s.respondWithError(w, err)
			return
		}

		user, err := s.authService.GetUser(r.Context(), claims.UserID)

		if err != nil {
			s.respondWithMessage(w, http.StatusUnauthorized, "Account no longer exists")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// requireAdmin allows only accounts with the admin role through
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := userFromContext(r.Context())

		if user == nil || user.Role != models.RoleAdmin {
			s.respondWithMessage(w, http.StatusForbidden, "Admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func userFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}
