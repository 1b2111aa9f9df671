package middleware

import (
	"context"
	"net/http"

	"algo_answer_hub/internal/common"
	"algo_answer_hub/internal/common/security"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserIDCtxKey  contextKey = "userID"
	TokenIDCtxKey contextKey = "tokenID"
	IsAdminCtxKey contextKey = "isAdmin"
)

// SessionChecker answers whether a token id still maps to a live session.
type SessionChecker interface {
	SessionUserID(ctx context.Context, tokenID string) (string, error)
}

// Identify is best-effort: when the request carries a verified token whose
// session is still live, the viewer context is populated; otherwise the
// request proceeds anonymously. It never rejects, so it can sit on public
// routes and let authenticated viewers see their own like state.
func Identify(sessions SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := security.GetUserIDFromClaims(claims)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			tokenID, err := security.GetTokenIDFromClaims(claims)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			// Revoked sessions degrade to anonymous.
			liveUserID, err := sessions.SessionUserID(r.Context(), tokenID)
			if err != nil || liveUserID != userID {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDCtxKey, userID)
			ctx = context.WithValue(ctx, TokenIDCtxKey, tokenID)
			ctx = context.WithValue(ctx, IsAdminCtxKey, security.GetIsAdminFromClaims(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that Identify left anonymous.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserIDFromContext(r.Context()); !ok {
			common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		isAdmin, ok := r.Context().Value(IsAdminCtxKey).(bool)
		if !ok || !isAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Helper to get user ID from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok
}

// Helper to get the session token ID from context
func GetTokenIDFromContext(ctx context.Context) (string, bool) {
	tokenID, ok := ctx.Value(TokenIDCtxKey).(string)
	return tokenID, ok
}
