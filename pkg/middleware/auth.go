package middleware

import (
	"net/http"
	"strings"

	"rentio/pkg/auth"
	"rentio/pkg/logger"
	"rentio/pkg/model"
)

// Authentication resolves the caller from the access_token cookie (or a
// Bearer header as a fallback for non-browser clients) and attaches the
// principal to the request context. Anonymous requests pass through; the
// service layer decides which operations require a caller.
func Authentication(tokens *auth.TokenManager, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractAccessToken(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Validate(tokenString, auth.TokenTypeAccess)
			if err != nil {
				log.Warn("Rejected invalid access token",
					"request_id", requestIDFrom(r.Context()),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Invalid or expired token"}`))
				return
			}

			role, err := model.ParseRole(claims.Role)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Invalid or expired token"}`))
				return
			}

			principal := &auth.Principal{
				UserID: claims.UserID,
				Email:  claims.Email,
				Role:   role,
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

func extractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(auth.AccessCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
