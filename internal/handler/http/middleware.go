package http

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/auth"
)

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireSession rejects requests without a live session token and stores
// the resolved session in the request context.
func RequireSession(sessions auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respondWithError(w, http.StatusUnauthorized, "Missing session token")
				return
			}
			sess, err := sessions.Resolve(r.Context(), token)
			if err != nil {
				respondWithServiceError(w, err, "Failed to resolve session")
				return
			}
			log.Debug().Stringer("user_id", sess.UserID).Str("role", string(sess.Role)).Msg("Session resolved")
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
		})
	}
}
