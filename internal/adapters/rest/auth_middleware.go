package rest

import (
	"errors"
	"net/http"
	"strings"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

type AuthMiddleware struct {
	verifier port.TokenVerifierPort
}

func NewAuthMiddleware(verifier port.TokenVerifierPort) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate проверяет Bearer-токен и кладёт domain.AuthSession в контекст запроса
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := contextkeys.LoggerFromContext(r.Context())

		token, ok := bearerToken(r)
		if !ok {
			WriteJSONError(w, http.StatusUnauthorized, "Authorization header is missing or malformed")
			return
		}

		user, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrUpstream) {
				logger.Error("Token verification failed on provider side", err, nil)
				WriteJSONError(w, http.StatusBadGateway, domain.ErrUpstream.Error())
				return
			}
			logger.Warn("Token rejected", port.Fields{"reason": err.Error()})
			WriteJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		session := &domain.AuthSession{AccessToken: token, User: *user}
		ctx := contextkeys.ContextWithAuthSession(r.Context(), session)
		ctx = contextkeys.ContextWithLogger(ctx, logger.WithFields(port.Fields{"user_id": user.ID}))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
