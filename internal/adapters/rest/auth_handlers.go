package rest

import (
	"net/http"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/port/usecases_port"
)

type AuthHandler struct {
	signUpUC  usecases_port.SignUpUseCasePort
	signInUC  usecases_port.SignInUseCasePort
	signOutUC usecases_port.SignOutUseCasePort
	currentUC usecases_port.GetCurrentUserUseCasePort
}

func NewAuthHandler(
	signUpUC usecases_port.SignUpUseCasePort,
	signInUC usecases_port.SignInUseCasePort,
	signOutUC usecases_port.SignOutUseCasePort,
	currentUC usecases_port.GetCurrentUserUseCasePort,
) *AuthHandler {
	return &AuthHandler{
		signUpUC:  signUpUC,
		signInUC:  signInUC,
		signOutUC: signOutUC,
		currentUC: currentUC,
	}
}

// SignUp обрабатывает POST /api/v1/auth/sign-up
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SignUp"})

	var req credentialsRequest
	if err := decodeJSONBody(r, "SignUpRequest", &req); err != nil {
		logger.Warn("Invalid sign-up request", port.Fields{"reason": err.Error()})
		writeError(w, err)
		return
	}

	result, err := h.signUpUC.Execute(r.Context(), domain.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(w, err)
		return
	}

	RespondWithJSON(w, http.StatusCreated, signUpResponse{
		User:    toUserResponse(result.User),
		Session: toSessionResponse(result.Session),
	})
}

// SignIn обрабатывает POST /api/v1/auth/sign-in
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SignIn"})

	var req credentialsRequest
	if err := decodeJSONBody(r, "SignInRequest", &req); err != nil {
		logger.Warn("Invalid sign-in request", port.Fields{"reason": err.Error()})
		writeError(w, err)
		return
	}

	session, err := h.signInUC.Execute(r.Context(), domain.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(w, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, toSessionResponse(session))
}

// SignOut обрабатывает POST /api/v1/auth/sign-out
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	session, ok := contextkeys.AuthSessionFromContext(r.Context())
	if !ok {
		WriteJSONError(w, http.StatusUnauthorized, "Auth session not found in context")
		return
	}

	if err := h.signOutUC.Execute(r.Context(), session); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me обрабатывает GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := contextkeys.AuthSessionFromContext(r.Context())
	if !ok {
		WriteJSONError(w, http.StatusUnauthorized, "Auth session not found in context")
		return
	}

	user, err := h.currentUC.Execute(r.Context(), session.AccessToken)
	if err != nil {
		writeError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toUserResponse(*user))
}
