package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"listing-service/internal/contracts"
	"listing-service/internal/core/domain"
)

// maxJSONBodyBytes - предел для JSON-тел запросов
const maxJSONBodyBytes = 1 << 20

// WriteJSONError отправляет JSON-ответ с полем "error" и заданным статусом
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// RespondWithJSON отправляет JSON-ответ
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to marshal JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// decodeJSONBody читает тело, проверяет его по схеме requestName и раскладывает в dst
func decodeJSONBody(r *http.Request, requestName string, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: failed to read request body", domain.ErrValidation)
	}
	if err := contracts.ValidateRequest(requestName, body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrValidation)
	}
	return nil
}

// statusForError сопоставляет доменную ошибку со статусом и текстом для клиента
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidMaxPrice),
		errors.Is(err, domain.ErrInvalidImage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrTokenInvalid):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrApartmentNotFound),
		errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSessionClosed):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrEmailInUse),
		errors.Is(err, domain.ErrSessionNotLoaded):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrFetchListings):
		return http.StatusBadGateway, domain.ErrFetchListings.Error()
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, domain.ErrUpstream.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// writeError пишет ответ по доменной ошибке
func writeError(w http.ResponseWriter, err error) {
	status, message := statusForError(err)
	WriteJSONError(w, status, message)
}
