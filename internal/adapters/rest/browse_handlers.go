package rest

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/port/usecases_port"

	"github.com/go-chi/chi/v5"
)

// sseKeepAliveInterval - период комментариев-пингов в SSE-потоке
const sseKeepAliveInterval = 15 * time.Second

// SSEClientRegistry - подписка на уведомления сессии просмотра
type SSEClientRegistry interface {
	AddClient(sessionID string) <-chan []byte
	RemoveClient(sessionID string, ch <-chan []byte)
}

type BrowseHandler struct {
	browseUC  usecases_port.BrowseSessionUseCasePort
	notifier  SSEClientRegistry
	keepAlive time.Duration
}

func NewBrowseHandler(browseUC usecases_port.BrowseSessionUseCasePort, notifier SSEClientRegistry) *BrowseHandler {
	return &BrowseHandler{
		browseUC:  browseUC,
		notifier:  notifier,
		keepAlive: sseKeepAliveInterval,
	}
}

// OpenSession обрабатывает POST /api/v1/browse-sessions.
// Загрузка идёт в фоне, поэтому ответ 202 с состоянием empty.
func (h *BrowseHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.browseUC.Open(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/browse-sessions/"+view.SessionID)
	RespondWithJSON(w, http.StatusAccepted, toBrowseViewResponse(view))
}

// GetSession обрабатывает GET /api/v1/browse-sessions/{sessionID}
func (h *BrowseHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.browseUC.View(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toBrowseViewResponse(view))
}

// UpdateCriteria обрабатывает PUT /api/v1/browse-sessions/{sessionID}/criteria
func (h *BrowseHandler) UpdateCriteria(w http.ResponseWriter, r *http.Request) {
	var req updateCriteriaRequest
	if err := decodeJSONBody(r, "UpdateCriteriaRequest", &req); err != nil {
		writeError(w, err)
		return
	}

	criteria, err := domain.ParseCriteria(req.Location, req.MaxPrice)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.browseUC.ChangeCriteria(r.Context(), chi.URLParam(r, "sessionID"), criteria)
	if err != nil {
		writeError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toBrowseViewResponse(view))
}

// RequestPage обрабатывает PUT /api/v1/browse-sessions/{sessionID}/page
func (h *BrowseHandler) RequestPage(w http.ResponseWriter, r *http.Request) {
	var req requestPageRequest
	if err := decodeJSONBody(r, "RequestPageRequest", &req); err != nil {
		writeError(w, err)
		return
	}

	view, err := h.browseUC.RequestPage(r.Context(), chi.URLParam(r, "sessionID"), req.Page)
	if err != nil {
		writeError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toBrowseViewResponse(view))
}

// CloseSession обрабатывает DELETE /api/v1/browse-sessions/{sessionID}
func (h *BrowseHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.browseUC.Close(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubscribeToEvents обрабатывает GET /api/v1/browse-sessions/{sessionID}/events
func (h *BrowseHandler) SubscribeToEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	handlerLogger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{
		"handler":    "SubscribeToEvents",
		"session_id": sessionID,
	})

	if _, err := h.browseUC.View(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteJSONError(w, http.StatusInternalServerError, "Streaming is not supported")
		return
	}

	handlerLogger.Info("New client subscribing to SSE events", nil)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := h.notifier.AddClient(sessionID)
	defer h.notifier.RemoveClient(sessionID, clientChan)

	// ping для подтверждения установки соединения
	fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case data := <-clientChan:
			if _, err := w.Write(data); err != nil {
				handlerLogger.Error("Error writing to client, closing SSE connection", err, nil)
				return
			}
			flusher.Flush()
			handlerLogger.Debug("Sent SSE event to client", nil)

		case <-ticker.C:
			// View продлевает жизнь сессии, пока поток открыт
			if _, err := h.browseUC.View(r.Context(), sessionID); errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrSessionClosed) {
				handlerLogger.Info("Browse session ended, closing SSE connection", nil)
				fmt.Fprintf(w, "event: closed\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			// строки с двоеточия в SSE - комментарии, браузер их игнорирует
			if _, err := fmt.Fprintf(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			handlerLogger.Info("SSE client disconnected", nil)
			return
		}
	}
}
