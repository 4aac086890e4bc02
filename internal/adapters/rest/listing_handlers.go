package rest

import (
	"net/http"
	"strconv"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/port/usecases_port"

	"github.com/go-chi/chi/v5"
)

type ListingHandler struct {
	findListingsUC usecases_port.FindListingsUseCasePort
	getRoomUC      usecases_port.GetRoomUseCasePort
}

func NewListingHandler(findListingsUC usecases_port.FindListingsUseCasePort, getRoomUC usecases_port.GetRoomUseCasePort) *ListingHandler {
	return &ListingHandler{
		findListingsUC: findListingsUC,
		getRoomUC:      getRoomUC,
	}
}

// FindListings обрабатывает GET /api/v1/listings?location=&maxPrice=&page=
func (h *ListingHandler) FindListings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	criteria, err := domain.ParseCriteria(query.Get("location"), query.Get("maxPrice"))
	if err != nil {
		writeError(w, err)
		return
	}

	// нечисловая страница - первая, выход за диапазон ограничит пагинатор
	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}

	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{
		"handler": "FindListings",
		"page":    page,
	})
	logger.Debug("Processing request to find listings", nil)

	result, err := h.findListingsUC.Execute(r.Context(), criteria, page)
	if err != nil {
		logger.Error("Failed to find listings", err, nil)
		writeError(w, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, toPageResponse(*result))
}

// GetRoom обрабатывает GET /api/v1/rooms/{roomID}
func (h *ListingHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	room, err := h.getRoomUC.Execute(r.Context(), roomID)
	if err != nil {
		writeError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toRoomResponse(*room))
}
