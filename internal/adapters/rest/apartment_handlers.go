package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/port/usecases_port"

	"github.com/go-chi/chi/v5"
)

// multipartOverhead - запас на текстовые поля формы сверх размера фото
const multipartOverhead = 1 << 20

type ApartmentHandler struct {
	createApartmentUC usecases_port.CreateApartmentUseCasePort
	listApartmentsUC  usecases_port.ListApartmentsUseCasePort
	addRoomUC         usecases_port.AddRoomUseCasePort
	maxImageBytes     int64
}

func NewApartmentHandler(
	createApartmentUC usecases_port.CreateApartmentUseCasePort,
	listApartmentsUC usecases_port.ListApartmentsUseCasePort,
	addRoomUC usecases_port.AddRoomUseCasePort,
	maxImageBytes int64,
) *ApartmentHandler {
	return &ApartmentHandler{
		createApartmentUC: createApartmentUC,
		listApartmentsUC:  listApartmentsUC,
		addRoomUC:         addRoomUC,
		maxImageBytes:     maxImageBytes,
	}
}

// ListApartments обрабатывает GET /api/v1/apartments
func (h *ApartmentHandler) ListApartments(w http.ResponseWriter, r *http.Request) {
	refs, err := h.listApartmentsUC.Execute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]apartmentRefResponse, 0, len(refs))
	for _, ref := range refs {
		resp = append(resp, apartmentRefResponse{ID: ref.ID, Name: ref.Name})
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

// CreateApartment обрабатывает POST /api/v1/apartments. Ответ содержит id для формы комнаты.
func (h *ApartmentHandler) CreateApartment(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "CreateApartment"})

	session, ok := contextkeys.AuthSessionFromContext(r.Context())
	if !ok {
		WriteJSONError(w, http.StatusUnauthorized, "Auth session not found in context")
		return
	}

	var req createApartmentRequest
	if err := decodeJSONBody(r, "CreateApartmentRequest", &req); err != nil {
		logger.Warn("Invalid create apartment request", port.Fields{"reason": err.Error()})
		writeError(w, err)
		return
	}

	listing, err := h.createApartmentUC.Execute(r.Context(), domain.ApartmentDraft{
		Name:        req.Name,
		Location:    req.Location,
		Price:       req.Price,
		Description: req.Description,
		OwnerID:     session.User.ID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	RespondWithJSON(w, http.StatusCreated, toListingResponse(*listing))
}

// AddRoom обрабатывает POST /api/v1/apartments/{apartmentID}/rooms (multipart/form-data)
func (h *ApartmentHandler) AddRoom(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "AddRoom"})

	session, ok := contextkeys.AuthSessionFromContext(r.Context())
	if !ok {
		WriteJSONError(w, http.StatusUnauthorized, "Auth session not found in context")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxImageBytes + multipartOverhead); err != nil {
		logger.Warn("Failed to parse multipart form", port.Fields{"reason": err.Error()})
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteJSONError(w, http.StatusRequestEntityTooLarge, "Request body is too large")
			return
		}
		WriteJSONError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	draft := domain.RoomDraft{
		ApartmentID: chi.URLParam(r, "apartmentID"),
		Name:        r.FormValue("name"),
		Equipment:   r.FormValue("equipment"),
	}

	rawSize := strings.TrimSpace(r.FormValue("size"))
	size, err := strconv.ParseFloat(rawSize, 64)
	if err != nil {
		writeError(w, fmt.Errorf("%w: field 'size' must be a positive number", domain.ErrValidation))
		return
	}
	draft.Size = size

	image, err := h.readImage(r)
	if err != nil {
		writeError(w, err)
		return
	}
	draft.Image = image

	room, err := h.addRoomUC.Execute(r.Context(), session, draft)
	if err != nil {
		writeError(w, err)
		return
	}

	RespondWithJSON(w, http.StatusCreated, toRoomResponse(*room))
}

// readImage читает необязательное поле image. Отсутствие файла - не ошибка.
func (h *ApartmentHandler) readImage(r *http.Request) (*domain.UploadObject, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read image", domain.ErrInvalidImage)
	}
	defer file.Close()

	// на байт больше лимита, чтобы use case увидел превышение
	data, err := io.ReadAll(io.LimitReader(file, h.maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read image", domain.ErrInvalidImage)
	}

	return &domain.UploadObject{
		FileName:    header.Filename,
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}
