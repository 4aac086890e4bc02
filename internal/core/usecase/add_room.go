package usecase

import (
	"context"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"time"
)

type AddRoomUseCase struct {
	repo          port.ApartmentRepositoryPort
	storage       port.ObjectStoragePort
	events        port.ListingEventsPort
	maxImageBytes int64
	now           func() time.Time
}

func NewAddRoomUseCase(repo port.ApartmentRepositoryPort, storage port.ObjectStoragePort, events port.ListingEventsPort, maxImageBytes int64) *AddRoomUseCase {
	return &AddRoomUseCase{
		repo:          repo,
		storage:       storage,
		events:        events,
		maxImageBytes: maxImageBytes,
		now:           time.Now,
	}
}

// Execute добавляет комнату. Если передано фото, оно сначала загружается в хранилище,
// и в комнату записывается его публичная ссылка.
func (uc *AddRoomUseCase) Execute(ctx context.Context, session *domain.AuthSession, draft domain.RoomDraft) (*domain.Room, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":     "AddRoom",
		"apartment_id": draft.ApartmentID,
		"with_image":   draft.Image != nil,
	})
	ucLogger.Info("Use case started", nil)

	if session == nil {
		ucLogger.Warn("No auth session, rejecting", nil)
		return nil, domain.ErrUnauthorized
	}

	if err := draft.Validate(); err != nil {
		ucLogger.Warn("Room draft is invalid", port.Fields{"reason": err.Error()})
		return nil, err
	}

	var imageURL string
	if draft.Image != nil {
		if err := draft.Image.Validate(uc.maxImageBytes); err != nil {
			ucLogger.Warn("Room image rejected", port.Fields{"reason": err.Error()})
			return nil, err
		}

		objectName := domain.ObjectName(uc.now(), draft.Image.FileName)
		path, err := uc.storage.Upload(ctx, session.AccessToken, objectName, *draft.Image)
		if err != nil {
			ucLogger.Error("Failed to upload room image", err, port.Fields{"object_name": objectName})
			return nil, err
		}
		imageURL = uc.storage.PublicURL(path)
		ucLogger.Debug("Room image uploaded", port.Fields{"path": path})
	}

	room, err := uc.repo.CreateRoom(ctx, domain.NewRoom{
		ApartmentID: draft.ApartmentID,
		Name:        draft.Name,
		Size:        draft.Size,
		Equipment:   draft.Equipment,
		ImageURL:    imageURL,
	})
	if err != nil {
		ucLogger.Error("Repository failed to create room", err, nil)
		return nil, err
	}
	ucLogger = ucLogger.WithFields(port.Fields{"room_id": room.ID})

	event := domain.ListingChangedEvent{
		Type:        domain.EventRoomCreated,
		ApartmentID: room.ApartmentID,
		RoomID:      room.ID,
		OccurredAt:  uc.now().UTC(),
	}
	if err := uc.events.PublishListingChanged(ctx, event); err != nil {
		ucLogger.Error("Failed to publish room created event", err, nil)
	}

	ucLogger.Info("Use case finished: room added", nil)
	return room, nil
}
