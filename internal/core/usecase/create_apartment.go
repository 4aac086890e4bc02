package usecase

import (
	"context"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"time"
)

type CreateApartmentUseCase struct {
	repo   port.ApartmentRepositoryPort
	events port.ListingEventsPort
}

func NewCreateApartmentUseCase(repo port.ApartmentRepositoryPort, events port.ListingEventsPort) *CreateApartmentUseCase {
	return &CreateApartmentUseCase{repo: repo, events: events}
}

// Execute создаёт квартиру и возвращает её с присвоенным id (нужен для добавления комнат)
func (uc *CreateApartmentUseCase) Execute(ctx context.Context, draft domain.ApartmentDraft) (*domain.Listing, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "CreateApartment",
		"owner_id": draft.OwnerID,
	})
	ucLogger.Info("Use case started", nil)

	if err := draft.Validate(); err != nil {
		ucLogger.Warn("Apartment draft is invalid", port.Fields{"reason": err.Error()})
		return nil, err
	}

	apartment, err := uc.repo.CreateApartment(ctx, draft)
	if err != nil {
		ucLogger.Error("Repository failed to create apartment", err, nil)
		return nil, err
	}
	ucLogger = ucLogger.WithFields(port.Fields{"apartment_id": apartment.ID})

	// квартира уже сохранена, ошибка публикации только логируется
	event := domain.ListingChangedEvent{
		Type:        domain.EventApartmentCreated,
		ApartmentID: apartment.ID,
		OccurredAt:  time.Now().UTC(),
	}
	if err := uc.events.PublishListingChanged(ctx, event); err != nil {
		ucLogger.Error("Failed to publish apartment created event", err, nil)
	}

	ucLogger.Info("Use case finished: apartment created", nil)
	return apartment, nil
}
