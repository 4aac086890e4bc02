package usecase

import (
	"context"
	"errors"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

type GetRoomUseCase struct {
	repo port.ApartmentRepositoryPort
}

func NewGetRoomUseCase(repo port.ApartmentRepositoryPort) *GetRoomUseCase {
	return &GetRoomUseCase{repo: repo}
}

func (uc *GetRoomUseCase) Execute(ctx context.Context, roomID string) (*domain.Room, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "GetRoom",
		"room_id":  roomID,
	})

	room, err := uc.repo.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			ucLogger.Warn("Room not found", nil)
		} else {
			ucLogger.Error("Repository failed to get room", err, nil)
		}
		return nil, err
	}

	return room, nil
}
