package usecase

import (
	"context"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/browse"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

// BrowseSessionUseCase - тонкая обёртка над реестром сессий просмотра
type BrowseSessionUseCase struct {
	manager *browse.Manager
}

func NewBrowseSessionUseCase(manager *browse.Manager) *BrowseSessionUseCase {
	return &BrowseSessionUseCase{manager: manager}
}

func (uc *BrowseSessionUseCase) Open(ctx context.Context) (browse.View, error) {
	store := uc.manager.Open(ctx)
	return store.View()
}

func (uc *BrowseSessionUseCase) View(ctx context.Context, sessionID string) (browse.View, error) {
	store, err := uc.manager.Get(sessionID)
	if err != nil {
		return browse.View{}, err
	}
	return store.View()
}

func (uc *BrowseSessionUseCase) ChangeCriteria(ctx context.Context, sessionID string, criteria domain.Criteria) (browse.View, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "ChangeBrowseCriteria",
		"session_id": sessionID,
	})

	store, err := uc.manager.Get(sessionID)
	if err != nil {
		ucLogger.Warn("Session not found", nil)
		return browse.View{}, err
	}

	view, err := store.ChangeCriteria(criteria)
	if err != nil {
		ucLogger.Warn("Criteria change rejected", port.Fields{"reason": err.Error()})
		return browse.View{}, err
	}

	ucLogger.Debug("Criteria applied", port.Fields{"total_found": view.Page.TotalItems})
	return view, nil
}

func (uc *BrowseSessionUseCase) RequestPage(ctx context.Context, sessionID string, page int) (browse.View, error) {
	store, err := uc.manager.Get(sessionID)
	if err != nil {
		return browse.View{}, err
	}
	return store.RequestPage(page)
}

func (uc *BrowseSessionUseCase) Close(ctx context.Context, sessionID string) error {
	if err := uc.manager.Close(sessionID); err != nil {
		return err
	}
	contextkeys.LoggerFromContext(ctx).Info("Browse session closed", port.Fields{"session_id": sessionID})
	return nil
}
