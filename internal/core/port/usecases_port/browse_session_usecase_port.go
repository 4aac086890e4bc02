package usecases_port

import (
	"context"
	"listing-service/internal/core/browse"
	"listing-service/internal/core/domain"
)

// BrowseSessionUseCasePort - операции над сессией просмотра объявлений
type BrowseSessionUseCasePort interface {
	Open(ctx context.Context) (browse.View, error)
	View(ctx context.Context, sessionID string) (browse.View, error)
	ChangeCriteria(ctx context.Context, sessionID string, criteria domain.Criteria) (browse.View, error)
	RequestPage(ctx context.Context, sessionID string, page int) (browse.View, error)
	Close(ctx context.Context, sessionID string) error
}
