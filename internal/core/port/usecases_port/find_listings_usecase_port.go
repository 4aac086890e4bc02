package usecases_port

import (
	"context"
	"listing-service/internal/core/domain"
)

type FindListingsUseCasePort interface {
	Execute(ctx context.Context, criteria domain.Criteria, page int) (*domain.Page[domain.Listing], error)
}
