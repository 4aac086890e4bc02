package usecase

import (
	"context"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

type ListApartmentsUseCase struct {
	repo port.ApartmentRepositoryPort
}

func NewListApartmentsUseCase(repo port.ApartmentRepositoryPort) *ListApartmentsUseCase {
	return &ListApartmentsUseCase{repo: repo}
}

func (uc *ListApartmentsUseCase) Execute(ctx context.Context) ([]domain.ApartmentRef, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"use_case": "ListApartments"})

	refs, err := uc.repo.ListApartmentRefs(ctx)
	if err != nil {
		ucLogger.Error("Repository failed to list apartments", err, nil)
		return nil, err
	}

	ucLogger.Debug("Apartments listed", port.Fields{"count": len(refs)})
	return refs, nil
}
