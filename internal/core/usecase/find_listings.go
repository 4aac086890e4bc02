package usecase

import (
	"context"
	"fmt"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

// FindListingsUseCase - поиск без сессии: загрузка, фильтр и пагинация за один вызов
type FindListingsUseCase struct {
	fetcher  port.ListingFetcherPort
	pageSize int
}

func NewFindListingsUseCase(fetcher port.ListingFetcherPort, pageSize int) *FindListingsUseCase {
	return &FindListingsUseCase{fetcher: fetcher, pageSize: pageSize}
}

func (uc *FindListingsUseCase) Execute(ctx context.Context, criteria domain.Criteria, page int) (*domain.Page[domain.Listing], error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":       "FindListings",
		"location_query": criteria.LocationQuery,
		"page":           page,
	})
	if criteria.MaxPrice != nil {
		ucLogger = ucLogger.WithFields(port.Fields{"max_price": *criteria.MaxPrice})
	}

	ucLogger.Info("Use case started", nil)

	listings, err := uc.fetcher.FetchAllListings(ctx)
	if err != nil {
		ucLogger.Error("Fetcher returned an error", err, nil)
		return nil, fmt.Errorf("%w: %w", domain.ErrFetchListings, err)
	}

	filtered := domain.FilterListings(listings, criteria)
	result := domain.Paginate(filtered, uc.pageSize, page)

	ucLogger.Info("Use case finished successfully", port.Fields{
		"total_found":   result.TotalItems,
		"items_on_page": len(result.Items),
	})
	return &result, nil
}
