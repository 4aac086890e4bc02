package redis_cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/metrics"
	"listing-service/pkg/redis"
)

const (
	// ListingsKey - ключ полного набора объявлений
	ListingsKey = "listings:all:v1"
	// GenerationKey - счётчик инвалидаций. Набор пишется в кэш, только если счётчик
	// не изменился с начала загрузки из источника.
	GenerationKey = "listings:all:generation"
)

// store - операции Redis, которые нужны кэшу
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Incr(ctx context.Context, key string) (int64, error)
	SetIfEqual(ctx context.Context, guardKey, expected, key string, value []byte, expiration time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// CachedListingFetcher оборачивает источник объявлений кэшем в Redis.
// Ошибки Redis не ломают загрузку: запрос уходит в источник.
type CachedListingFetcher struct {
	next  port.ListingFetcherPort
	store store
	ttl   time.Duration
}

func NewCachedListingFetcher(next port.ListingFetcherPort, client *redis.Client, ttl time.Duration) (*CachedListingFetcher, error) {
	if next == nil {
		return nil, fmt.Errorf("underlying listing fetcher cannot be nil")
	}
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	return &CachedListingFetcher{next: next, store: client, ttl: ttl}, nil
}

func (c *CachedListingFetcher) FetchAllListings(ctx context.Context) ([]domain.Listing, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "CachedListingFetcher"})

	generation, genErr := c.generation(ctx)

	raw, err := c.store.Get(ctx, ListingsKey)
	switch {
	case err == nil:
		var listings []domain.Listing
		jsonErr := json.Unmarshal(raw, &listings)
		if jsonErr == nil {
			metrics.ListingCacheLookups.WithLabelValues("hit").Inc()
			logger.Debug("Listings served from cache", port.Fields{"apartments": len(listings)})
			return listings, nil
		}
		metrics.ListingCacheLookups.WithLabelValues("error").Inc()
		logger.Warn("Corrupted listings cache entry, refetching", port.Fields{"error": jsonErr.Error()})
	case errors.Is(err, redis.ErrNil):
		metrics.ListingCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.ListingCacheLookups.WithLabelValues("error").Inc()
		logger.Warn("Listings cache unavailable, falling back to source", port.Fields{"error": err.Error()})
	}

	listings, err := c.next.FetchAllListings(ctx)
	if err != nil {
		return nil, err
	}

	if genErr != nil {
		// без поколения нельзя понять, не устарел ли набор
		return listings, nil
	}

	payload, err := json.Marshal(listings)
	if err != nil {
		logger.Error("Failed to encode listings for cache", err, nil)
		return listings, nil
	}
	stored, err := c.store.SetIfEqual(ctx, GenerationKey, generation, ListingsKey, payload, c.ttl)
	switch {
	case err != nil:
		logger.Warn("Failed to store listings in cache", port.Fields{"error": err.Error()})
	case !stored:
		logger.Debug("Listings changed during fetch, cache write skipped", nil)
	}
	return listings, nil
}

func (c *CachedListingFetcher) generation(ctx context.Context) (string, error) {
	raw, err := c.store.Get(ctx, GenerationKey)
	if errors.Is(err, redis.ErrNil) {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Invalidate сдвигает поколение и удаляет закэшированный набор.
// Загрузки, начатые до вызова, свой результат в кэш уже не запишут.
func (c *CachedListingFetcher) Invalidate(ctx context.Context) error {
	if _, err := c.store.Incr(ctx, GenerationKey); err != nil {
		return fmt.Errorf("failed to invalidate listings cache: %w", err)
	}
	if err := c.store.Del(ctx, ListingsKey); err != nil {
		return fmt.Errorf("failed to invalidate listings cache: %w", err)
	}
	return nil
}

// NoopListingCache используется, когда Redis выключен
type NoopListingCache struct{}

func (NoopListingCache) Invalidate(ctx context.Context) error { return nil }
