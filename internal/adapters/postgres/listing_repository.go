package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	foreignKeyViolation = "23503"
	invalidTextRepr     = "22P02" // невалидный uuid в параметре
)

// querier - часть pgxpool.Pool, которой пользуется адаптер
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresListingAdapter реализует ListingFetcherPort и ApartmentRepositoryPort
type PostgresListingAdapter struct {
	db querier
}

func NewPostgresListingAdapter(pool *pgxpool.Pool) (*PostgresListingAdapter, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &PostgresListingAdapter{db: pool}, nil
}

// listingRow - строка LEFT JOIN квартир и комнат. Поля комнаты пустые, если комнат нет.
type listingRow struct {
	ApartmentID        string
	ApartmentName      string
	Location           string
	Price              float64
	Description        string
	ApartmentCreatedAt time.Time
	RoomID             *string
	RoomName           *string
	RoomSize           *float64
	RoomEquipment      *string
	RoomImageURL       *string
	RoomCreatedAt      *time.Time
}

const fetchAllListingsQuery = `
	SELECT a.id::text, a.name, a.location, a.price::float8, a.description, a.created_at,
	       r.id::text, r.name, r.size::float8, r.equipment, r.image_url, r.created_at
	FROM apartments a
	LEFT JOIN rooms r ON r.apartment_id = a.id
	ORDER BY a.created_at, a.id, r.created_at, r.id`

// FetchAllListings загружает все квартиры вместе с комнатами одним запросом
func (a *PostgresListingAdapter) FetchAllListings(ctx context.Context) ([]domain.Listing, error) {
	repoLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "PostgresListingAdapter",
		"method":    "FetchAllListings",
	})

	rows, err := a.db.Query(ctx, fetchAllListingsQuery)
	if err != nil {
		repoLogger.Error("Failed to query listings", err, nil)
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var scanned []listingRow
	for rows.Next() {
		var r listingRow
		if err := rows.Scan(
			&r.ApartmentID, &r.ApartmentName, &r.Location, &r.Price, &r.Description, &r.ApartmentCreatedAt,
			&r.RoomID, &r.RoomName, &r.RoomSize, &r.RoomEquipment, &r.RoomImageURL, &r.RoomCreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan listing row: %w", err)
		}
		scanned = append(scanned, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listing rows: %w", err)
	}

	listings := assembleListings(scanned)
	repoLogger.Debug("Listings fetched", port.Fields{"apartments": len(listings), "rows": len(scanned)})
	return listings, nil
}

// assembleListings группирует строки JOIN в объявления, сохраняя порядок запроса
func assembleListings(rows []listingRow) []domain.Listing {
	listings := make([]domain.Listing, 0)
	index := make(map[string]int)

	for _, r := range rows {
		i, ok := index[r.ApartmentID]
		if !ok {
			listings = append(listings, domain.Listing{
				ID:          r.ApartmentID,
				Name:        r.ApartmentName,
				Location:    r.Location,
				Price:       r.Price,
				Description: r.Description,
				CreatedAt:   r.ApartmentCreatedAt,
				Rooms:       []domain.Room{},
			})
			i = len(listings) - 1
			index[r.ApartmentID] = i
		}
		if r.RoomID == nil {
			continue
		}
		listings[i].Rooms = append(listings[i].Rooms, roomFromRow(r))
	}
	return listings
}

func roomFromRow(r listingRow) domain.Room {
	room := domain.Room{
		ID:          *r.RoomID,
		ApartmentID: r.ApartmentID,
	}
	if r.RoomName != nil {
		room.Name = *r.RoomName
	}
	if r.RoomSize != nil {
		room.Size = *r.RoomSize
	}
	if r.RoomEquipment != nil {
		room.Equipment = *r.RoomEquipment
	}
	if r.RoomImageURL != nil {
		room.ImageURL = *r.RoomImageURL
	}
	if r.RoomCreatedAt != nil {
		room.CreatedAt = *r.RoomCreatedAt
	}
	return room
}

// CreateApartment вставляет квартиру и возвращает её как объявление без комнат
func (a *PostgresListingAdapter) CreateApartment(ctx context.Context, draft domain.ApartmentDraft) (*domain.Listing, error) {
	const query = `
		INSERT INTO apartments (name, location, price, description, owner_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid)
		RETURNING id::text, created_at`

	listing := &domain.Listing{
		Name:        draft.Name,
		Location:    draft.Location,
		Price:       draft.Price,
		Description: draft.Description,
		Rooms:       []domain.Room{},
	}
	err := a.db.QueryRow(ctx, query, draft.Name, draft.Location, draft.Price, draft.Description, draft.OwnerID).
		Scan(&listing.ID, &listing.CreatedAt)
	if err != nil {
		contextkeys.LoggerFromContext(ctx).Error("Failed to insert apartment", err, port.Fields{"component": "PostgresListingAdapter"})
		return nil, fmt.Errorf("failed to insert apartment: %w", err)
	}
	return listing, nil
}

// ListApartmentRefs возвращает id и названия квартир для выбора при добавлении комнаты
func (a *PostgresListingAdapter) ListApartmentRefs(ctx context.Context) ([]domain.ApartmentRef, error) {
	rows, err := a.db.Query(ctx, `SELECT id::text, name FROM apartments ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query apartments: %w", err)
	}
	defer rows.Close()

	refs := make([]domain.ApartmentRef, 0)
	for rows.Next() {
		var ref domain.ApartmentRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("failed to scan apartment ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate apartments: %w", err)
	}
	return refs, nil
}

// CreateRoom вставляет комнату. Несуществующая квартира - ErrApartmentNotFound.
func (a *PostgresListingAdapter) CreateRoom(ctx context.Context, newRoom domain.NewRoom) (*domain.Room, error) {
	const query = `
		INSERT INTO rooms (apartment_id, name, size, equipment, image_url)
		VALUES ($1::uuid, $2, $3, $4, NULLIF($5, ''))
		RETURNING id::text, created_at`

	room := &domain.Room{
		ApartmentID: newRoom.ApartmentID,
		Name:        newRoom.Name,
		Size:        newRoom.Size,
		Equipment:   newRoom.Equipment,
		ImageURL:    newRoom.ImageURL,
	}
	err := a.db.QueryRow(ctx, query, newRoom.ApartmentID, newRoom.Name, newRoom.Size, newRoom.Equipment, newRoom.ImageURL).
		Scan(&room.ID, &room.CreatedAt)
	if err != nil {
		if isPgError(err, foreignKeyViolation, invalidTextRepr) {
			return nil, fmt.Errorf("%w: %s", domain.ErrApartmentNotFound, newRoom.ApartmentID)
		}
		contextkeys.LoggerFromContext(ctx).Error("Failed to insert room", err, port.Fields{"component": "PostgresListingAdapter"})
		return nil, fmt.Errorf("failed to insert room: %w", err)
	}
	return room, nil
}

// GetRoomByID возвращает комнату по id
func (a *PostgresListingAdapter) GetRoomByID(ctx context.Context, roomID string) (*domain.Room, error) {
	const query = `
		SELECT id::text, apartment_id::text, name, size::float8, equipment, COALESCE(image_url, ''), created_at
		FROM rooms WHERE id = $1::uuid`

	var room domain.Room
	err := a.db.QueryRow(ctx, query, roomID).Scan(
		&room.ID, &room.ApartmentID, &room.Name, &room.Size, &room.Equipment, &room.ImageURL, &room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isPgError(err, invalidTextRepr) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRoomNotFound, roomID)
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}

func isPgError(err error, codes ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	for _, code := range codes {
		if pgErr.Code == code {
			return true
		}
	}
	return false
}
