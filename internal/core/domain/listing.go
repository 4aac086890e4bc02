package domain

import (
	"time"
)

// Room - комната внутри объявления
type Room struct {
	ID          string
	ApartmentID string
	Name        string
	Size        float64 // м²
	Equipment   string
	// ImageURL пустой, если фото не загружали (клиент показывает заглушку)
	ImageURL  string
	CreatedAt time.Time
}

// HasImage сообщает, есть ли у комнаты загруженное фото
func (r Room) HasImage() bool {
	return r.ImageURL != ""
}

// Listing - объявление (квартира) вместе с комнатами.
// Только для чтения: набор загружается один раз и дальше не изменяется.
type Listing struct {
	ID          string
	Name        string
	Location    string
	Price       float64
	Description string
	CreatedAt   time.Time
	Rooms       []Room
}

// ApartmentRef - краткая запись для выпадающего списка при добавлении комнаты
type ApartmentRef struct {
	ID   string
	Name string
}

// ApartmentDraft - данные для создания квартиры
type ApartmentDraft struct {
	Name        string
	Location    string
	Price       float64
	Description string
	OwnerID     string
}

// UploadObject - файл, который нужно положить в объектное хранилище
type UploadObject struct {
	FileName    string
	ContentType string
	Data        []byte
}

// RoomDraft - данные для добавления комнаты к квартире
type RoomDraft struct {
	ApartmentID string
	Name        string
	Size        float64
	Equipment   string
	Image       *UploadObject // nil - без фото
}

// NewRoom - комната, готовая к вставке (фото уже загружено)
type NewRoom struct {
	ApartmentID string
	Name        string
	Size        float64
	Equipment   string
	ImageURL    string
}
