package rest

import (
	"time"

	"listing-service/internal/core/browse"
	"listing-service/internal/core/domain"
)

// --- Запросы ---

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createApartmentRequest struct {
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// updateCriteriaRequest: max_price приходит строкой из поля формы
type updateCriteriaRequest struct {
	Location string `json:"location"`
	MaxPrice string `json:"max_price"`
}

type requestPageRequest struct {
	Page int `json:"page"`
}

// --- Ответы ---

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

type sessionResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	User         userResponse `json:"user"`
}

type signUpResponse struct {
	User    userResponse     `json:"user"`
	Session *sessionResponse `json:"session"`
}

type roomResponse struct {
	ID          string    `json:"id"`
	ApartmentID string    `json:"apartment_id"`
	Name        string    `json:"name"`
	Size        float64   `json:"size"`
	Equipment   string    `json:"equipment"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type listingResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Location    string         `json:"location"`
	Price       float64        `json:"price"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	Rooms       []roomResponse `json:"rooms"`
}

type apartmentRefResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type pageResponse struct {
	Items      []listingResponse `json:"items"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
	TotalItems int               `json:"total_items"`
	PageSize   int               `json:"page_size"`
}

type criteriaResponse struct {
	Location string   `json:"location"`
	MaxPrice *float64 `json:"max_price"`
}

type browseViewResponse struct {
	SessionID string           `json:"session_id"`
	State     string           `json:"state"`
	Criteria  criteriaResponse `json:"criteria"`
	Page      pageResponse     `json:"page"`
	Error     string           `json:"error,omitempty"`
}

// --- Маппинг ---

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Role: u.Role}
}

func toSessionResponse(s *domain.AuthSession) *sessionResponse {
	if s == nil {
		return nil
	}
	return &sessionResponse{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		User:         toUserResponse(s.User),
	}
}

func toRoomResponse(r domain.Room) roomResponse {
	resp := roomResponse{
		ID:          r.ID,
		ApartmentID: r.ApartmentID,
		Name:        r.Name,
		Size:        r.Size,
		Equipment:   r.Equipment,
		CreatedAt:   r.CreatedAt,
	}
	// null вместо пустой строки: клиент рисует заглушку
	if r.HasImage() {
		url := r.ImageURL
		resp.ImageURL = &url
	}
	return resp
}

func toListingResponse(l domain.Listing) listingResponse {
	rooms := make([]roomResponse, 0, len(l.Rooms))
	for _, r := range l.Rooms {
		rooms = append(rooms, toRoomResponse(r))
	}
	return listingResponse{
		ID:          l.ID,
		Name:        l.Name,
		Location:    l.Location,
		Price:       l.Price,
		Description: l.Description,
		CreatedAt:   l.CreatedAt,
		Rooms:       rooms,
	}
}

func toPageResponse(p domain.Page[domain.Listing]) pageResponse {
	items := make([]listingResponse, 0, len(p.Items))
	for _, l := range p.Items {
		items = append(items, toListingResponse(l))
	}
	return pageResponse{
		Items:      items,
		Page:       p.Page,
		TotalPages: p.TotalPages,
		TotalItems: p.TotalItems,
		PageSize:   p.PageSize,
	}
}

func toBrowseViewResponse(v browse.View) browseViewResponse {
	return browseViewResponse{
		SessionID: v.SessionID,
		State:     string(v.State),
		Criteria: criteriaResponse{
			Location: v.Criteria.LocationQuery,
			MaxPrice: v.Criteria.MaxPrice,
		},
		Page:  toPageResponse(v.Page),
		Error: v.Error,
	}
}
