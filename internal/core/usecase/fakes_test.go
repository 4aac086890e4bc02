package usecase

import (
	"context"
	"fmt"
	"sync"

	"listing-service/internal/core/domain"
)

type fakeFetcher struct {
	listings []domain.Listing
	err      error
}

func (f *fakeFetcher) FetchAllListings(ctx context.Context) ([]domain.Listing, error) {
	return f.listings, f.err
}

type fakeRepo struct {
	mu         sync.Mutex
	apartments []domain.Listing
	rooms      map[string]domain.Room
	createErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rooms: make(map[string]domain.Room)}
}

func (r *fakeRepo) CreateApartment(ctx context.Context, draft domain.ApartmentDraft) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	apt := domain.Listing{
		ID:          fmt.Sprintf("apt-%d", len(r.apartments)+1),
		Name:        draft.Name,
		Location:    draft.Location,
		Price:       draft.Price,
		Description: draft.Description,
	}
	r.apartments = append(r.apartments, apt)
	return &apt, nil
}

func (r *fakeRepo) ListApartmentRefs(ctx context.Context) ([]domain.ApartmentRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	refs := make([]domain.ApartmentRef, 0, len(r.apartments))
	for _, a := range r.apartments {
		refs = append(refs, domain.ApartmentRef{ID: a.ID, Name: a.Name})
	}
	return refs, nil
}

func (r *fakeRepo) CreateRoom(ctx context.Context, room domain.NewRoom) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := false
	for _, a := range r.apartments {
		if a.ID == room.ApartmentID {
			found = true
		}
	}
	if !found {
		return nil, domain.ErrApartmentNotFound
	}
	created := domain.Room{
		ID:          fmt.Sprintf("room-%d", len(r.rooms)+1),
		ApartmentID: room.ApartmentID,
		Name:        room.Name,
		Size:        room.Size,
		Equipment:   room.Equipment,
		ImageURL:    room.ImageURL,
	}
	r.rooms[created.ID] = created
	return &created, nil
}

func (r *fakeRepo) GetRoomByID(ctx context.Context, roomID string) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return &room, nil
}

type uploadCall struct {
	token      string
	objectName string
	object     domain.UploadObject
}

type fakeStorage struct {
	uploads []uploadCall
	err     error
}

func (s *fakeStorage) Upload(ctx context.Context, accessToken, objectName string, object domain.UploadObject) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.uploads = append(s.uploads, uploadCall{token: accessToken, objectName: objectName, object: object})
	return "room-images/" + objectName, nil
}

func (s *fakeStorage) PublicURL(path string) string {
	return "https://project.example/storage/v1/object/public/" + path
}

type fakeEvents struct {
	events []domain.ListingChangedEvent
	err    error
}

func (e *fakeEvents) PublishListingChanged(ctx context.Context, event domain.ListingChangedEvent) error {
	e.events = append(e.events, event)
	return e.err
}

type fakeCache struct {
	invalidations int
	err           error
}

func (c *fakeCache) Invalidate(ctx context.Context) error {
	c.invalidations++
	return c.err
}

type fakeAuth struct {
	users    map[string]string // email -> password
	signedIn []string
	revoked  []string
	err      error
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{users: map[string]string{}}
}

func (a *fakeAuth) SignUp(ctx context.Context, creds domain.Credentials) (*domain.SignUpResult, error) {
	if a.err != nil {
		return nil, a.err
	}
	if _, ok := a.users[creds.Email]; ok {
		return nil, domain.ErrEmailInUse
	}
	a.users[creds.Email] = creds.Password
	return &domain.SignUpResult{User: domain.User{ID: "user-" + creds.Email, Email: creds.Email}}, nil
}

func (a *fakeAuth) SignIn(ctx context.Context, creds domain.Credentials) (*domain.AuthSession, error) {
	if a.err != nil {
		return nil, a.err
	}
	if pwd, ok := a.users[creds.Email]; !ok || pwd != creds.Password {
		return nil, domain.ErrInvalidCredentials
	}
	a.signedIn = append(a.signedIn, creds.Email)
	return &domain.AuthSession{
		AccessToken: "token-" + creds.Email,
		User:        domain.User{ID: "user-" + creds.Email, Email: creds.Email},
	}, nil
}

func (a *fakeAuth) SignOut(ctx context.Context, accessToken string) error {
	if a.err != nil {
		return a.err
	}
	a.revoked = append(a.revoked, accessToken)
	return nil
}

func (a *fakeAuth) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	if accessToken == "" {
		return nil, domain.ErrUnauthorized
	}
	return &domain.User{ID: "user-x", Email: "x@example.com"}, nil
}
