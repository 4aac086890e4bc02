package rest

import (
	"context"
	"sync"

	"listing-service/internal/core/browse"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

type nopLogger struct{}

func (nopLogger) Info(string, port.Fields)                 {}
func (nopLogger) Warn(string, port.Fields)                 {}
func (nopLogger) Debug(string, port.Fields)                {}
func (nopLogger) Error(string, error, port.Fields)         {}
func (l nopLogger) WithFields(port.Fields) port.LoggerPort { return l }

type fakeVerifier struct {
	tokens map[string]domain.User
	err    error
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.tokens[token]
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	return &user, nil
}

type fakeSignUp struct{ result *domain.SignUpResult }

func (f *fakeSignUp) Execute(ctx context.Context, creds domain.Credentials) (*domain.SignUpResult, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return f.result, nil
}

type fakeSignIn struct {
	session *domain.AuthSession
	err     error
}

func (f *fakeSignIn) Execute(ctx context.Context, creds domain.Credentials) (*domain.AuthSession, error) {
	return f.session, f.err
}

type fakeSignOut struct{ got *domain.AuthSession }

func (f *fakeSignOut) Execute(ctx context.Context, session *domain.AuthSession) error {
	f.got = session
	return nil
}

type fakeCurrentUser struct{}

func (fakeCurrentUser) Execute(ctx context.Context, token string) (*domain.User, error) {
	return &domain.User{ID: "u1", Email: "owner@example.com"}, nil
}

type fakeFindListings struct {
	gotCriteria domain.Criteria
	gotPage     int
	listings    []domain.Listing
	err         error
}

func (f *fakeFindListings) Execute(ctx context.Context, criteria domain.Criteria, page int) (*domain.Page[domain.Listing], error) {
	f.gotCriteria = criteria
	f.gotPage = page
	if f.err != nil {
		return nil, f.err
	}
	result := domain.Paginate(domain.FilterListings(f.listings, criteria), 5, page)
	return &result, nil
}

type fakeGetRoom struct{ rooms map[string]domain.Room }

func (f *fakeGetRoom) Execute(ctx context.Context, roomID string) (*domain.Room, error) {
	room, ok := f.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return &room, nil
}

type fakeCreateApartment struct{ got domain.ApartmentDraft }

func (f *fakeCreateApartment) Execute(ctx context.Context, draft domain.ApartmentDraft) (*domain.Listing, error) {
	f.got = draft
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	return &domain.Listing{ID: "a1", Name: draft.Name, Location: draft.Location, Price: draft.Price, Description: draft.Description}, nil
}

type fakeListApartments struct{}

func (fakeListApartments) Execute(ctx context.Context) ([]domain.ApartmentRef, error) {
	return []domain.ApartmentRef{{ID: "a1", Name: "Loft"}}, nil
}

type fakeAddRoom struct {
	gotSession *domain.AuthSession
	got        domain.RoomDraft
}

func (f *fakeAddRoom) Execute(ctx context.Context, session *domain.AuthSession, draft domain.RoomDraft) (*domain.Room, error) {
	f.gotSession = session
	f.got = draft
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	room := &domain.Room{ID: "r1", ApartmentID: draft.ApartmentID, Name: draft.Name, Size: draft.Size, Equipment: draft.Equipment}
	if draft.Image != nil {
		room.ImageURL = "https://cdn.example.com/" + draft.Image.FileName
	}
	return room, nil
}

// fakeBrowse хранит одну сессию "s1"
type fakeBrowse struct {
	mu       sync.Mutex
	view     browse.View
	criteria domain.Criteria
	page     int
	closed   bool
	viewErr  error
	views    int
}

func (f *fakeBrowse) Open(ctx context.Context) (browse.View, error) {
	return browse.View{SessionID: "s1", State: browse.StateEmpty, Page: domain.Paginate([]domain.Listing{}, 5, 1)}, nil
}

func (f *fakeBrowse) View(ctx context.Context, id string) (browse.View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views++
	if id != "s1" || f.closed {
		return browse.View{}, domain.ErrSessionNotFound
	}
	return f.view, f.viewErr
}

func (f *fakeBrowse) viewCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.views
}

func (f *fakeBrowse) ChangeCriteria(ctx context.Context, id string, criteria domain.Criteria) (browse.View, error) {
	if _, err := f.View(ctx, id); err != nil {
		return browse.View{}, err
	}
	if f.view.State == browse.StateEmpty {
		return browse.View{}, domain.ErrSessionNotLoaded
	}
	f.criteria = criteria
	v := f.view
	v.State = browse.StateFiltered
	v.Criteria = criteria
	return v, nil
}

func (f *fakeBrowse) RequestPage(ctx context.Context, id string, page int) (browse.View, error) {
	if _, err := f.View(ctx, id); err != nil {
		return browse.View{}, err
	}
	f.page = page
	return f.view, nil
}

func (f *fakeBrowse) Close(ctx context.Context, id string) error {
	if _, err := f.View(ctx, id); err != nil {
		return err
	}
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// fakeRegistry отдаёт один канал и запоминает отписку
type fakeRegistry struct {
	mu      sync.Mutex
	ch      chan []byte
	added   chan struct{}
	removed bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{ch: make(chan []byte, 1), added: make(chan struct{})}
}

func (f *fakeRegistry) AddClient(sessionID string) <-chan []byte {
	close(f.added)
	return f.ch
}

func (f *fakeRegistry) RemoveClient(sessionID string, ch <-chan []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = true
}

func (f *fakeRegistry) Removed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removed
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }
