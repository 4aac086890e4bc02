package rest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"listing-service/internal/core/browse"
	"listing-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validToken = "good-token"

type testEnv struct {
	router   http.Handler
	find     *fakeFindListings
	signIn   *fakeSignIn
	signOut  *fakeSignOut
	create   *fakeCreateApartment
	addRoom  *fakeAddRoom
	browse   *fakeBrowse
	registry *fakeRegistry

	browseHandler *BrowseHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		find: &fakeFindListings{listings: []domain.Listing{
			{ID: "a", Location: "Berlin", Price: 800},
			{ID: "b", Location: "Munich", Price: 1200},
			{ID: "c", Location: "berlin suburb", Price: 500},
		}},
		signIn:   &fakeSignIn{session: &domain.AuthSession{AccessToken: "at", RefreshToken: "rt", ExpiresIn: 3600, User: domain.User{ID: "u1", Email: "owner@example.com"}}},
		signOut:  &fakeSignOut{},
		create:   &fakeCreateApartment{},
		addRoom:  &fakeAddRoom{},
		browse:   &fakeBrowse{view: browse.View{SessionID: "s1", State: browse.StateLoaded, Page: domain.Paginate([]domain.Listing{{ID: "a"}}, 5, 1)}},
		registry: newFakeRegistry(),
	}

	handlers := Handlers{
		Auth:      NewAuthHandler(&fakeSignUp{result: &domain.SignUpResult{User: domain.User{ID: "u2", Email: "new@example.com"}}}, env.signIn, env.signOut, fakeCurrentUser{}),
		Listings:  NewListingHandler(env.find, &fakeGetRoom{rooms: map[string]domain.Room{"r1": {ID: "r1", Name: "Bedroom"}}}),
		Apartment: NewApartmentHandler(env.create, fakeListApartments{}, env.addRoom, 1024),
		Browse:    NewBrowseHandler(env.browse, env.registry),
	}
	env.browseHandler = handlers.Browse
	verifier := &fakeVerifier{tokens: map[string]domain.User{validToken: {ID: "u1", Email: "owner@example.com"}}}

	env.router = NewRouter(
		ServerConfig{Port: "0", CORSAllowedOrigins: []string{"http://localhost:3000"}},
		handlers,
		NewAuthMiddleware(verifier),
		fakePinger{},
		nopLogger{},
	)
	return env
}

func (e *testEnv) do(method, target string, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestFindListings(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/listings?location=berlin&maxPrice=900&page=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page pageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.TotalItems)
	assert.Equal(t, "a", page.Items[0].ID)
	assert.Equal(t, "c", page.Items[1].ID)
	assert.Equal(t, "berlin", env.find.gotCriteria.LocationQuery)
	assert.Equal(t, 1, env.find.gotPage)
	assert.NotEmpty(t, rec.Header().Get(TraceIDHeader))
}

func TestFindListings_Errors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/listings?maxPrice=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec), "max price")

	rec = env.do(http.MethodGet, "/api/v1/listings?page=zero", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.find.gotPage)

	env.find.err = errors.Join(domain.ErrFetchListings, errors.New("connection refused"))
	rec = env.do(http.MethodGet, "/api/v1/listings", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, domain.ErrFetchListings.Error(), decodeError(t, rec))
}

func TestGetRoom(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/rooms/r1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var room map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &room))
	assert.Equal(t, "Bedroom", room["name"])
	assert.Nil(t, room["image_url"])

	rec = env.do(http.MethodGet, "/api/v1/rooms/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/auth/sign-in", `{"email":"owner@example.com","password":"secret1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var session sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, "at", session.AccessToken)
	assert.Equal(t, "u1", session.User.ID)

	rec = env.do(http.MethodPost, "/api/v1/auth/sign-in", `{"email":"owner@example.com"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.signIn.err = domain.ErrInvalidCredentials
	rec = env.do(http.MethodPost, "/api/v1/auth/sign-in", `{"email":"owner@example.com","password":"wrong12"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/auth/sign-up", `{"email":"new@example.com","password":"secret1"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var signUp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signUp))
	assert.Nil(t, signUp["session"])

	rec = env.do(http.MethodPost, "/api/v1/auth/sign-up", `{"email":"new@example.com","password":"123"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/auth/me", "", bearer(validToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "owner@example.com")

	rec = env.do(http.MethodPost, "/api/v1/auth/sign-out", "", bearer(validToken))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, env.signOut.got)
	assert.Equal(t, validToken, env.signOut.got.AccessToken)
}

func TestAuthMiddleware_RejectsRequests(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/apartments", `{"name":"Loft","location":"Berlin","price":800}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/apartments", `{"name":"Loft","location":"Berlin","price":800}`, map[string]string{"Authorization": "Basic abc"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/auth/me", "", bearer("expired"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", decodeError(t, rec))
}

func TestCreateApartment(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/apartments",
		`{"name":"Loft","location":"Berlin","price":800,"description":"Bright"}`, bearer(validToken))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u1", env.create.got.OwnerID)

	var listing listingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Equal(t, "a1", listing.ID)
	assert.NotNil(t, listing.Rooms)

	rec = env.do(http.MethodPost, "/api/v1/apartments", `{"name":"Loft","location":"Berlin","price":"cheap"}`, bearer(validToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/apartments", `{"name":"Loft","location":"Berlin","price":800}`, bearer(validToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec), "description")
}

func TestListApartments(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/apartments", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":"a1","name":"Loft"}]`, rec.Body.String())
}

func multipartRoom(t *testing.T, fields map[string]string, fileName string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("image", fileName)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestAddRoom(t *testing.T) {
	env := newTestEnv(t)
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

	body, contentType := multipartRoom(t, map[string]string{"name": "Bedroom", "size": "14.5", "equipment": "Bed"}, "bed.png", png)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/apartments/a1/rooms", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+validToken)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "a1", env.addRoom.got.ApartmentID)
	assert.Equal(t, 14.5, env.addRoom.got.Size)
	require.NotNil(t, env.addRoom.got.Image)
	assert.Equal(t, "image/png", env.addRoom.got.Image.ContentType)
	assert.Equal(t, "bed.png", env.addRoom.got.Image.FileName)
	assert.Equal(t, validToken, env.addRoom.gotSession.AccessToken)

	var room map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &room))
	assert.Equal(t, "https://cdn.example.com/bed.png", room["image_url"])
}

func TestAddRoom_WithoutImageAndInvalidSize(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartRoom(t, map[string]string{"name": "Kitchen", "size": "9", "equipment": "Stove"}, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/apartments/a1/rooms", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+validToken)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, env.addRoom.got.Image)

	body, contentType = multipartRoom(t, map[string]string{"name": "Kitchen", "size": "big", "equipment": "Stove"}, "", nil)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/apartments/a1/rooms", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+validToken)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec), "size")
}

func TestBrowseSessionRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/browse-sessions", "", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "/api/v1/browse-sessions/s1", rec.Header().Get("Location"))
	var view browseViewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "empty", view.State)
	assert.Equal(t, 1, view.Page.TotalPages)
	assert.NotNil(t, view.Page.Items)

	rec = env.do(http.MethodGet, "/api/v1/browse-sessions/s1", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPut, "/api/v1/browse-sessions/s1/criteria", `{"location":"berlin","max_price":"900"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "filtered", view.State)
	require.NotNil(t, view.Criteria.MaxPrice)
	assert.Equal(t, 900.0, *view.Criteria.MaxPrice)

	rec = env.do(http.MethodPut, "/api/v1/browse-sessions/s1/criteria", `{"max_price":"abc"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPut, "/api/v1/browse-sessions/s1/page", `{"page":3}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, env.browse.page)

	rec = env.do(http.MethodPut, "/api/v1/browse-sessions/s1/page", `{"page":"next"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/browse-sessions/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodDelete, "/api/v1/browse-sessions/s1", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(http.MethodDelete, "/api/v1/browse-sessions/s1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBrowseSession_CriteriaBeforeLoad(t *testing.T) {
	env := newTestEnv(t)
	env.browse.view.State = browse.StateEmpty

	rec := env.do(http.MethodPut, "/api/v1/browse-sessions/s1/criteria", `{"location":"berlin"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubscribeToEvents(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/browse-sessions/s1/events", nil)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)
	_, _ = reader.ReadString('\n') // data: {}
	_, _ = reader.ReadString('\n') // пустая строка

	<-env.registry.added
	env.registry.ch <- []byte("event: error\ndata: {\"message\":\"Failed to fetch listings\"}\n\n")

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: error\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "data: {\"message\":\"Failed to fetch listings\"}\n", line)

	cancel()
	assert.Eventually(t, env.registry.Removed, 2*time.Second, 10*time.Millisecond)
}

func TestSubscribeToEvents_KeepAliveTouchesAndEndsWithSession(t *testing.T) {
	env := newTestEnv(t)
	env.browseHandler.keepAlive = 20 * time.Millisecond
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/api/v1/browse-sessions/s1/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	// первый View - проверка сессии при подписке, дальше по одному на keep-alive
	assert.Eventually(t, func() bool { return env.browse.viewCount() >= 3 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, env.browse.Close(context.Background(), "s1"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), ": keep-alive\n\n")
	assert.True(t, strings.HasSuffix(string(body), "event: closed\ndata: {}\n\n"))
	assert.Eventually(t, env.registry.Removed, 2*time.Second, 10*time.Millisecond)
}

func TestSubscribeToEvents_UnknownSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/browse-sessions/unknown/events", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = env.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "listing_http_requests_total")
}

func TestHealth_DatabaseDown(t *testing.T) {
	handler := healthHandler(fakePinger{err: errors.New("dial tcp: refused")})
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrValidation, http.StatusBadRequest},
		{domain.ErrInvalidImage, http.StatusBadRequest},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrApartmentNotFound, http.StatusNotFound},
		{domain.ErrSessionClosed, http.StatusNotFound},
		{domain.ErrEmailInUse, http.StatusConflict},
		{domain.ErrUpstream, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got, _ := statusForError(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}
