package browse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher отдаёт заранее заданный результат, опционально дожидаясь release
type fakeFetcher struct {
	mu       sync.Mutex
	calls    int
	listings []domain.Listing
	err      error
	release  chan struct{}
}

func (f *fakeFetcher) FetchAllListings(ctx context.Context) ([]domain.Listing, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.release != nil {
		<-f.release
	}
	return f.listings, f.err
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingSink struct {
	mu       sync.Mutex
	messages []string
}

func (s *recordingSink) NotifyError(ctx context.Context, sessionID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, sessionID+": "+message)
}

func (s *recordingSink) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

var _ port.NotificationSinkPort = (*recordingSink)(nil)

func makeListings(n int) []domain.Listing {
	out := make([]domain.Listing, n)
	for i := range out {
		out[i] = domain.Listing{
			ID:       fmt.Sprintf("L%02d", i),
			Location: []string{"Berlin", "Munich", "berlin suburb"}[i%3],
			Price:    float64(500 + 100*i),
		}
	}
	return out
}

func waitLoaded(t *testing.T, s *Store) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not finish in time")
	}
}

func TestStore_LoadsOnceAndShowsFirstPage(t *testing.T) {
	fetcher := &fakeFetcher{listings: makeListings(12)}
	store := NewStore("s1", 5, fetcher, &recordingSink{})

	view, err := store.View()
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, view.State)
	assert.Empty(t, view.Page.Items)

	assert.True(t, store.Start(context.Background()))
	assert.False(t, store.Start(context.Background()))
	waitLoaded(t, store)

	view, err = store.View()
	require.NoError(t, err)
	assert.Equal(t, StateLoaded, view.State)
	assert.Equal(t, 1, view.Page.Page)
	assert.Equal(t, 3, view.Page.TotalPages)
	assert.Len(t, view.Page.Items, 5)
	assert.Equal(t, 1, fetcher.Calls())
}

func TestStore_FetchErrorNotifiesOnceAndStaysEmpty(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	sink := &recordingSink{}
	store := NewStore("s1", 5, fetcher, sink)

	store.Start(context.Background())
	waitLoaded(t, store)

	assert.Equal(t, StateEmpty, store.State())
	assert.Equal(t, []string{"s1: " + FetchFailedMessage}, sink.Messages())

	view, err := store.View()
	require.NoError(t, err)
	assert.Equal(t, FetchFailedMessage, view.Error)

	_, err = store.ChangeCriteria(domain.Criteria{LocationQuery: "berlin"})
	assert.ErrorIs(t, err, domain.ErrSessionNotLoaded)
	_, err = store.RequestPage(2)
	assert.ErrorIs(t, err, domain.ErrSessionNotLoaded)

	// повторной загрузки нет
	assert.False(t, store.Start(context.Background()))
	assert.Equal(t, 1, fetcher.Calls())
	assert.Len(t, sink.Messages(), 1)
}

func TestStore_ResultAfterCloseIsDiscarded(t *testing.T) {
	for _, fetchErr := range []error{nil, errors.New("timeout")} {
		fetcher := &fakeFetcher{listings: makeListings(3), err: fetchErr, release: make(chan struct{})}
		sink := &recordingSink{}
		store := NewStore("s1", 5, fetcher, sink)

		store.Start(context.Background())
		store.Close()
		close(fetcher.release)
		waitLoaded(t, store)

		assert.Equal(t, StateEmpty, store.State())
		assert.Empty(t, sink.Messages())
		_, err := store.View()
		assert.ErrorIs(t, err, domain.ErrSessionClosed)
	}
}

func TestStore_StartAfterCloseDoesNothing(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := NewStore("s1", 5, fetcher, &recordingSink{})

	store.Close()

	assert.False(t, store.Start(context.Background()))
	assert.Equal(t, 0, fetcher.Calls())
}

func TestStore_CriteriaChangeResetsPage(t *testing.T) {
	store := NewStore("s1", 5, &fakeFetcher{listings: makeListings(12)}, &recordingSink{})
	store.Start(context.Background())
	waitLoaded(t, store)

	view, err := store.RequestPage(3)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Page.Page)
	assert.Len(t, view.Page.Items, 2)

	view, err = store.ChangeCriteria(domain.Criteria{LocationQuery: "BERLIN"})
	require.NoError(t, err)
	assert.Equal(t, StateFiltered, view.State)
	assert.Equal(t, 1, view.Page.Page)
	// 8 из 12 содержат "berlin"
	assert.Equal(t, 8, view.Page.TotalItems)
	assert.Equal(t, 2, view.Page.TotalPages)
	for _, l := range view.Page.Items {
		assert.Contains(t, []string{"Berlin", "berlin suburb"}, l.Location)
	}

	view, err = store.RequestPage(2)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Page.Page)

	view, err = store.ChangeCriteria(domain.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, StateFiltered, view.State)
	assert.Equal(t, 1, view.Page.Page)
	assert.Equal(t, 12, view.Page.TotalItems)
}

func TestStore_RequestPageClamps(t *testing.T) {
	store := NewStore("s1", 5, &fakeFetcher{listings: makeListings(12)}, &recordingSink{})
	store.Start(context.Background())
	waitLoaded(t, store)

	view, err := store.RequestPage(99)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Page.Page)
	assert.Equal(t, []string{"L10", "L11"}, []string{view.Page.Items[0].ID, view.Page.Items[1].ID})

	view, err = store.RequestPage(-1)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Page.Page)
}

func TestStore_FilterToNothingKeepsSinglePage(t *testing.T) {
	store := NewStore("s1", 5, &fakeFetcher{listings: makeListings(4)}, &recordingSink{})
	store.Start(context.Background())
	waitLoaded(t, store)

	_, err := store.RequestPage(1)
	require.NoError(t, err)

	view, err := store.ChangeCriteria(domain.Criteria{LocationQuery: "Paris"})
	require.NoError(t, err)
	assert.Empty(t, view.Page.Items)
	assert.Equal(t, 1, view.Page.TotalPages)
	assert.Equal(t, 1, view.Page.Page)
}
