package browse

import (
	"context"
	"sync"
	"time"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/metrics"
)

// State - состояние сессии просмотра
type State string

const (
	StateEmpty    State = "empty"
	StateLoaded   State = "loaded"
	StateFiltered State = "filtered"
)

// FetchFailedMessage - текст уведомления для пользователя при ошибке загрузки
const FetchFailedMessage = "Failed to fetch listings"

// View - снимок состояния для отрисовки. Страница пересчитывается при каждом чтении.
type View struct {
	SessionID string
	State     State
	Criteria  domain.Criteria
	Page      domain.Page[domain.Listing]
	Error     string
}

// Store - состояние одной сессии просмотра объявлений.
// Empty -> Loaded после единственной загрузки, Loaded/Filtered -> Filtered при смене критериев.
type Store struct {
	id       string
	pageSize int
	fetcher  port.ListingFetcherPort
	sink     port.NotificationSinkPort
	now      func() time.Time

	mu         sync.Mutex
	state      State
	all        []domain.Listing
	filtered   []domain.Listing
	criteria   domain.Criteria
	page       int
	lastErr    string
	started    bool
	closed     bool
	lastAccess time.Time
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewStore создает сессию в состоянии Empty. Размер страницы фиксируется на всё время жизни сессии.
func NewStore(id string, pageSize int, fetcher port.ListingFetcherPort, sink port.NotificationSinkPort) *Store {
	return &Store{
		id:         id,
		pageSize:   pageSize,
		fetcher:    fetcher,
		sink:       sink,
		now:        time.Now,
		state:      StateEmpty,
		page:       1,
		lastAccess: time.Now(),
		done:       make(chan struct{}),
	}
}

func (s *Store) ID() string { return s.id }

// Start запускает загрузку. Загрузка выполняется ровно один раз,
// повторные вызовы (и вызов после Close) возвращают false.
// Загрузка не привязана к отмене ctx: её отменяет только Close.
func (s *Store) Start(ctx context.Context) bool {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return false
	}
	s.started = true
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.mu.Unlock()

	go s.load(fetchCtx)
	return true
}

func (s *Store) load(ctx context.Context) {
	defer close(s.done)

	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":  "browse.Store",
		"session_id": s.id,
	})
	logger.Info("Fetching listings for session", nil)

	listings, err := s.fetcher.FetchAllListings(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		metrics.ListingFetches.WithLabelValues("discarded").Inc()
		logger.Info("Session closed before fetch finished, result discarded", nil)
		return
	}

	if err != nil {
		metrics.ListingFetches.WithLabelValues("error").Inc()
		logger.Error("Failed to fetch listings, session stays empty", err, nil)
		s.lastErr = FetchFailedMessage
		// под мьютексом: закрытая сессия уведомлений не получает
		s.sink.NotifyError(ctx, s.id, FetchFailedMessage)
		return
	}

	metrics.ListingFetches.WithLabelValues("success").Inc()
	s.all = listings
	s.filtered = listings
	s.page = 1
	s.state = StateLoaded
	logger.Info("Listings loaded", port.Fields{"total": len(listings)})
}

// Done закрывается, когда загрузка завершилась (успешно, с ошибкой или была отброшена)
func (s *Store) Done() <-chan struct{} {
	return s.done
}

// ChangeCriteria пересчитывает отфильтрованный набор и сбрасывает страницу на первую
func (s *Store) ChangeCriteria(criteria domain.Criteria) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkReadyLocked(); err != nil {
		return View{}, err
	}

	s.criteria = criteria
	s.filtered = domain.FilterListings(s.all, criteria)
	s.page = 1
	s.state = StateFiltered
	return s.viewLocked(), nil
}

// RequestPage переключает страницу. Номер за пределами диапазона ограничивается, а не считается ошибкой.
func (s *Store) RequestPage(page int) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkReadyLocked(); err != nil {
		return View{}, err
	}

	s.page = domain.ClampPage(page, domain.TotalPages(len(s.filtered), s.pageSize))
	return s.viewLocked(), nil
}

// View возвращает актуальный снимок состояния
func (s *Store) View() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return View{}, domain.ErrSessionClosed
	}
	s.lastAccess = s.now()
	return s.viewLocked(), nil
}

// State возвращает текущее состояние
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close завершает сессию. Результат незавершённой загрузки будет отброшен.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	s.all = nil
	s.filtered = nil
}

func (s *Store) idleFor(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastAccess)
}

func (s *Store) checkReadyLocked() error {
	if s.closed {
		return domain.ErrSessionClosed
	}
	s.lastAccess = s.now()
	if s.state == StateEmpty {
		return domain.ErrSessionNotLoaded
	}
	return nil
}

func (s *Store) viewLocked() View {
	return View{
		SessionID: s.id,
		State:     s.state,
		Criteria:  s.criteria,
		Page:      domain.Paginate(s.filtered, s.pageSize, s.page),
		Error:     s.lastErr,
	}
}
