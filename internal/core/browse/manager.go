package browse

import (
	"context"
	"sync"
	"time"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/metrics"

	"github.com/google/uuid"
)

// ManagerConfig - настройки реестра сессий
type ManagerConfig struct {
	PageSize        int
	IdleTTL         time.Duration // 0 - сессии не вытесняются
	JanitorInterval time.Duration
}

// Manager - реестр сессий просмотра
type Manager struct {
	cfg     ManagerConfig
	fetcher port.ListingFetcherPort
	sink    port.NotificationSinkPort
	logger  port.LoggerPort
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Store
}

func NewManager(cfg ManagerConfig, fetcher port.ListingFetcherPort, sink port.NotificationSinkPort, baseLogger port.LoggerPort) *Manager {
	if cfg.JanitorInterval <= 0 {
		cfg.JanitorInterval = time.Minute
	}
	return &Manager{
		cfg:      cfg,
		fetcher:  fetcher,
		sink:     sink,
		logger:   baseLogger.WithFields(port.Fields{"component": "browse.Manager"}),
		now:      time.Now,
		sessions: make(map[string]*Store),
	}
}

// Open создает новую сессию и сразу запускает её единственную загрузку
func (m *Manager) Open(ctx context.Context) *Store {
	store := NewStore(uuid.New().String(), m.cfg.PageSize, m.fetcher, m.sink)
	store.now = m.now
	store.lastAccess = m.now()

	m.mu.Lock()
	m.sessions[store.ID()] = store
	metrics.BrowseSessionsOpen.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	contextkeys.LoggerFromContext(ctx).Info("Browse session opened", port.Fields{"session_id": store.ID()})
	store.Start(ctx)
	return store
}

// Get возвращает сессию по id
func (m *Manager) Get(id string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	store, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return store, nil
}

// Close завершает сессию и удаляет её из реестра
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	store, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		metrics.BrowseSessionsOpen.Set(float64(len(m.sessions)))
	}
	m.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}
	store.Close()
	return nil
}

// Len - количество открытых сессий
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// EvictIdle закрывает сессии, к которым не обращались дольше IdleTTL. Возвращает число закрытых.
func (m *Manager) EvictIdle() int {
	if m.cfg.IdleTTL <= 0 {
		return 0
	}
	now := m.now()

	var expired []*Store
	m.mu.Lock()
	for id, store := range m.sessions {
		if store.idleFor(now) > m.cfg.IdleTTL {
			expired = append(expired, store)
			delete(m.sessions, id)
		}
	}
	metrics.BrowseSessionsOpen.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	for _, store := range expired {
		store.Close()
	}
	if len(expired) > 0 {
		m.logger.Info("Idle browse sessions evicted", port.Fields{"evicted": len(expired)})
	}
	return len(expired)
}

// Start крутит вытеснение простаивающих сессий до отмены ctx
func (m *Manager) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.EvictIdle()
		}
	}
}

// Shutdown закрывает все сессии
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Store)
	metrics.BrowseSessionsOpen.Set(0)
	m.mu.Unlock()

	for _, store := range sessions {
		store.Close()
	}
	m.logger.Info("All browse sessions closed", port.Fields{"closed": len(sessions)})
}
