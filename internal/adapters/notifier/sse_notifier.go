package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/port"
)

const (
	clientBuffer   = 16
	eventBuffer    = 100
	pendingTTL     = 5 * time.Minute
	sweepInterval  = time.Minute
	errorEventName = "error"
)

type notification struct {
	ctx       context.Context
	sessionID string
	message   string
}

type pendingMessage struct {
	data []byte
	at   time.Time
}

// SSENotifier реализует NotificationSinkPort: уведомления об ошибках уходят в SSE-потоки сессии просмотра.
// Если подписчиков у сессии ещё нет, последнее уведомление ждёт первого подключения (не дольше pendingTTL).
type SSENotifier struct {
	// clients: ключ - id сессии просмотра, значение - каналы открытых вкладок
	clients map[string][]chan []byte
	pending map[string]pendingMessage
	mu      sync.Mutex

	eventChan chan notification
	stop      chan struct{}
	stopOnce  sync.Once
	now       func() time.Time

	logger port.LoggerPort
}

// NewSSENotifier создает нотификатор и запускает диспетчер
func NewSSENotifier(baseLogger port.LoggerPort) *SSENotifier {
	n := &SSENotifier{
		clients:   make(map[string][]chan []byte),
		pending:   make(map[string]pendingMessage),
		eventChan: make(chan notification, eventBuffer),
		stop:      make(chan struct{}),
		now:       time.Now,
		logger:    baseLogger.WithFields(port.Fields{"component": "SSENotifier"}),
	}
	go n.dispatcher()
	return n
}

// NotifyError ставит уведомление в очередь и никогда не блокирует вызывающего
func (n *SSENotifier) NotifyError(ctx context.Context, sessionID, message string) {
	select {
	case n.eventChan <- notification{ctx: ctx, sessionID: sessionID, message: message}:
	default:
		n.logger.Warn("Notification queue is full, notification dropped", port.Fields{"session_id": sessionID})
	}
}

func (n *SSENotifier) dispatcher() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-n.stop:
			return
		case ev := <-n.eventChan:
			n.deliver(ev)
		case <-ticker.C:
			n.sweepPending()
		}
	}
}

func (n *SSENotifier) deliver(ev notification) {
	eventLogger := contextkeys.LoggerFromContext(ev.ctx).WithFields(port.Fields{
		"component":  "SSENotifier.dispatcher",
		"session_id": ev.sessionID,
	})

	payload, err := json.Marshal(map[string]string{"message": ev.message})
	if err != nil {
		eventLogger.Error("Failed to marshal notification", err, nil)
		return
	}
	data := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", errorEventName, payload))

	n.mu.Lock()
	defer n.mu.Unlock()

	channels, found := n.clients[ev.sessionID]
	if !found {
		n.pending[ev.sessionID] = pendingMessage{data: data, at: n.now()}
		eventLogger.Debug("No subscribers yet, notification kept until first connection", nil)
		return
	}
	for _, ch := range channels {
		select {
		case ch <- data:
		default:
			eventLogger.Warn("Client channel is full, skipping", nil)
		}
	}
}

func (n *SSENotifier) sweepPending() {
	n.mu.Lock()
	defer n.mu.Unlock()

	cutoff := n.now().Add(-pendingTTL)
	for id, p := range n.pending {
		if p.at.Before(cutoff) {
			delete(n.pending, id)
		}
	}
}

// AddClient регистрирует SSE-соединение сессии и отдаёт ему отложенное уведомление, если оно есть
func (n *SSENotifier) AddClient(sessionID string) <-chan []byte {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan []byte, clientBuffer)
	n.clients[sessionID] = append(n.clients[sessionID], ch)

	if p, ok := n.pending[sessionID]; ok {
		ch <- p.data
		delete(n.pending, sessionID)
	}

	n.logger.Info("Client connected", port.Fields{
		"session_id":  sessionID,
		"connections": len(n.clients[sessionID]),
	})
	return ch
}

// RemoveClient удаляет соединение при отключении клиента
func (n *SSENotifier) RemoveClient(sessionID string, ch <-chan []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()

	channels, found := n.clients[sessionID]
	if !found {
		return
	}
	remaining := make([]chan []byte, 0, len(channels))
	for _, c := range channels {
		if c != ch {
			remaining = append(remaining, c)
		}
	}
	if len(remaining) == 0 {
		delete(n.clients, sessionID)
	} else {
		n.clients[sessionID] = remaining
	}
	n.logger.Debug("Client disconnected", port.Fields{"session_id": sessionID, "remaining": len(remaining)})
}

// Close останавливает диспетчер
func (n *SSENotifier) Close() {
	n.stopOnce.Do(func() { close(n.stop) })
}
