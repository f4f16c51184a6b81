package websocket

import (
	"bufio"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/caro-backend/internal/usecase"
)

// Hub tracks live connections and per-room subscriber sets and fans events
// out to them. It is the pub/sub channel the dispatcher publishes through.
//
// Writes share one mutex with the registry, so a frame is never interleaved
// with another writer on the same connection.
type Hub struct {
	logger *slog.Logger

	mu          sync.Mutex
	connections map[string]*bufio.ReadWriter
	rooms       map[string]map[string]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:      logger,
		connections: make(map[string]*bufio.ReadWriter),
		rooms:       make(map[string]map[string]struct{}),
	}
}

// Register - adds a freshly upgraded connection to the hub.
func (that *Hub) Register(connID string, bufrw *bufio.ReadWriter) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.connections[connID] = bufrw
}

// Remove - forgets a connection and every room subscription it held.
func (that *Hub) Remove(connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.connections, connID)

	for roomID, subscribers := range that.rooms {
		delete(subscribers, connID)

		if len(subscribers) == 0 {
			delete(that.rooms, roomID)
		}
	}
}

// Subscribe - adds the connection to the room's broadcast set.
func (that *Hub) Subscribe(roomID, connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	subscribers, ok := that.rooms[roomID]
	if !ok {
		subscribers = make(map[string]struct{})
		that.rooms[roomID] = subscribers
	}

	subscribers[connID] = struct{}{}
}

// Publish - delivers the event to every subscriber of the room.
func (that *Hub) Publish(roomID string, event usecase.Event) {
	that.publish(roomID, "", event)
}

// PublishExcept - delivers the event to every subscriber but one.
func (that *Hub) PublishExcept(roomID, exceptConnID string, event usecase.Event) {
	that.publish(roomID, exceptConnID, event)
}

// SendTo - delivers a direct notice to a single connection.
func (that *Hub) SendTo(connID, action string, payload any) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.send(connID, action, payload)
}

func (that *Hub) publish(roomID, exceptConnID string, event usecase.Event) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for connID := range that.rooms[roomID] {
		if connID == exceptConnID {
			continue
		}

		that.send(connID, event.Action, event.Payload)
	}
}

// send - writes one message; callers hold the mutex.
func (that *Hub) send(connID, action string, payload any) {
	bufrw, ok := that.connections[connID]
	if !ok {
		that.logger.Warn("connection not found", "connID", connID)
		return
	}

	if err := writeMessage(bufrw, action, payload); err != nil {
		that.logger.Error("failed to send message", "connID", connID, "action", action, "error", err)
	}
}
