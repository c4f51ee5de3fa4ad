package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ringside/internal/domain"
)

const (
	feedWriteWait = 5 * time.Second
	// feedBuffer is how many pushes a client may fall behind before it is
	// dropped.
	feedBuffer = 16
)

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// OrderFeed pushes placed orders to connected admin websockets. Each client
// has its own queue and writer goroutine, so a stalled socket never holds up
// OrderPlaced.
type OrderFeed struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	wg       sync.WaitGroup

	mu      sync.Mutex
	clients map[*feedClient]struct{}
}

func NewOrderFeed(origins []string, log *zap.Logger) *OrderFeed {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	_, wildcard := allowed["*"]
	return &OrderFeed{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || wildcard {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		log:     log,
		clients: make(map[*feedClient]struct{}),
	}
}

// Serve upgrades the request and keeps the connection registered until the
// peer goes away.
func (f *OrderFeed) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.Warn("order feed upgrade", zap.Error(err))
		return
	}
	fc := &feedClient{conn: conn, send: make(chan []byte, feedBuffer)}
	f.mu.Lock()
	f.clients[fc] = struct{}{}
	f.wg.Add(1)
	f.mu.Unlock()
	go f.writePump(fc)
	f.log.Info("order feed client connected", zap.String("remote", r.RemoteAddr))

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	f.drop(fc)
}

func (f *OrderFeed) writePump(fc *feedClient) {
	defer f.wg.Done()
	for data := range fc.send {
		_ = fc.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
		if err := fc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			f.log.Warn("order feed write", zap.Error(err))
			f.drop(fc)
			return
		}
	}
}

// removeLocked unregisters fc and stops its writer. f.mu must be held.
func (f *OrderFeed) removeLocked(fc *feedClient) bool {
	if _, ok := f.clients[fc]; !ok {
		return false
	}
	delete(f.clients, fc)
	close(fc.send)
	return true
}

func (f *OrderFeed) drop(fc *feedClient) {
	f.mu.Lock()
	ok := f.removeLocked(fc)
	f.mu.Unlock()
	if ok {
		_ = fc.conn.Close()
	}
}

// Clients returns the number of connected sockets.
func (f *OrderFeed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// OrderPlaced queues o for every client and returns without waiting on the
// network. Clients whose queue is full are dropped.
func (f *OrderFeed) OrderPlaced(_ context.Context, o domain.Order) {
	data, err := json.Marshal(o)
	if err != nil {
		f.log.Error("encode order for feed", zap.String("order", o.ID), zap.Error(err))
		return
	}
	var slow []*feedClient
	f.mu.Lock()
	for fc := range f.clients {
		select {
		case fc.send <- data:
		default:
			f.removeLocked(fc)
			slow = append(slow, fc)
		}
	}
	f.mu.Unlock()

	for _, fc := range slow {
		f.log.Warn("order feed client too slow, dropping", zap.String("remote", fc.conn.RemoteAddr().String()))
		_ = fc.conn.Close()
	}
}

// Close disconnects every client and waits for their writers to stop.
func (f *OrderFeed) Close() {
	f.mu.Lock()
	clients := make([]*feedClient, 0, len(f.clients))
	for fc := range f.clients {
		f.removeLocked(fc)
		clients = append(clients, fc)
	}
	f.mu.Unlock()
	for _, fc := range clients {
		_ = fc.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		_ = fc.conn.Close()
	}
	f.wg.Wait()
}
