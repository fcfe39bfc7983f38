// Package caption streams live chunk transcriptions to websocket
// subscribers. The Hub keeps a backlog ring so a browser that
// connects mid-session sees the recent lines, then live events.
package caption

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sabaimran/vox-locus/pkg/jsontime"
	"github.com/sabaimran/vox-locus/pkg/ring"
)

const (
	// DefaultBacklog is how many past events replay to a new
	// subscriber.
	DefaultBacklog = 32

	subscriberQueue = 16
	writeTimeout    = 5 * time.Second
)

// Event is the wire form of one transcribed chunk.
type Event struct {
	At      jsontime.Milli    `json:"at"`
	Index   int               `json:"index"`
	Partial bool              `json:"partial,omitempty"`
	Elapsed jsontime.Duration `json:"elapsed"`
	Text    string            `json:"text"`
}

// Config configures a Hub.
type Config struct {
	// Backlog is the number of events kept for replay. Zero means
	// DefaultBacklog.
	Backlog int
}

// Hub fans caption events out to websocket subscribers. Publish never
// blocks: a subscriber that cannot keep up loses events.
type Hub struct {
	mu      sync.Mutex
	subs    map[*subscriber]struct{}
	backlog *ring.Ring[Event]
	closed  bool

	upgrader websocket.Upgrader
}

type subscriber struct {
	out  chan Event
	stop chan struct{}
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.stop) })
}

// NewHub creates a Hub with an empty backlog.
func NewHub(cfg Config) *Hub {
	backlog := cfg.Backlog
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	return &Hub{
		subs:    make(map[*subscriber]struct{}),
		backlog: ring.New[Event](backlog),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Publish records an event in the backlog and forwards it to every
// subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.backlog.Add(ev)
	subs := make([]*subscriber, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		select {
		case s.out <- ev:
		default:
			slog.Debug("caption: dropping event for slow subscriber", "index", ev.Index)
		}
	}
}

// Subscribers reports how many connections are attached.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber. Later Publish calls are
// dropped; later upgrades are rejected.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	subs := make([]*subscriber, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.subs = make(map[*subscriber]struct{})
	h.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
	return nil
}

// ServeHTTP upgrades the request and streams the backlog followed by
// live events until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "caption hub closed", http.StatusGone)
		return
	}
	h.mu.Unlock()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("caption: upgrade failed", "error", err)
		return
	}

	// Snapshot the backlog and register under one lock so no event
	// is both missed and unreplayed.
	h.mu.Lock()
	replay := h.backlog.Snapshot()
	sub := &subscriber{
		out:  make(chan Event, len(replay)+subscriberQueue),
		stop: make(chan struct{}),
	}
	for _, ev := range replay {
		sub.out <- ev
	}
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	slog.Debug("caption: subscriber connected", "remote", r.RemoteAddr, "replay", len(replay))
	go h.readLoop(conn, sub)
	h.writeLoop(conn, sub)

	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	conn.Close()
	slog.Debug("caption: subscriber disconnected", "remote", r.RemoteAddr)
}

// readLoop drains client frames so pings are answered and a closed
// peer is noticed.
func (h *Hub) readLoop(conn *websocket.Conn, sub *subscriber) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			sub.close()
			return
		}
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, sub *subscriber) {
	for {
		select {
		case ev := <-sub.out:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				slog.Debug("caption: write failed", "error", err)
				return
			}
		case <-sub.stop:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			return
		}
	}
}
