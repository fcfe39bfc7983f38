package caption_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sabaimran/vox-locus/pkg/caption"
	"github.com/sabaimran/vox-locus/pkg/jsontime"
)

func newTestHub(t *testing.T, cfg caption.Config) (*caption.Hub, string) {
	t.Helper()
	hub := caption.NewHub(cfg)
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	t.Cleanup(func() { hub.Close() })
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) caption.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev caption.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func event(i int, text string) caption.Event {
	return caption.Event{
		At:      jsontime.NowMilli(),
		Index:   i,
		Elapsed: jsontime.Duration(time.Duration(i+1) * 5 * time.Second),
		Text:    text,
	}
}

func TestHubReplaysBacklog(t *testing.T) {
	hub, url := newTestHub(t, caption.Config{})
	for i, text := range []string{"one", "two", "three"} {
		hub.Publish(event(i, text))
	}

	conn := dial(t, url)
	for i, want := range []string{"one", "two", "three"} {
		ev := readEvent(t, conn)
		if ev.Index != i || ev.Text != want {
			t.Fatalf("replay[%d] = (%d, %q), want (%d, %q)", i, ev.Index, ev.Text, i, want)
		}
	}
}

func TestHubBacklogEvicts(t *testing.T) {
	hub, url := newTestHub(t, caption.Config{Backlog: 2})
	for i := 0; i < 5; i++ {
		hub.Publish(event(i, "line"))
	}

	conn := dial(t, url)
	if ev := readEvent(t, conn); ev.Index != 3 {
		t.Fatalf("first replayed index = %d, want 3", ev.Index)
	}
	if ev := readEvent(t, conn); ev.Index != 4 {
		t.Fatalf("second replayed index = %d, want 4", ev.Index)
	}
}

func TestHubBroadcastsLive(t *testing.T) {
	hub, url := newTestHub(t, caption.Config{})
	a := dial(t, url)
	b := dial(t, url)

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("Subscribers = %d, want 2", hub.Subscribers())
		}
		time.Sleep(time.Millisecond)
	}

	hub.Publish(event(0, "live"))
	for name, conn := range map[string]*websocket.Conn{"a": a, "b": b} {
		ev := readEvent(t, conn)
		if ev.Text != "live" {
			t.Errorf("subscriber %s got %q, want %q", name, ev.Text, "live")
		}
	}
}

func TestHubCloseDisconnectsSubscribers(t *testing.T) {
	hub, url := newTestHub(t, caption.Config{})
	conn := dial(t, url)

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(time.Millisecond)
	}

	if err := hub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("read after Close = %v, want normal close", err)
	}

	// Publishing into a closed hub is a silent no-op.
	hub.Publish(event(9, "dropped"))
	if n := hub.Subscribers(); n != 0 {
		t.Errorf("Subscribers after Close = %d, want 0", n)
	}
}

func TestEventJSONShape(t *testing.T) {
	ev := caption.Event{
		At:      jsontime.Milli(time.UnixMilli(1700000000000)),
		Index:   2,
		Partial: true,
		Elapsed: jsontime.Duration(15 * time.Second),
		Text:    "hello there",
	}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"at":1700000000000,"index":2,"partial":true,"elapsed":"15s","text":"hello there"}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}
}
