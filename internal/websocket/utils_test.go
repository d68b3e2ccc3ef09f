package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// Two goroutines share the connection in the progress stream: the read loop
// answering pings and the pub/sub forwarder. Writes from both must serialize.
func TestConnSerializesConcurrentWriters(t *testing.T) {
	const writers, perWriter = 4, 25

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conn := NewConn(raw)
		defer conn.Close()

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < perWriter; j++ {
					if err := conn.WriteTyped(ProgressEvent{Event: EventProgress, Payload: "ok"}); err != nil {
						t.Errorf("write: %v", err)
						return
					}
				}
			}()
		}
		wg.Wait()
		conn.WriteTyped(PongResponse{Event: EventPong})
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	progress := 0
	for {
		var msg struct {
			Event Event `json:"event"`
		}
		if err := client.ReadJSON(&msg); err != nil {
			t.Fatalf("read after %d messages: %v", progress, err)
		}
		if msg.Event == EventPong {
			break
		}
		if msg.Event != EventProgress {
			t.Fatalf("event = %q, want %q", msg.Event, EventProgress)
		}
		progress++
	}
	if progress != writers*perWriter {
		t.Fatalf("progress messages = %d, want %d", progress, writers*perWriter)
	}
}

func TestConnWriteError(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conn := NewConn(raw)
		defer conn.Close()
		conn.WriteError("unknown action: noop")
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	var msg ErrorResponse
	if err := client.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Event != EventError || msg.Error != "unknown action: noop" {
		t.Fatalf("got %+v, want error event", msg)
	}
}
