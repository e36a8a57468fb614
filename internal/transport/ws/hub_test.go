package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startHub(t *testing.T, lookup MemberLookup) (*Hub, func(uid string) *websocket.Conn) {
	t.Helper()
	h := NewHub(lookup, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.Serve(w, r, r.URL.Query().Get("uid"))
	}))
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	dial := func(uid string) *websocket.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?uid=" + uid
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		t.Cleanup(func() { _ = conn.Close() })
		waitFor(t, func() bool { return h.Connected(uid) > 0 })
		return conn
	}
	return h, dial
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return ev
}

func TestPublishOnlyToMembers(t *testing.T) {
	h, dial := startHub(t, func(_ context.Context, id string) ([]string, error) {
		return []string{"alice"}, nil
	})
	alice, bob := dial("alice"), dial("bob")

	h.Publish(context.Background(), Event{Type: ItemAdded, ChecklistID: "c1", Data: map[string]string{"text": "milk"}})

	if ev := readEvent(t, alice); ev.Type != ItemAdded || ev.ChecklistID != "c1" {
		t.Fatalf("alice got %+v", ev)
	}
	_ = bob.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := bob.ReadMessage(); err == nil {
		t.Fatal("bob is not a member and must not receive the event")
	}
}

func TestPublishExplicitMembersSkipsLookup(t *testing.T) {
	h, dial := startHub(t, func(context.Context, string) ([]string, error) {
		return nil, errors.New("checklist gone")
	})
	bob := dial("bob")

	h.Publish(context.Background(), Event{Type: ChecklistDeleted, ChecklistID: "c1"}, "bob")
	if ev := readEvent(t, bob); ev.Type != ChecklistDeleted {
		t.Fatalf("bob got %+v", ev)
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	h, dial := startHub(t, nil)
	conn := dial("carol")
	_ = conn.Close()
	waitFor(t, func() bool { return h.Connected("carol") == 0 })
}

func TestPublishDoesNotWaitForLookup(t *testing.T) {
	release := make(chan struct{})
	h, dial := startHub(t, func(ctx context.Context, id string) ([]string, error) {
		<-release
		return []string{"alice"}, nil
	})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	t.Cleanup(unblock) // 先于 hub.Close 执行
	alice := dial("alice")

	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan struct{})
	go func() {
		h.Publish(ctx, Event{Type: ItemUpdated, ChecklistID: "c1"})
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on member lookup")
	}
	// 请求结束后 ctx 被取消，事件仍应送达
	cancel()
	unblock()

	if ev := readEvent(t, alice); ev.Type != ItemUpdated {
		t.Fatalf("alice got %+v", ev)
	}
}

func TestPublishKeepsOrder(t *testing.T) {
	h, dial := startHub(t, func(context.Context, string) ([]string, error) {
		return []string{"alice"}, nil
	})
	alice := dial("alice")

	ctx := context.Background()
	h.Publish(ctx, Event{Type: ItemAdded, ChecklistID: "c1"})
	h.Publish(ctx, Event{Type: ItemUpdated, ChecklistID: "c1"}, "alice")
	h.Publish(ctx, Event{Type: ItemDeleted, ChecklistID: "c1"})

	for _, want := range []string{ItemAdded, ItemUpdated, ItemDeleted} {
		if ev := readEvent(t, alice); ev.Type != want {
			t.Fatalf("want %s, got %+v", want, ev)
		}
	}
}
