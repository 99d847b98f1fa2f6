package ws

import (
	"encoding/json"
	"testing"
)

func newTestClient(hub *Hub, userID string) *Client {
	return &Client{
		hub:    hub,
		send:   make(chan []byte, 16),
		id:     "test-" + userID,
		UserID: userID,
	}
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-c.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestNotifyReachesOnlyRegisteredUsers(t *testing.T) {
	hub := NewHub()
	clientA := newTestClient(hub, "user-a")
	hub.register(clientA)

	// user-b is offline; the notification for it must be silently dropped
	hub.NotifyUsers([]string{"user-a", "user-b"}, UpdateEvent(UpdateChats))

	msgs := drain(clientA)
	if len(msgs) != 1 {
		t.Fatalf("expected exactly 1 message for user-a, got %d", len(msgs))
	}

	var event Event
	if err := json.Unmarshal(msgs[0], &event); err != nil {
		t.Fatalf("invalid event JSON: %v", err)
	}
	if event.Type != "UPDATE_DATA" || event.Update != UpdateChats {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestRegisterReplacesPreviousConnection(t *testing.T) {
	hub := NewHub()
	first := newTestClient(hub, "user-a")
	second := newTestClient(hub, "user-a")

	hub.register(first)
	hub.register(second)

	// Old connection's send channel is closed by the replacement
	if _, ok := <-first.send; ok {
		t.Error("first connection's send channel should be closed")
	}

	hub.NotifyUser("user-a", UpdateEvent(UpdateFriends))
	if got := len(drain(second)); got != 1 {
		t.Errorf("second connection should receive the event, got %d messages", got)
	}
}

func TestUnregisterByConnection(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "user-a")
	hub.register(client)

	hub.unregister(client)

	if hub.online("user-a") {
		t.Error("user-a should be absent after unregister")
	}
	// Dropping an event for an absent user must not error or panic
	hub.NotifyUser("user-a", UpdateEvent(UpdateChats))
}

func TestUnregisterKeepsNewerConnection(t *testing.T) {
	hub := NewHub()
	first := newTestClient(hub, "user-a")
	second := newTestClient(hub, "user-a")

	hub.register(first)
	hub.register(second)

	// The stale close event of the replaced connection arrives late; it must
	// not evict the newer registration.
	hub.unregister(first)

	if !hub.online("user-a") {
		t.Fatal("newer connection should still be registered")
	}
	hub.NotifyUser("user-a", UpdateEvent(UpdateChats))
	if got := len(drain(second)); got != 1 {
		t.Errorf("newer connection should receive the event, got %d", got)
	}
}

func TestReauthenticationReleasesPreviousBinding(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "user-a")
	hub.register(client)

	// The same connection authenticates again under a different account
	client.UserID = "user-b"
	hub.register(client)

	if hub.online("user-a") {
		t.Error("binding for user-a should be gone after re-auth")
	}
	if !hub.online("user-b") {
		t.Fatal("user-b should be registered")
	}

	hub.unregister(client)
	if hub.online("user-b") {
		t.Error("user-b should be absent after the connection closed")
	}
	// Fanout to either id must not touch the closed channel
	hub.NotifyUser("user-a", UpdateEvent(UpdateChats))
	hub.NotifyUser("user-b", UpdateEvent(UpdateChats))
}

func TestUnregisterDropsEveryBindingOfConnection(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "user-a")
	hub.register(client)
	hub.clients["user-b"] = client // leftover binding under an earlier id

	hub.unregister(client)

	if hub.online("user-a") || hub.online("user-b") {
		t.Error("all bindings of the closed connection should be removed")
	}
	// Neither id may reach the closed channel
	hub.NotifyUsers([]string{"user-a", "user-b"}, UpdateEvent(UpdateChats))
}

func TestUnauthenticatedClientIsNotRegistered(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "")
	hub.register(client)

	if len(hub.clients) != 0 {
		t.Error("client without a user id must not be registered")
	}
}

func TestSlowClientDropsEvent(t *testing.T) {
	hub := NewHub()
	client := &Client{hub: hub, send: make(chan []byte), UserID: "user-a"} // unbuffered, nobody reading
	hub.register(client)

	// Must not block or panic; the event is dropped
	hub.NotifyUser("user-a", UpdateEvent(UpdatePosts))
}
