package notify

import (
	"encoding/json"
	"testing"
	"time"

	"tipwave/model"

	"go.uber.org/zap"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, zap.NewNop())
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func registerClient(t *testing.T, hub *Hub, userID string) *Client {
	t.Helper()
	client := NewClient(hub, nil, userID)
	hub.Register(client)
	waitFor(t, func() bool {
		return hub.UserSessionCount(userID) > 0
	})
	return client
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached within deadline")
}

func receive(t *testing.T, client *Client) *model.Notification {
	t.Helper()
	select {
	case data := <-client.Send:
		var n model.Notification
		if err := json.Unmarshal(data, &n); err != nil {
			t.Fatalf("invalid notification payload: %v", err)
		}
		return &n
	case <-time.After(2 * time.Second):
		t.Fatal("no notification received")
		return nil
	}
}

func assertSilent(t *testing.T, client *Client) {
	t.Helper()
	select {
	case data := <-client.Send:
		t.Fatalf("unexpected delivery: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendToUser(t *testing.T) {
	hub := startHub(t)

	first := registerClient(t, hub, "user-1")
	second := NewClient(hub, nil, "user-1")
	hub.Register(second)
	waitFor(t, func() bool { return hub.UserSessionCount("user-1") == 2 })
	other := registerClient(t, hub, "user-2")

	hub.SendToUser("user-1", &model.Notification{Type: model.NotificationSystem, Data: "hello"})

	t.Run("every session of the user receives the event", func(t *testing.T) {
		for _, client := range []*Client{first, second} {
			n := receive(t, client)
			if n.Type != model.NotificationSystem {
				t.Errorf("expected SYSTEM event, got %s", n.Type)
			}
			if n.ID == "" || n.Timestamp.IsZero() {
				t.Error("expected id and timestamp to be assigned on encode")
			}
		}
	})

	t.Run("other users receive nothing", func(t *testing.T) {
		assertSilent(t, other)
	})

	t.Run("unknown user is a no-op", func(t *testing.T) {
		hub.SendToUser("nobody", &model.Notification{Type: model.NotificationSystem})
	})
}

func TestSendToArtist(t *testing.T) {
	hub := startHub(t)

	fan := registerClient(t, hub, "fan-1")
	hub.Subscribe(fan, "artist-1")

	bystander := registerClient(t, hub, "fan-2")

	// The artist's own session: connected, but not subscribed to the room.
	artist := registerClient(t, hub, "artist-1")

	hub.SendToArtist("artist-1", &model.Notification{Type: model.NotificationTipReceived})

	t.Run("room subscribers receive the event", func(t *testing.T) {
		n := receive(t, fan)
		if n.Type != model.NotificationTipReceived {
			t.Errorf("expected TIP_RECEIVED, got %s", n.Type)
		}
	})

	t.Run("room delivery does not imply user delivery", func(t *testing.T) {
		assertSilent(t, artist)
	})

	t.Run("unsubscribed sessions receive nothing", func(t *testing.T) {
		assertSilent(t, bystander)
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		hub.Unsubscribe(fan, "artist-1")
		hub.SendToArtist("artist-1", &model.Notification{Type: model.NotificationTipReceived})
		assertSilent(t, fan)
	})
}

func TestDualAddressing(t *testing.T) {
	// One artist session subscribed to its own room sees both the room
	// dispatch and the user dispatch as two separate events.
	hub := startHub(t)

	artist := registerClient(t, hub, "artist-1")
	hub.Subscribe(artist, "artist-1")

	hub.SendToArtist("artist-1", &model.Notification{Type: model.NotificationTipReceived})
	hub.SendToUser("artist-1", &model.Notification{Type: model.NotificationTipReceived})

	first := receive(t, artist)
	second := receive(t, artist)
	if first.ID == second.ID {
		t.Error("the two dispatches should be distinct events")
	}
}

func TestUnregister(t *testing.T) {
	hub := startHub(t)

	client := registerClient(t, hub, "user-1")
	hub.Subscribe(client, "artist-1")
	if hub.RoomSubscriberCount("artist-1") != 1 {
		t.Fatalf("expected 1 room subscriber, got %d", hub.RoomSubscriberCount("artist-1"))
	}

	hub.Unregister(client)
	waitFor(t, func() bool { return hub.UserSessionCount("user-1") == 0 })

	t.Run("session leaves its rooms", func(t *testing.T) {
		if got := hub.RoomSubscriberCount("artist-1"); got != 0 {
			t.Errorf("expected 0 room subscribers, got %d", got)
		}
	})

	t.Run("send channel is closed", func(t *testing.T) {
		select {
		case _, ok := <-client.Send:
			if ok {
				t.Error("expected closed send channel")
			}
		case <-time.After(time.Second):
			t.Error("send channel not closed")
		}
	})

	t.Run("delivery after unregister is a no-op", func(t *testing.T) {
		hub.SendToUser("user-1", &model.Notification{Type: model.NotificationSystem})
	})
}
