package notify

import (
	"testing"
	"time"

	"tipwave/model"

	"go.uber.org/zap"
)

type dispatched struct {
	recipient string
	event     *model.Notification
}

type fakeDispatcher struct {
	toUser   []dispatched
	toArtist []dispatched
}

func (d *fakeDispatcher) SendToUser(userID string, n *model.Notification) {
	d.toUser = append(d.toUser, dispatched{recipient: userID, event: n})
}

func (d *fakeDispatcher) SendToArtist(artistID string, n *model.Notification) {
	d.toArtist = append(d.toArtist, dispatched{recipient: artistID, event: n})
}

func TestNotifyArtistOfTip(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	svc := NewService(dispatcher, zap.NewNop())

	tip := &model.Tip{
		ID:       "tip-1",
		SenderID: "fan-7",
		ArtistID: "artist-9",
		Amount:   5,
		Status:   model.TipStatusCompleted,
	}
	svc.NotifyArtistOfTip("artist-9", tip)

	t.Run("sends to both the room and the user sessions", func(t *testing.T) {
		if len(dispatcher.toArtist) != 1 {
			t.Fatalf("expected 1 room dispatch, got %d", len(dispatcher.toArtist))
		}
		if len(dispatcher.toUser) != 1 {
			t.Fatalf("expected 1 user dispatch, got %d", len(dispatcher.toUser))
		}
		if dispatcher.toArtist[0].recipient != "artist-9" || dispatcher.toUser[0].recipient != "artist-9" {
			t.Errorf("both dispatches should address the artist, got %s and %s",
				dispatcher.toArtist[0].recipient, dispatcher.toUser[0].recipient)
		}
	})

	t.Run("both events are typed tip notifications", func(t *testing.T) {
		for _, d := range []dispatched{dispatcher.toArtist[0], dispatcher.toUser[0]} {
			if d.event.Type != model.NotificationTipReceived {
				t.Errorf("expected type %s, got %s", model.NotificationTipReceived, d.event.Type)
			}
			got, ok := d.event.Data.(*model.Tip)
			if !ok {
				t.Fatalf("expected tip payload, got %T", d.event.Data)
			}
			if got.ID != "tip-1" {
				t.Errorf("expected tip tip-1 in payload, got %s", got.ID)
			}
		}
	})

	t.Run("each dispatch carries a fresh event instance", func(t *testing.T) {
		roomEvent := dispatcher.toArtist[0].event
		userEvent := dispatcher.toUser[0].event
		if roomEvent == userEvent {
			t.Fatal("room and user dispatches must not share one event instance")
		}
		if roomEvent.ID == userEvent.ID {
			t.Error("each event should carry its own id")
		}
		if roomEvent.ID == "" || userEvent.ID == "" {
			t.Error("event ids should be assigned")
		}
		if roomEvent.Timestamp.IsZero() || userEvent.Timestamp.IsZero() {
			t.Error("event timestamps should be assigned")
		}
	})
}

func TestNotifyUser(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	svc := NewService(dispatcher, zap.NewNop())

	n := &model.Notification{
		ID:        "ev-1",
		Type:      model.NotificationSystem,
		Data:      "maintenance at midnight",
		Timestamp: time.Now(),
	}
	svc.NotifyUser("user-3", n)

	if len(dispatcher.toUser) != 1 {
		t.Fatalf("expected 1 user dispatch, got %d", len(dispatcher.toUser))
	}
	if len(dispatcher.toArtist) != 0 {
		t.Fatalf("expected no room dispatch, got %d", len(dispatcher.toArtist))
	}
	if dispatcher.toUser[0].recipient != "user-3" {
		t.Errorf("expected recipient user-3, got %s", dispatcher.toUser[0].recipient)
	}
	if dispatcher.toUser[0].event != n {
		t.Error("user notification should pass through unmodified")
	}
}
