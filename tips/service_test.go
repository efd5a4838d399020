package tips

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"tipwave/model"
	"tipwave/notify"

	"go.uber.org/zap"
)

type fakeTipRepo struct {
	mu   sync.Mutex
	tips map[string]*model.Tip
	seq  int

	failCreate bool
}

func newFakeTipRepo() *fakeTipRepo {
	return &fakeTipRepo{tips: make(map[string]*model.Tip)}
}

func (r *fakeTipRepo) Create(tip *model.Tip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("insert failed")
	}
	r.seq++
	tip.CreatedAt = time.Unix(int64(r.seq), 0)
	cp := *tip
	r.tips[tip.ID] = &cp
	return nil
}

func (r *fakeTipRepo) FindByID(id string) (*model.Tip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tip, ok := r.tips[id]
	if !ok {
		return nil, nil
	}
	cp := *tip
	return &cp, nil
}

func (r *fakeTipRepo) list(filter func(*model.Tip) bool) []*model.Tip {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Tip, 0)
	for _, tip := range r.tips {
		if filter(tip) {
			cp := *tip
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *fakeTipRepo) FindByArtist(artistID string) ([]*model.Tip, error) {
	return r.list(func(t *model.Tip) bool { return t.ArtistID == artistID }), nil
}

func (r *fakeTipRepo) FindBySender(senderID string) ([]*model.Tip, error) {
	return r.list(func(t *model.Tip) bool { return t.SenderID == senderID }), nil
}

type recordingDispatcher struct {
	toUser   []*model.Notification
	toArtist []*model.Notification
}

func (d *recordingDispatcher) SendToUser(userID string, n *model.Notification) {
	d.toUser = append(d.toUser, n)
}

func (d *recordingDispatcher) SendToArtist(artistID string, n *model.Notification) {
	d.toArtist = append(d.toArtist, n)
}

func newTestService(t *testing.T) (*Service, *fakeTipRepo, *recordingDispatcher) {
	t.Helper()
	repo := newFakeTipRepo()
	dispatcher := &recordingDispatcher{}
	notifier := notify.NewService(dispatcher, zap.NewNop())
	return NewService(repo, notifier, zap.NewNop()), repo, dispatcher
}

func TestCreate(t *testing.T) {
	t.Run("persists and then notifies", func(t *testing.T) {
		svc, repo, dispatcher := newTestService(t)

		tip, err := svc.Create(CreateParams{
			SenderID: "fan-1",
			ArtistID: "artist-1",
			Amount:   12.5,
			Message:  "great set",
		})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		if tip.ID == "" || tip.CreatedAt.IsZero() {
			t.Error("expected id and timestamp to be assigned")
		}
		if tip.Status != model.TipStatusCompleted {
			t.Errorf("expected status completed, got %s", tip.Status)
		}

		stored, _ := repo.FindByID(tip.ID)
		if stored == nil {
			t.Fatal("tip not persisted")
		}
		if stored.Amount != 12.5 || stored.Message != "great set" {
			t.Errorf("stored tip mismatch: %+v", stored)
		}

		if len(dispatcher.toArtist) != 1 || len(dispatcher.toUser) != 1 {
			t.Fatalf("expected one room and one user dispatch, got %d and %d",
				len(dispatcher.toArtist), len(dispatcher.toUser))
		}
	})

	t.Run("validation failures", func(t *testing.T) {
		cases := []struct {
			name   string
			params CreateParams
			want   error
		}{
			{"zero amount", CreateParams{SenderID: "s", ArtistID: "a", Amount: 0}, ErrAmountInvalid},
			{"negative amount", CreateParams{SenderID: "s", ArtistID: "a", Amount: -5}, ErrAmountInvalid},
			{"missing sender", CreateParams{ArtistID: "a", Amount: 1}, ErrSenderRequired},
			{"missing artist", CreateParams{SenderID: "s", Amount: 1}, ErrArtistRequired},
			{"oversized message", CreateParams{SenderID: "s", ArtistID: "a", Amount: 1, Message: strings.Repeat("x", 501)}, ErrMessageTooLong},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				svc, repo, dispatcher := newTestService(t)

				_, err := svc.Create(tc.params)
				if !errors.Is(err, tc.want) {
					t.Fatalf("expected %v, got %v", tc.want, err)
				}
				if len(repo.tips) != 0 {
					t.Error("nothing should be persisted on validation failure")
				}
				if len(dispatcher.toArtist) != 0 || len(dispatcher.toUser) != 0 {
					t.Error("nothing should be dispatched on validation failure")
				}
			})
		}
	})

	t.Run("failed persist is never announced", func(t *testing.T) {
		svc, repo, dispatcher := newTestService(t)
		repo.failCreate = true

		_, err := svc.Create(CreateParams{SenderID: "s", ArtistID: "a", Amount: 1})
		if err == nil {
			t.Fatal("expected error from failing insert")
		}
		if len(dispatcher.toArtist) != 0 || len(dispatcher.toUser) != 0 {
			t.Error("a tip that failed to persist must not be dispatched")
		}
	})
}

func TestFindOne(t *testing.T) {
	svc, _, _ := newTestService(t)

	t.Run("absent id fails with ErrTipNotFound", func(t *testing.T) {
		_, err := svc.FindOne("no-such-tip")
		if !errors.Is(err, ErrTipNotFound) {
			t.Fatalf("expected ErrTipNotFound, got %v", err)
		}
	})

	t.Run("existing id round trips", func(t *testing.T) {
		created, err := svc.Create(CreateParams{SenderID: "s", ArtistID: "a", Amount: 3})
		if err != nil {
			t.Fatal(err)
		}
		got, err := svc.FindOne(created.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != created.ID {
			t.Errorf("expected tip %s, got %s", created.ID, got.ID)
		}
	})
}

func TestListings(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, p := range []CreateParams{
		{SenderID: "fan-1", ArtistID: "artist-1", Amount: 1},
		{SenderID: "fan-2", ArtistID: "artist-1", Amount: 2},
		{SenderID: "fan-1", ArtistID: "artist-2", Amount: 3},
	} {
		if _, err := svc.Create(p); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("by artist, newest first", func(t *testing.T) {
		tipsList, err := svc.FindByArtist("artist-1")
		if err != nil {
			t.Fatal(err)
		}
		if len(tipsList) != 2 {
			t.Fatalf("expected 2 tips, got %d", len(tipsList))
		}
		if tipsList[0].Amount != 2 || tipsList[1].Amount != 1 {
			t.Errorf("unexpected ordering: %v, %v", tipsList[0].Amount, tipsList[1].Amount)
		}
	})

	t.Run("by sender, newest first", func(t *testing.T) {
		tipsList, err := svc.FindBySender("fan-1")
		if err != nil {
			t.Fatal(err)
		}
		if len(tipsList) != 2 {
			t.Fatalf("expected 2 tips, got %d", len(tipsList))
		}
		if tipsList[0].Amount != 3 || tipsList[1].Amount != 1 {
			t.Errorf("unexpected ordering: %v, %v", tipsList[0].Amount, tipsList[1].Amount)
		}
	})
}
