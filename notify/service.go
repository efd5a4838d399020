package notify

import (
	"time"

	"tipwave/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dispatcher routes a typed event to a recipient. Both methods are
// fire-and-forget; no return value carries delivery confirmation.
type Dispatcher interface {
	SendToUser(userID string, n *model.Notification)
	SendToArtist(artistID string, n *model.Notification)
}

// Service fans events out to recipients.
type Service struct {
	dispatcher Dispatcher
	log        *zap.Logger
}

// NewService wires the notification service.
func NewService(dispatcher Dispatcher, log *zap.Logger) *Service {
	return &Service{
		dispatcher: dispatcher,
		log:        log,
	}
}

// NotifyArtistOfTip fans a tip event out through both addressing
// schemes: once to the artist's broadcast room, once to the artist's own
// user sessions. The two audiences are distinct, so the dual send is
// deliberate and never deduplicated. Each dispatch carries a fresh event
// instance with its own id and timestamp.
func (s *Service) NotifyArtistOfTip(artistID string, tip *model.Tip) {
	s.dispatcher.SendToArtist(artistID, tipEvent(tip))
	s.dispatcher.SendToUser(artistID, tipEvent(tip))

	s.log.Info("tip notification dispatched",
		zap.String("artist", artistID),
		zap.String("tipId", tip.ID))
}

// NotifyUser passes a single notification through to the user's sessions.
func (s *Service) NotifyUser(userID string, n *model.Notification) {
	s.dispatcher.SendToUser(userID, n)
}

func tipEvent(tip *model.Tip) *model.Notification {
	return &model.Notification{
		ID:        uuid.NewString(),
		Type:      model.NotificationTipReceived,
		Data:      tip,
		Timestamp: time.Now(),
	}
}
