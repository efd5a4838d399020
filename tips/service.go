package tips

import (
	"errors"
	"time"

	"tipwave/model"
	"tipwave/notify"
	"tipwave/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sentinel errors for the tips service.
var (
	ErrAmountInvalid  = errors.New("tip amount must be positive")
	ErrArtistRequired = errors.New("tip artist is required")
	ErrSenderRequired = errors.New("tip sender is required")
	ErrTipNotFound    = errors.New("tip not found")
	ErrMessageTooLong = errors.New("tip message exceeds 500 characters")
)

const maxMessageLength = 500

// CreateParams is the client-supplied input for a new tip.
type CreateParams struct {
	SenderID string  `json:"senderId"`
	ArtistID string  `json:"artistId"`
	Amount   float64 `json:"amount"`
	Message  string  `json:"message"`
}

// Validate checks the input before any side effect is attempted.
func (p *CreateParams) Validate() error {
	if p.SenderID == "" {
		return ErrSenderRequired
	}
	if p.ArtistID == "" {
		return ErrArtistRequired
	}
	if p.Amount <= 0 {
		return ErrAmountInvalid
	}
	if len(p.Message) > maxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// Service records tips and fans the event out to the artist.
type Service struct {
	repo     repository.TipRepository
	notifier *notify.Service
	log      *zap.Logger
}

// NewService wires the tips service.
func NewService(repo repository.TipRepository, notifier *notify.Service, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		log:      log,
	}
}

// Create validates, persists the tip record and then notifies the
// artist. Notification comes after the durable write: a tip that fails
// to persist is never announced.
func (s *Service) Create(params CreateParams) (*model.Tip, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	tip := &model.Tip{
		ID:        uuid.NewString(),
		SenderID:  params.SenderID,
		ArtistID:  params.ArtistID,
		Amount:    params.Amount,
		Message:   params.Message,
		Status:    model.TipStatusCompleted,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(tip); err != nil {
		s.log.Error("failed to create tip",
			zap.String("artist", params.ArtistID),
			zap.String("sender", params.SenderID),
			zap.Error(err))
		return nil, err
	}

	s.notifier.NotifyArtistOfTip(tip.ArtistID, tip)

	s.log.Info("tip created",
		zap.String("tipId", tip.ID),
		zap.String("artist", tip.ArtistID),
		zap.Float64("amount", tip.Amount))
	return tip, nil
}

// FindOne returns the tip with the given id or ErrTipNotFound.
func (s *Service) FindOne(id string) (*model.Tip, error) {
	tip, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if tip == nil {
		return nil, ErrTipNotFound
	}
	return tip, nil
}

// FindByArtist returns all tips received by an artist, newest first.
func (s *Service) FindByArtist(artistID string) ([]*model.Tip, error) {
	return s.repo.FindByArtist(artistID)
}

// FindBySender returns all tips sent by a user, newest first.
func (s *Service) FindBySender(senderID string) ([]*model.Tip, error) {
	return s.repo.FindBySender(senderID)
}
