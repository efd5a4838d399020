package repository

import (
	"fmt"

	"tipwave/model"

	"gorm.io/gorm"
)

// TipRepository defines the interface for tip data operations.
type TipRepository interface {
	Create(tip *model.Tip) error
	FindByID(id string) (*model.Tip, error)
	FindByArtist(artistID string) ([]*model.Tip, error)
	FindBySender(senderID string) ([]*model.Tip, error)
}

// gormTipRepository implements TipRepository on the GORM layer.
type gormTipRepository struct {
	db *gorm.DB
}

// NewGormTipRepository creates a new instance of gormTipRepository.
func NewGormTipRepository(db *gorm.DB) TipRepository {
	return &gormTipRepository{db: db}
}

// Create persists a new tip record.
func (r *gormTipRepository) Create(tip *model.Tip) error {
	if err := r.db.Create(tip).Error; err != nil {
		return fmt.Errorf("failed to create tip %s: %w", tip.ID, err)
	}
	return nil
}

// FindByID retrieves a tip by its ID. Returns (nil, nil) when absent.
func (r *gormTipRepository) FindByID(id string) (*model.Tip, error) {
	var tip model.Tip
	err := r.db.First(&tip, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find tip %s: %w", id, err)
	}
	return &tip, nil
}

// FindByArtist retrieves all tips addressed to an artist, newest first.
func (r *gormTipRepository) FindByArtist(artistID string) ([]*model.Tip, error) {
	var tips []*model.Tip
	err := r.db.Where("artist_id = ?", artistID).Order("created_at DESC").Find(&tips).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find tips for artist %s: %w", artistID, err)
	}
	return tips, nil
}

// FindBySender retrieves all tips sent by a user, newest first.
func (r *gormTipRepository) FindBySender(senderID string) ([]*model.Tip, error) {
	var tips []*model.Tip
	err := r.db.Where("sender_id = ?", senderID).Order("created_at DESC").Find(&tips).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find tips for sender %s: %w", senderID, err)
	}
	return tips, nil
}
