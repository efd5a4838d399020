package model

import "time"

// TipStatus is the settlement state of a tip record.
type TipStatus string

const (
	TipStatusPending   TipStatus = "pending"
	TipStatusCompleted TipStatus = "completed"
)

// Tip is a durable record of one tip sent to an artist.
type Tip struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	SenderID  string    `json:"senderId" gorm:"size:255;index"`
	ArtistID  string    `json:"artistId" gorm:"size:255;index"`
	Amount    float64   `json:"amount"`
	Message   string    `json:"message,omitempty" gorm:"type:text"`
	Status    TipStatus `json:"status" gorm:"size:32"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName sets the GORM table name for tips.
func (Tip) TableName() string {
	return "tips"
}
