package model

import (
	"time"

	"github.com/google/uuid"
)

type Quote struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Category  string    `gorm:"type:varchar(64);not null;index"` // religion or "general"
	Text      string    `gorm:"type:text;not null"`
	Source    string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Quote) TableName() string {
	return "wb_quote"
}

type QuoteSeen struct {
	Id      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId  uuid.UUID `gorm:"type:uuid;not null;index:idx_quote_seen_user_time"`
	QuoteId uuid.UUID `gorm:"type:uuid;not null"`
	SeenAt  time.Time `gorm:"not null;index:idx_quote_seen_user_time"`
}

func (QuoteSeen) TableName() string {
	return "wb_quote_seen"
}
