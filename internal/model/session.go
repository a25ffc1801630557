package model

import "time"

type Session struct {
	Token     string    `gorm:"primaryKey;size:36"`
	UserID    uint64    `gorm:"column:user_id;index;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;type:datetime(6);index;not null"`
	CreatedAt time.Time `gorm:"type:datetime(6)"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
