package model

import "time"

// MessageRead is the read marker of one user in one conversation.
type MessageRead struct {
	UserID         uint64    `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	ConversationID uint64    `gorm:"column:conversation_id;primaryKey;autoIncrement:false"`
	LastReadAt     time.Time `gorm:"column:last_read_at;type:datetime(6);not null"`
}

func (MessageRead) TableName() string {
	return "message_reads"
}
