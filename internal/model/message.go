package model

import "time"

type Message struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64    `gorm:"column:conversation_id;not null;index:idx_conv_created,priority:1" json:"conversationId"`
	SenderID       uint64    `gorm:"column:sender_id;not null;index" json:"senderId"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"type:datetime(6);not null;index:idx_conv_created,priority:2" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}

// Before reports whether m sorts before other in a conversation.
func (m *Message) Before(other *Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID < other.ID
	}
	return m.CreatedAt.Before(other.CreatedAt)
}
