package repository

import (
	"context"
	"time"

	"github.com/shinyyama/marketplace-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	FindByID(ctx context.Context, id uint64) (*model.Message, error)
	List(ctx context.Context, convID uint64) ([]model.Message, error)
	// ListAfter returns the messages of convID that sort strictly after ref.
	ListAfter(ctx context.Context, convID uint64, ref *model.Message) ([]model.Message, error)
	UpsertRead(ctx context.Context, userID, convID uint64, at time.Time) error
	FindRead(ctx context.Context, userID, convID uint64) (*model.MessageRead, error)
	CountUnread(ctx context.Context, userID uint64) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) FindByID(ctx context.Context, id uint64) (*model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msg model.Message
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, translate(err)
	}
	return &msg, nil
}

func (r *messageRepository) List(ctx context.Context, convID uint64) ([]model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msgs []model.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepository) ListAfter(ctx context.Context, convID uint64, ref *model.Message) ([]model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msgs []model.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Where("(created_at > ? OR (created_at = ? AND id > ?))", ref.CreatedAt, ref.CreatedAt, ref.ID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepository) UpsertRead(ctx context.Context, userID, convID uint64, at time.Time) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "conversation_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_read_at"}),
	}).Create(&model.MessageRead{UserID: userID, ConversationID: convID, LastReadAt: at}).Error
}

func (r *messageRepository) FindRead(ctx context.Context, userID, convID uint64) (*model.MessageRead, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var mr model.MessageRead
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND conversation_id = ?", userID, convID).
		First(&mr).Error; err != nil {
		return nil, translate(err)
	}
	return &mr, nil
}

const unreadTotalSQL = `
SELECT COUNT(*)
FROM messages m
JOIN conversations c ON c.id = m.conversation_id
LEFT JOIN message_reads r ON r.conversation_id = c.id AND r.user_id = ?
WHERE (c.buyer_id = ? OR c.seller_id = ?) AND ` + unreadPredicate

func (r *messageRepository) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var cnt int64
	if err := r.db.WithContext(ctx).
		Raw(unreadTotalSQL, userID, userID, userID, userID).
		Scan(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}
