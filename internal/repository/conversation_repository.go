package repository

import (
	"context"
	"errors"

	"github.com/shinyyama/marketplace-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationRepository interface {
	// FindOrCreate returns the conversation for (listingID, buyerID), creating
	// it with sellerID when absent. created reports whether this call inserted it.
	FindOrCreate(ctx context.Context, listingID, buyerID, sellerID uint64) (cv *model.Conversation, created bool, err error)
	FindByID(ctx context.Context, id uint64) (*model.Conversation, error)
	FindByListingAndBuyer(ctx context.Context, listingID, buyerID uint64) (*model.Conversation, error)
	FindDetail(ctx context.Context, id uint64) (*model.ConversationDetail, error)
	ListSummaries(ctx context.Context, userID uint64) ([]model.ConversationSummary, error)
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) FindOrCreate(ctx context.Context, listingID, buyerID, sellerID uint64) (*model.Conversation, bool, error) {
	if r.db == nil {
		return nil, false, ErrDBNotReady
	}
	cv, err := r.FindByListingAndBuyer(ctx, listingID, buyerID)
	if err == nil {
		return cv, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	// The unique index on (listing_id, buyer_id) decides concurrent creators;
	// the loser's insert is a no-op and the re-read returns the winner's row.
	fresh := model.Conversation{
		ListingID: listingID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		CreatedAt: r.db.NowFunc(),
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&fresh)
	if res.Error != nil {
		return nil, false, res.Error
	}
	cv, err = r.FindByListingAndBuyer(ctx, listingID, buyerID)
	if err != nil {
		return nil, false, err
	}
	return cv, res.RowsAffected > 0 && cv.ID == fresh.ID, nil
}

func (r *conversationRepository) FindByID(ctx context.Context, id uint64) (*model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var cv model.Conversation
	if err := r.db.WithContext(ctx).First(&cv, id).Error; err != nil {
		return nil, translate(err)
	}
	return &cv, nil
}

func (r *conversationRepository) FindByListingAndBuyer(ctx context.Context, listingID, buyerID uint64) (*model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var cv model.Conversation
	if err := r.db.WithContext(ctx).
		Where("listing_id = ? AND buyer_id = ?", listingID, buyerID).
		First(&cv).Error; err != nil {
		return nil, translate(err)
	}
	return &cv, nil
}

const conversationDetailSQL = `
SELECT c.id, c.listing_id, c.buyer_id, c.seller_id, c.created_at,
       l.title AS listing_title, l.image_url AS listing_image_url,
       l.price AS listing_price, l.status AS listing_status,
       b.name AS buyer_name, s.name AS seller_name
FROM conversations c
JOIN listings l ON l.id = c.listing_id
JOIN users b ON b.id = c.buyer_id
JOIN users s ON s.id = c.seller_id
WHERE c.id = ?`

func (r *conversationRepository) FindDetail(ctx context.Context, id uint64) (*model.ConversationDetail, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var rows []model.ConversationDetail
	if err := r.db.WithContext(ctx).Raw(conversationDetailSQL, id).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// unreadPredicate is shared by the inbox and the global badge so both count
// the same messages: from someone else, newer than the reader's marker.
const unreadPredicate = `m.sender_id <> ? AND m.created_at > COALESCE(r.last_read_at, '1970-01-01 00:00:00')`

const conversationSummariesSQL = `
SELECT c.id, c.listing_id, c.buyer_id, c.seller_id, c.created_at,
       l.title AS listing_title, l.image_url AS listing_image_url,
       CASE WHEN c.buyer_id = ? THEN s.name ELSE b.name END AS counterpart_name,
       lm.content AS last_message,
       COALESCE(lm.created_at, c.created_at) AS last_activity_at,
       (SELECT COUNT(*) FROM messages m
         WHERE m.conversation_id = c.id AND ` + unreadPredicate + `) AS unread_count
FROM conversations c
JOIN listings l ON l.id = c.listing_id
JOIN users b ON b.id = c.buyer_id
JOIN users s ON s.id = c.seller_id
LEFT JOIN message_reads r ON r.conversation_id = c.id AND r.user_id = ?
LEFT JOIN messages lm ON lm.id = (
    SELECT m2.id FROM messages m2
    WHERE m2.conversation_id = c.id
    ORDER BY m2.created_at DESC, m2.id DESC
    LIMIT 1)
WHERE c.buyer_id = ? OR c.seller_id = ?
ORDER BY last_activity_at DESC, c.id DESC`

func (r *conversationRepository) ListSummaries(ctx context.Context, userID uint64) ([]model.ConversationSummary, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.ConversationSummary
	if err := r.db.WithContext(ctx).
		Raw(conversationSummariesSQL, userID, userID, userID, userID, userID).
		Scan(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
