package repository

import (
	"context"

	"github.com/shinyyama/marketplace-backend/internal/model"
	"gorm.io/gorm"
)

type OfferRepository interface {
	// ReplacePending cancels any pending offer for (offer.ListingID,
	// offer.BuyerID) and inserts offer as the new pending one. A non-nil note
	// is appended to the conversation in the same transaction.
	ReplacePending(ctx context.Context, offer *model.Offer, note *model.Message) error
	// Respond moves a pending offer to status when sellerID owns its listing.
	// note is appended in the same transaction, and only when the offer moved.
	Respond(ctx context.Context, offerID, sellerID uint64, status model.OfferStatus, note *model.Message) (bool, error)
	// CancelByBuyer withdraws a pending offer made by buyerID, with note
	// handled as in Respond.
	CancelByBuyer(ctx context.Context, offerID, buyerID uint64, note *model.Message) (bool, error)
	FindByID(ctx context.Context, id uint64) (*model.Offer, error)
	FindPending(ctx context.Context, convID uint64) (*model.Offer, error)
	FindLatest(ctx context.Context, convID uint64) (*model.Offer, error)
	// AcceptedPaymentInfo returns the seller's payment instructions when the
	// conversation has an accepted offer; found is false otherwise.
	AcceptedPaymentInfo(ctx context.Context, convID uint64) (info string, found bool, err error)
}

type offerRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepository{db: db}
}

func (r *offerRepository) ReplacePending(ctx context.Context, offer *model.Offer, note *model.Message) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	offer.Status = model.OfferStatusPending
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Offer{}).
			Where("listing_id = ? AND buyer_id = ? AND status = ?", offer.ListingID, offer.BuyerID, model.OfferStatusPending).
			Update("status", model.OfferStatusCancelled).Error; err != nil {
			return err
		}
		if err := tx.Create(offer).Error; err != nil {
			return err
		}
		if note == nil {
			return nil
		}
		return tx.Create(note).Error
	})
}

func (r *offerRepository) Respond(ctx context.Context, offerID, sellerID uint64, status model.OfferStatus, note *model.Message) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	return r.transition(ctx, note, func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&model.Offer{}).
			Where("id = ? AND status = ?", offerID, model.OfferStatusPending).
			Where("EXISTS (SELECT 1 FROM listings l WHERE l.id = offers.listing_id AND l.seller_id = ?)", sellerID).
			Update("status", status)
	})
}

func (r *offerRepository) CancelByBuyer(ctx context.Context, offerID, buyerID uint64, note *model.Message) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	return r.transition(ctx, note, func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&model.Offer{}).
			Where("id = ? AND buyer_id = ? AND status = ?", offerID, buyerID, model.OfferStatusPending).
			Update("status", model.OfferStatusCancelled)
	})
}

// transition runs a conditional status update and appends note when the
// update matched a row.
func (r *offerRepository) transition(ctx context.Context, note *model.Message, update func(tx *gorm.DB) *gorm.DB) (bool, error) {
	var moved bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := update(tx)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		moved = true
		if note == nil {
			return nil
		}
		return tx.Create(note).Error
	})
	if err != nil {
		return false, err
	}
	return moved, nil
}

func (r *offerRepository) FindByID(ctx context.Context, id uint64) (*model.Offer, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var o model.Offer
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *offerRepository) FindPending(ctx context.Context, convID uint64) (*model.Offer, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var o model.Offer
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND status = ?", convID, model.OfferStatusPending).
		Order("created_at DESC, id DESC").
		Take(&o).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *offerRepository) FindLatest(ctx context.Context, convID uint64) (*model.Offer, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var o model.Offer
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at DESC, id DESC").
		Take(&o).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *offerRepository) AcceptedPaymentInfo(ctx context.Context, convID uint64) (string, bool, error) {
	if r.db == nil {
		return "", false, ErrDBNotReady
	}
	var infos []string
	if err := r.db.WithContext(ctx).
		Table("offers o").
		Joins("JOIN listings l ON l.id = o.listing_id").
		Joins("JOIN users u ON u.id = l.seller_id").
		Where("o.conversation_id = ? AND o.status = ?", convID, model.OfferStatusAccepted).
		Limit(1).
		Pluck("u.payment_info", &infos).Error; err != nil {
		return "", false, err
	}
	if len(infos) == 0 {
		return "", false, nil
	}
	return infos[0], true, nil
}
