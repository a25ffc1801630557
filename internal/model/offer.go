package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "pending"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusRejected  OfferStatus = "rejected"
	OfferStatusCancelled OfferStatus = "cancelled"
)

func (s OfferStatus) Terminal() bool {
	return s == OfferStatusAccepted || s == OfferStatusRejected || s == OfferStatusCancelled
}

type Offer struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID      uint64          `gorm:"column:listing_id;not null;index:idx_offer_listing_buyer,priority:1" json:"listingId"`
	ConversationID uint64          `gorm:"column:conversation_id;not null;index" json:"conversationId"`
	BuyerID        uint64          `gorm:"column:buyer_id;not null;index:idx_offer_listing_buyer,priority:2" json:"buyerId"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status         OfferStatus     `gorm:"size:16;not null;index:idx_offer_listing_buyer,priority:3" json:"status"`
	CreatedAt      time.Time       `gorm:"type:datetime(6)" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"type:datetime(6)" json:"updatedAt"`
}

func (Offer) TableName() string {
	return "offers"
}
