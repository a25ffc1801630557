package model

import "time"

// Conversation is the thread between one buyer and the seller of one listing.
// SellerID is captured when the thread is created and never re-derived.
type Conversation struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID uint64    `gorm:"column:listing_id;not null;index:idx_listing_buyer,unique" json:"listingId"`
	BuyerID   uint64    `gorm:"column:buyer_id;not null;index:idx_listing_buyer,unique;index" json:"buyerId"`
	SellerID  uint64    `gorm:"column:seller_id;not null;index" json:"sellerId"`
	CreatedAt time.Time `gorm:"type:datetime(6)" json:"createdAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func (c *Conversation) HasParticipant(userID uint64) bool {
	return userID != 0 && (c.BuyerID == userID || c.SellerID == userID)
}

// ConversationSummary is one inbox row.
type ConversationSummary struct {
	ID              uint64    `json:"id"`
	ListingID       uint64    `json:"listingId"`
	BuyerID         uint64    `json:"buyerId"`
	SellerID        uint64    `json:"sellerId"`
	ListingTitle    string    `json:"listingTitle"`
	ListingImageURL *string   `json:"listingImageUrl,omitempty"`
	CounterpartName string    `json:"counterpartName"`
	LastMessage     *string   `json:"lastMessage,omitempty"`
	LastActivityAt  time.Time `json:"lastActivityAt"`
	UnreadCount     int64     `json:"unreadCount"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ConversationDetail is a conversation joined with its listing and participants.
type ConversationDetail struct {
	Conversation
	ListingTitle    string  `json:"listingTitle"`
	ListingImageURL *string `json:"listingImageUrl,omitempty"`
	ListingPrice    string  `json:"listingPrice"`
	ListingStatus   string  `json:"listingStatus"`
	BuyerName       string  `json:"buyerName"`
	SellerName      string  `json:"sellerName"`
}
