package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ListingStatus string

const (
	ListingStatusActive  ListingStatus = "active"
	ListingStatusSold    ListingStatus = "sold"
	ListingStatusRemoved ListingStatus = "removed"
)

type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionPoor    Condition = "poor"
)

var Conditions = []Condition{ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor}

func (c Condition) Valid() bool {
	for _, v := range Conditions {
		if c == v {
			return true
		}
	}
	return false
}

type Listing struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID    uint64          `gorm:"column:seller_id;index;not null" json:"sellerId"`
	Title       string          `gorm:"size:120;not null" json:"title"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Category    string          `gorm:"size:64;index;not null" json:"category"`
	Condition   Condition       `gorm:"size:16;not null" json:"condition"`
	Location    string          `gorm:"size:120" json:"location"`
	ImageURL    *string         `gorm:"column:image_url;size:512" json:"imageUrl,omitempty"`
	Status      ListingStatus   `gorm:"size:16;index;not null;default:active" json:"status"`
	CreatedAt   time.Time       `gorm:"type:datetime(6)" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"type:datetime(6)" json:"updatedAt"`
}

func (Listing) TableName() string {
	return "listings"
}

type ListingSort string

const (
	SortNewest    ListingSort = "newest"
	SortPriceAsc  ListingSort = "price_asc"
	SortPriceDesc ListingSort = "price_desc"
)

// ListingFilter narrows a catalog search. Zero values mean "any".
type ListingFilter struct {
	Query     string
	Category  string
	Condition Condition
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	Sort      ListingSort
	Limit     int
	Offset    int
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}
