package repository

import (
	"context"
	"strings"

	"github.com/shinyyama/marketplace-backend/internal/model"
	"gorm.io/gorm"
)

type ListingRepository interface {
	Create(ctx context.Context, l *model.Listing) error
	FindByID(ctx context.Context, id uint64) (*model.Listing, error)
	// UpdateOwned applies fields to the listing only when sellerID owns it.
	UpdateOwned(ctx context.Context, id, sellerID uint64, fields map[string]interface{}) (bool, error)
	// SetStatusOwned moves the listing to status only when sellerID owns it.
	SetStatusOwned(ctx context.Context, id, sellerID uint64, status model.ListingStatus) (bool, error)
	Search(ctx context.Context, f model.ListingFilter) ([]model.Listing, int64, error)
	ListBySeller(ctx context.Context, sellerID uint64, includeInactive bool) ([]model.Listing, error)
	Categories(ctx context.Context) ([]model.CategoryCount, error)
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, l *model.Listing) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *listingRepository) FindByID(ctx context.Context, id uint64) (*model.Listing, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var l model.Listing
	if err := r.db.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (r *listingRepository) UpdateOwned(ctx context.Context, id, sellerID uint64, fields map[string]interface{}) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ? AND seller_id = ?", id, sellerID).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *listingRepository) SetStatusOwned(ctx context.Context, id, sellerID uint64, status model.ListingStatus) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ? AND seller_id = ?", id, sellerID).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *listingRepository) Search(ctx context.Context, f model.ListingFilter) ([]model.Listing, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	q := r.db.WithContext(ctx).Model(&model.Listing{}).Where("status = ?", model.ListingStatusActive)
	if f.Query != "" {
		like := "%" + escapeLike(f.Query) + "%"
		q = q.Where("(title LIKE ? OR description LIKE ?)", like, like)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Condition != "" {
		q = q.Where("`condition` = ?", f.Condition)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}

	var (
		list  []model.Listing
		total int64
	)
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order(listingOrder(f.Sort)).
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *listingRepository) ListBySeller(ctx context.Context, sellerID uint64, includeInactive bool) ([]model.Listing, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	q := r.db.WithContext(ctx).Where("seller_id = ?", sellerID)
	if includeInactive {
		q = q.Where("status <> ?", model.ListingStatusRemoved)
	} else {
		q = q.Where("status = ?", model.ListingStatusActive)
	}
	var list []model.Listing
	if err := q.Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *listingRepository) Categories(ctx context.Context) ([]model.CategoryCount, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var out []model.CategoryCount
	if err := r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Select("category, COUNT(*) AS count").
		Where("status = ?", model.ListingStatusActive).
		Group("category").
		Order("category ASC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func listingOrder(s model.ListingSort) string {
	switch s {
	case model.SortPriceAsc:
		return "price ASC, id DESC"
	case model.SortPriceDesc:
		return "price DESC, id DESC"
	}
	return "created_at DESC, id DESC"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
