package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/repository"
	"github.com/shopspring/decimal"
)

type listingRepository struct{ s *Store }

func NewListingRepository(s *Store) repository.ListingRepository {
	return &listingRepository{s: s}
}

func (r *listingRepository) Create(_ context.Context, l *model.Listing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l.ID = r.s.id()
	if l.Status == "" {
		l.Status = model.ListingStatusActive
	}
	l.CreatedAt = r.s.stamp(l.CreatedAt)
	l.UpdatedAt = l.CreatedAt
	cp := *l
	r.s.listings[l.ID] = &cp
	return nil
}

func (r *listingRepository) FindByID(_ context.Context, id uint64) (*model.Listing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.listings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *listingRepository) UpdateOwned(_ context.Context, id, sellerID uint64, fields map[string]interface{}) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.listings[id]
	if !ok || l.SellerID != sellerID {
		return false, nil
	}
	cp := *l
	for k, v := range fields {
		if err := setListingField(&cp, k, v); err != nil {
			return false, err
		}
	}
	cp.UpdatedAt = r.s.now().UTC()
	r.s.listings[id] = &cp
	return true, nil
}

func setListingField(l *model.Listing, key string, v interface{}) error {
	var ok bool
	switch key {
	case "title":
		l.Title, ok = v.(string)
	case "description":
		l.Description, ok = v.(string)
	case "category":
		l.Category, ok = v.(string)
	case "location":
		l.Location, ok = v.(string)
	case "condition":
		l.Condition, ok = v.(model.Condition)
	case "price":
		l.Price, ok = v.(decimal.Decimal)
	case "image_url":
		l.ImageURL, ok = v.(*string)
	case "status":
		l.Status, ok = v.(model.ListingStatus)
	}
	if !ok {
		return fmt.Errorf("memory: unsupported listing field %q (%T)", key, v)
	}
	return nil
}

func (r *listingRepository) SetStatusOwned(_ context.Context, id, sellerID uint64, status model.ListingStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.listings[id]
	if !ok || l.SellerID != sellerID {
		return false, nil
	}
	l.Status = status
	l.UpdatedAt = r.s.now().UTC()
	return true, nil
}

func (r *listingRepository) Search(_ context.Context, f model.ListingFilter) ([]model.Listing, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q := strings.ToLower(f.Query)
	var matched []model.Listing
	for _, l := range r.s.listings {
		if l.Status != model.ListingStatusActive {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(l.Title), q) && !strings.Contains(strings.ToLower(l.Description), q) {
			continue
		}
		if f.Category != "" && l.Category != f.Category {
			continue
		}
		if f.Condition != "" && l.Condition != f.Condition {
			continue
		}
		if f.MinPrice != nil && l.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && l.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		matched = append(matched, *l)
	}
	sortListings(matched, f.Sort)

	total := int64(len(matched))
	if f.Offset >= len(matched) {
		return []model.Listing{}, total, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func sortListings(list []model.Listing, by model.ListingSort) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		switch by {
		case model.SortPriceAsc:
			if !a.Price.Equal(b.Price) {
				return a.Price.LessThan(b.Price)
			}
			return a.ID > b.ID
		case model.SortPriceDesc:
			if !a.Price.Equal(b.Price) {
				return a.Price.GreaterThan(b.Price)
			}
			return a.ID > b.ID
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

func (r *listingRepository) ListBySeller(_ context.Context, sellerID uint64, includeInactive bool) ([]model.Listing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []model.Listing
	for _, l := range r.s.listings {
		if l.SellerID != sellerID {
			continue
		}
		if includeInactive && l.Status == model.ListingStatusRemoved {
			continue
		}
		if !includeInactive && l.Status != model.ListingStatusActive {
			continue
		}
		list = append(list, *l)
	}
	sortListings(list, model.SortNewest)
	return list, nil
}

func (r *listingRepository) Categories(_ context.Context) ([]model.CategoryCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := map[string]int64{}
	for _, l := range r.s.listings {
		if l.Status == model.ListingStatusActive {
			counts[l.Category]++
		}
	}
	out := make([]model.CategoryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, model.CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}
