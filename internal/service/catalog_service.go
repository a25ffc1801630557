package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shinyyama/marketplace-backend/internal/ai"
	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/repository"
	"github.com/shinyyama/marketplace-backend/internal/storage"
	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxTitleLen     = 120
)

type ListingInput struct {
	Title       string
	Description string
	Price       string
	Category    string
	Condition   string
	Location    string
}

// ImageUpload is an optional photo attached to a listing write.
type ImageUpload struct {
	ContentType string
	Body        io.Reader
}

type SearchParams struct {
	Query     string
	Category  string
	Condition string
	MinPrice  string
	MaxPrice  string
	Sort      string
	Limit     int
	Offset    int
}

type SearchResult struct {
	Listings []model.Listing `json:"listings"`
	Total    int64           `json:"total"`
}

type ListingDetail struct {
	Listing      *model.Listing  `json:"listing"`
	Seller       *SellerCard     `json:"seller"`
	MoreBySeller []model.Listing `json:"moreBySeller"`
}

// SellerCard is the public part of a seller's profile.
type SellerCard struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// PriceSuggester proposes an asking price for a draft listing.
type PriceSuggester interface {
	SuggestPrice(ctx context.Context, d ai.ListingDraft) (decimal.Decimal, error)
}

type CatalogService interface {
	Create(ctx context.Context, sellerID uint64, in ListingInput, img *ImageUpload) (*model.Listing, error)
	Get(ctx context.Context, id uint64) (*ListingDetail, error)
	Update(ctx context.Context, id, sellerID uint64, in ListingInput, img *ImageUpload) (*model.Listing, error)
	MarkSold(ctx context.Context, id, sellerID uint64) error
	Remove(ctx context.Context, id, sellerID uint64) error
	Search(ctx context.Context, p SearchParams) (*SearchResult, error)
	Categories(ctx context.Context) ([]model.CategoryCount, error)
	BySeller(ctx context.Context, sellerID uint64, includeInactive bool) ([]model.Listing, error)
	SuggestPrice(ctx context.Context, in ListingInput) (decimal.Decimal, error)
}

type catalogService struct {
	listings  repository.ListingRepository
	users     repository.UserRepository
	images    storage.ImageStore
	suggester PriceSuggester
	clock     Clock
}

// NewCatalogService wires the catalog. images and suggester may be nil, which
// disables uploads and price suggestions respectively.
func NewCatalogService(listings repository.ListingRepository, users repository.UserRepository, images storage.ImageStore, suggester PriceSuggester, clock Clock) CatalogService {
	return &catalogService{listings: listings, users: users, images: images, suggester: suggester, clock: clock}
}

type validListing struct {
	title, description, category, location string
	price                                  decimal.Decimal
	condition                              model.Condition
}

func validateListing(in ListingInput) (*validListing, error) {
	v := &validListing{
		title:       strings.TrimSpace(in.Title),
		description: strings.TrimSpace(in.Description),
		category:    strings.TrimSpace(in.Category),
		location:    strings.TrimSpace(in.Location),
		condition:   model.Condition(strings.TrimSpace(in.Condition)),
	}
	if v.title == "" || len(v.title) > maxTitleLen {
		return nil, fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidInput, maxTitleLen)
	}
	if v.description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if v.category == "" {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if !v.condition.Valid() {
		return nil, fmt.Errorf("%w: unknown condition %q", ErrInvalidInput, in.Condition)
	}
	price, ok := ParseAmount(in.Price)
	if !ok {
		return nil, fmt.Errorf("%w: price must be a positive amount", ErrInvalidInput)
	}
	v.price = price
	return v, nil
}

func (s *catalogService) saveImage(ctx context.Context, img *ImageUpload) (*string, error) {
	if img == nil {
		return nil, nil
	}
	if s.images == nil {
		return nil, fmt.Errorf("%w: image uploads are disabled", ErrInvalidInput)
	}
	url, err := s.images.Save(ctx, img.ContentType, img.Body)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) || errors.Is(err, storage.ErrImageTooLarge) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, err
	}
	return &url, nil
}

func (s *catalogService) Create(ctx context.Context, sellerID uint64, in ListingInput, img *ImageUpload) (*model.Listing, error) {
	v, err := validateListing(in)
	if err != nil {
		return nil, err
	}
	imageURL, err := s.saveImage(ctx, img)
	if err != nil {
		return nil, err
	}
	now := s.clock.now()
	l := &model.Listing{
		SellerID:    sellerID,
		Title:       v.title,
		Description: v.description,
		Price:       v.price,
		Category:    v.category,
		Condition:   v.condition,
		Location:    v.location,
		ImageURL:    imageURL,
		Status:      model.ListingStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.listings.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *catalogService) Get(ctx context.Context, id uint64) (*ListingDetail, error) {
	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if l.Status == model.ListingStatusRemoved {
		return nil, ErrNotFound
	}
	seller, err := s.users.FindByID(ctx, l.SellerID)
	if err != nil {
		return nil, notFound(err)
	}
	more, err := s.listings.ListBySeller(ctx, l.SellerID, false)
	if err != nil {
		return nil, err
	}
	others := make([]model.Listing, 0, 4)
	for _, m := range more {
		if m.ID != l.ID && len(others) < 4 {
			others = append(others, m)
		}
	}
	return &ListingDetail{
		Listing:      l,
		Seller:       &SellerCard{ID: seller.ID, Name: seller.Name, Location: seller.Location},
		MoreBySeller: others,
	}, nil
}

func (s *catalogService) Update(ctx context.Context, id, sellerID uint64, in ListingInput, img *ImageUpload) (*model.Listing, error) {
	v, err := validateListing(in)
	if err != nil {
		return nil, err
	}
	imageURL, err := s.saveImage(ctx, img)
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{
		"title":       v.title,
		"description": v.description,
		"price":       v.price,
		"category":    v.category,
		"condition":   v.condition,
		"location":    v.location,
	}
	if imageURL != nil {
		fields["image_url"] = imageURL
	}
	ok, err := s.listings.UpdateOwned(ctx, id, sellerID, fields)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return l, nil
}

func (s *catalogService) MarkSold(ctx context.Context, id, sellerID uint64) error {
	return s.setStatus(ctx, id, sellerID, model.ListingStatusSold)
}

func (s *catalogService) Remove(ctx context.Context, id, sellerID uint64) error {
	return s.setStatus(ctx, id, sellerID, model.ListingStatusRemoved)
}

func (s *catalogService) setStatus(ctx context.Context, id, sellerID uint64, status model.ListingStatus) error {
	ok, err := s.listings.SetStatusOwned(ctx, id, sellerID, status)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *catalogService) Search(ctx context.Context, p SearchParams) (*SearchResult, error) {
	f := model.ListingFilter{
		Query:    strings.TrimSpace(p.Query),
		Category: strings.TrimSpace(p.Category),
		Sort:     model.SortNewest,
		Limit:    p.Limit,
		Offset:   p.Offset,
	}
	if c := model.Condition(strings.TrimSpace(p.Condition)); c != "" {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: unknown condition %q", ErrInvalidInput, p.Condition)
		}
		f.Condition = c
	}
	switch model.ListingSort(p.Sort) {
	case model.SortPriceAsc, model.SortPriceDesc:
		f.Sort = model.ListingSort(p.Sort)
	}
	if p.MinPrice != "" {
		d, ok := ParseAmount(p.MinPrice)
		if !ok {
			return nil, fmt.Errorf("%w: min_price", ErrInvalidInput)
		}
		f.MinPrice = &d
	}
	if p.MaxPrice != "" {
		d, ok := ParseAmount(p.MaxPrice)
		if !ok {
			return nil, fmt.Errorf("%w: max_price", ErrInvalidInput)
		}
		f.MaxPrice = &d
	}
	if f.Limit <= 0 || f.Limit > maxPageSize {
		f.Limit = defaultPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	list, total, err := s.listings.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Listing{}
	}
	return &SearchResult{Listings: list, Total: total}, nil
}

func (s *catalogService) Categories(ctx context.Context) ([]model.CategoryCount, error) {
	return s.listings.Categories(ctx)
}

func (s *catalogService) BySeller(ctx context.Context, sellerID uint64, includeInactive bool) ([]model.Listing, error) {
	return s.listings.ListBySeller(ctx, sellerID, includeInactive)
}

func (s *catalogService) SuggestPrice(ctx context.Context, in ListingInput) (decimal.Decimal, error) {
	if s.suggester == nil {
		return decimal.Zero, ErrAssistantDisabled
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return decimal.Zero, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	return s.suggester.SuggestPrice(ctx, ai.ListingDraft{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Condition:   strings.TrimSpace(in.Condition),
	})
}
