package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/shinyyama/marketplace-backend/internal/ai"
	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImages struct {
	saved []string
	err   error
}

func (f *fakeImages) Save(_ context.Context, contentType string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, _ := io.ReadAll(r)
	f.saved = append(f.saved, string(b))
	return "https://cdn.example.com/listings/" + strings.TrimPrefix(contentType, "image/"), nil
}

type fakeSuggester struct {
	got ai.ListingDraft
}

func (f *fakeSuggester) SuggestPrice(_ context.Context, d ai.ListingDraft) (decimal.Decimal, error) {
	f.got = d
	return decimal.NewFromInt(55), nil
}

func validInput() ListingInput {
	return ListingInput{
		Title:       " Desk lamp ",
		Description: "Warm light",
		Price:       "$1,020.5",
		Category:    "Home",
		Condition:   "like_new",
		Location:    "Portland",
	}
}

func TestCatalogService_Create(t *testing.T) {
	f := newFixture(t)
	images := &fakeImages{}
	svc := NewCatalogService(f.listings, f.users, images, nil, f.clock.Now)

	l, err := svc.Create(f.ctx, f.seller.ID, validInput(), &ImageUpload{ContentType: "image/png", Body: strings.NewReader("png")})
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", l.Title)
	assert.Equal(t, "1020.50", l.Price.StringFixed(2))
	assert.Equal(t, model.ConditionLikeNew, l.Condition)
	assert.Equal(t, model.ListingStatusActive, l.Status)
	require.NotNil(t, l.ImageURL)
	assert.Equal(t, "https://cdn.example.com/listings/png", *l.ImageURL)
	assert.Equal(t, []string{"png"}, images.saved)
}

func TestCatalogService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.listings, f.users, nil, nil, f.clock.Now)

	tests := []struct {
		name   string
		mutate func(*ListingInput)
	}{
		{"missing title", func(in *ListingInput) { in.Title = "  " }},
		{"long title", func(in *ListingInput) { in.Title = strings.Repeat("x", 121) }},
		{"missing description", func(in *ListingInput) { in.Description = "" }},
		{"missing category", func(in *ListingInput) { in.Category = "" }},
		{"bad condition", func(in *ListingInput) { in.Condition = "mint" }},
		{"zero price", func(in *ListingInput) { in.Price = "0" }},
		{"text price", func(in *ListingInput) { in.Price = "cheap" }},
		{"price beyond column range", func(in *ListingInput) { in.Price = "1e20" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := svc.Create(f.ctx, f.seller.ID, in, nil)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := svc.Create(f.ctx, f.seller.ID, validInput(), &ImageUpload{ContentType: "image/png", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrInvalidInput, "uploads disabled without a store")

	bad := NewCatalogService(f.listings, f.users, &fakeImages{err: storage.ErrUnsupportedImage}, nil, f.clock.Now)
	_, err = bad.Create(f.ctx, f.seller.ID, validInput(), &ImageUpload{ContentType: "text/plain", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	broken := NewCatalogService(f.listings, f.users, &fakeImages{err: errors.New("bucket down")}, nil, f.clock.Now)
	_, err = broken.Create(f.ctx, f.seller.ID, validInput(), &ImageUpload{ContentType: "image/png", Body: strings.NewReader("x")})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}

func TestCatalogService_OwnerOnlyTransitions(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.listings, f.users, nil, nil, f.clock.Now)

	_, err := svc.Update(f.ctx, f.listing.ID, f.buyer.ID, validInput(), nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.MarkSold(f.ctx, f.listing.ID, f.buyer.ID), ErrNotFound)
	assert.ErrorIs(t, svc.Remove(f.ctx, f.listing.ID, f.buyer.ID), ErrNotFound)

	updated, err := svc.Update(f.ctx, f.listing.ID, f.seller.ID, validInput(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", updated.Title)

	require.NoError(t, svc.MarkSold(f.ctx, f.listing.ID, f.seller.ID))
	detail, err := svc.Get(f.ctx, f.listing.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ListingStatusSold, detail.Listing.Status)

	require.NoError(t, svc.Remove(f.ctx, f.listing.ID, f.seller.ID))
	_, err = svc.Get(f.ctx, f.listing.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogService_Search(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.listings, f.users, nil, nil, f.clock.Now)

	mk := func(title, price, category string, cond model.Condition) *model.Listing {
		in := ListingInput{Title: title, Description: "d", Price: price, Category: category, Condition: string(cond)}
		l, err := svc.Create(f.ctx, f.seller.ID, in, nil)
		require.NoError(t, err)
		return l
	}
	chair := mk("Oak chair", "30", "Home", model.ConditionGood)
	sofa := mk("Green sofa", "250", "Home", model.ConditionFair)
	guitar := mk("Guitar", "120", "Music", model.ConditionGood)
	gone := mk("Old chair", "10", "Home", model.ConditionPoor)
	require.NoError(t, svc.Remove(f.ctx, gone.ID, f.seller.ID))

	tests := []struct {
		name    string
		params  SearchParams
		wantIDs []uint64
	}{
		{"query matches title", SearchParams{Query: "chair"}, []uint64{chair.ID}},
		{"category price asc", SearchParams{Category: "Home", Sort: "price_asc"}, []uint64{chair.ID, sofa.ID}},
		{"category price desc", SearchParams{Category: "Home", Sort: "price_desc"}, []uint64{sofa.ID, chair.ID}},
		{"condition", SearchParams{Condition: "fair"}, []uint64{sofa.ID}},
		{"price range", SearchParams{MinPrice: "$110", MaxPrice: "200"}, []uint64{guitar.ID}},
		{"limit", SearchParams{Category: "Home", Sort: "price_asc", Limit: 1}, []uint64{chair.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Search(f.ctx, tt.params)
			require.NoError(t, err)
			var ids []uint64
			for _, l := range res.Listings {
				ids = append(ids, l.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	_, err := svc.Search(f.ctx, SearchParams{Condition: "mint"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	cats, err := svc.Categories(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryCount{{Category: "Home", Count: 2}, {Category: "Music", Count: 1}, {Category: "Sports", Count: 1}}, cats)
}

func TestCatalogService_SuggestPrice(t *testing.T) {
	f := newFixture(t)

	_, err := NewCatalogService(f.listings, f.users, nil, nil, f.clock.Now).SuggestPrice(f.ctx, validInput())
	assert.ErrorIs(t, err, ErrAssistantDisabled)

	sug := &fakeSuggester{}
	svc := NewCatalogService(f.listings, f.users, nil, sug, f.clock.Now)
	price, err := svc.SuggestPrice(f.ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, "55", price.String())
	assert.Equal(t, "Desk lamp", sug.got.Title)

	_, err = svc.SuggestPrice(f.ctx, ListingInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
