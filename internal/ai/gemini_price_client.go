package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shinyyama/marketplace-backend/internal/reqctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const pricePrompt = `You estimate fair second-hand prices for a peer-to-peer marketplace.
From the listing below, estimate one asking price in US dollars that would sell within a week.
Answer with the number only, wrapped in dollar signs, for example: $45$
No explanation, no ranges, no currency words.`

// ListingDraft is what the seller has typed so far.
type ListingDraft struct {
	Title       string
	Description string
	Category    string
	Condition   string
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type PriceClient struct {
	model string
	gen   contentGenerator
	log   *zap.Logger
}

func NewPriceClient(ctx context.Context, apiKey, model string, log *zap.Logger) (*PriceClient, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return newPriceClient(client.Models, model, log), nil
}

func newPriceClient(gen contentGenerator, model string, log *zap.Logger) *PriceClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &PriceClient{model: model, gen: gen, log: log}
}

// SuggestPrice asks Gemini for an asking price for the draft.
func (c *PriceClient) SuggestPrice(ctx context.Context, d ListingDraft) (decimal.Decimal, error) {
	log := c.log.With(reqctx.Fields(ctx)...).With(zap.String("model", c.model))
	start := time.Now()

	parts := []*genai.Part{
		genai.NewPartFromText(pricePrompt),
		genai.NewPartFromText(fmt.Sprintf("Title: %s\nCategory: %s\nCondition: %s\nDescription: %s",
			d.Title, d.Category, d.Condition, d.Description)),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	temp := float32(0)
	config := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	res, err := c.gen.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		log.Warn("gemini generate failed", zap.Error(err))
		return decimal.Zero, fmt.Errorf("gemini generate: %w", err)
	}
	rawText := res.Text()
	price, err := ParsePrice(rawText)
	if err != nil {
		text := strings.ReplaceAll(rawText, "\n", " ")
		if len(text) > 80 {
			text = text[:80]
		}
		log.Warn("price parse failed", zap.String("text", text), zap.Error(err))
		return decimal.Zero, err
	}
	log.Info("price suggested",
		zap.String("price", price.StringFixed(2)),
		zap.Int64("ms", time.Since(start).Milliseconds()),
	)
	return price, nil
}
