package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/shinyyama/marketplace-backend/internal/config"
	"github.com/shinyyama/marketplace-backend/internal/db"
	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/server"
	"github.com/shinyyama/marketplace-backend/internal/service"
)

const demoPassword = "marketplace-demo"

type seedUser struct {
	Name        string
	Email       string
	Location    string
	PaymentInfo string
}

type seedListing struct {
	Title       string
	Description string
	Price       string
	Category    string
	Condition   model.Condition
}

var (
	demoSeller = seedUser{Name: "Sam Seller", Email: "sam@demo.local", Location: "Portland, OR", PaymentInfo: "Venmo @sam-sells"}
	demoBuyer  = seedUser{Name: "Bea Buyer", Email: "bea@demo.local", Location: "Seattle, WA"}

	demoListings = []seedListing{
		{"Trek road bike", "56cm aluminium frame, new tyres last spring.", "350", "Sports", model.ConditionGood},
		{"Oak dining table", "Seats six. A few marks on the top.", "220", "Home", model.ConditionFair},
		{"Acoustic guitar", "Yamaha FG800 with soft case.", "140", "Music", model.ConditionLikeNew},
		{"Espresso machine", "Single boiler, descaled monthly.", "95.50", "Kitchen", model.ConditionGood},
	}
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.StoreDriver != config.StoreMySQL {
		return errors.New("seed requires STORE_DRIVER=mysql")
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	svcs := server.NewServices(cfg, server.MySQLRepositories(gdb), server.Options{}, nil)

	seller, err := register(ctx, svcs, demoSeller)
	if errors.Is(err, service.ErrEmailTaken) {
		log.Printf("demo users already exist; skipping seed")
		return nil
	}
	if err != nil {
		return err
	}
	buyer, err := register(ctx, svcs, demoBuyer)
	if err != nil {
		return err
	}

	var first *model.Listing
	for _, sl := range demoListings {
		l, err := svcs.Catalog.Create(ctx, seller.ID, service.ListingInput{
			Title:       sl.Title,
			Description: sl.Description,
			Price:       sl.Price,
			Category:    sl.Category,
			Condition:   string(sl.Condition),
			Location:    demoSeller.Location,
		}, nil)
		if err != nil {
			return fmt.Errorf("create listing %q: %w", sl.Title, err)
		}
		if first == nil {
			first = l
		}
	}

	cv, err := svcs.Conversations.Start(ctx, first.ID, buyer.ID)
	if err != nil {
		return fmt.Errorf("start conversation: %w", err)
	}
	if _, _, err := svcs.Ledger.Append(ctx, cv.ID, buyer.ID, "Hi! Is the bike still available?"); err != nil {
		return err
	}
	if _, _, err := svcs.Ledger.Append(ctx, cv.ID, seller.ID, "It is. Happy to answer questions."); err != nil {
		return err
	}
	p, err := svcs.Conversations.Authorize(ctx, buyer.ID, cv.ID)
	if err != nil {
		return err
	}
	if _, _, err := svcs.Negotiation.Propose(ctx, p, "300"); err != nil {
		return fmt.Errorf("propose offer: %w", err)
	}

	log.Printf("seeded %d listings; log in as %s or %s with password %q",
		len(demoListings), demoSeller.Email, demoBuyer.Email, demoPassword)
	return nil
}

func register(ctx context.Context, svcs *server.Services, su seedUser) (*model.User, error) {
	u, _, err := svcs.Identity.Register(ctx, service.RegisterInput{
		Name:            su.Name,
		Email:           su.Email,
		Password:        demoPassword,
		ConfirmPassword: demoPassword,
	})
	if err != nil {
		return nil, err
	}
	return svcs.Identity.UpdateProfile(ctx, u.ID, model.ProfileUpdate{
		Location:    su.Location,
		PaymentInfo: su.PaymentInfo,
	})
}
