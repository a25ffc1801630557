package server

import (
	"github.com/shinyyama/marketplace-backend/internal/auth"
	"github.com/shinyyama/marketplace-backend/internal/config"
	"github.com/shinyyama/marketplace-backend/internal/repository"
	"github.com/shinyyama/marketplace-backend/internal/repository/memory"
	"github.com/shinyyama/marketplace-backend/internal/service"
	"github.com/shinyyama/marketplace-backend/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories is one storage backend.
type Repositories struct {
	Users         repository.UserRepository
	Sessions      repository.SessionRepository
	Listings      repository.ListingRepository
	Conversations repository.ConversationRepository
	Messages      repository.MessageRepository
	Offers        repository.OfferRepository
}

func MySQLRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:         repository.NewUserRepository(db),
		Sessions:      repository.NewSessionRepository(db),
		Listings:      repository.NewListingRepository(db),
		Conversations: repository.NewConversationRepository(db),
		Messages:      repository.NewMessageRepository(db),
		Offers:        repository.NewOfferRepository(db),
	}
}

func MemoryRepositories(s *memory.Store) Repositories {
	return Repositories{
		Users:         memory.NewUserRepository(s),
		Sessions:      memory.NewSessionRepository(s),
		Listings:      memory.NewListingRepository(s),
		Conversations: memory.NewConversationRepository(s),
		Messages:      memory.NewMessageRepository(s),
		Offers:        memory.NewOfferRepository(s),
	}
}

// Options carries the optional integrations. Nil fields disable them.
type Options struct {
	Images    storage.ImageStore
	Suggester service.PriceSuggester
	Verifier  auth.TokenVerifier
	Clock     service.Clock
}

type Services struct {
	Gateway       *auth.Gateway
	Identity      service.IdentityService
	Catalog       service.CatalogService
	Conversations service.ConversationService
	Ledger        service.LedgerService
	Negotiation   service.NegotiationService
}

func NewServices(cfg *config.Config, repos Repositories, opts Options, log *zap.Logger) *Services {
	var gwOpts []auth.Option
	if opts.Verifier != nil {
		gwOpts = append(gwOpts, auth.WithTokenVerifier(opts.Verifier))
	}
	if opts.Clock != nil {
		gwOpts = append(gwOpts, auth.WithClock(opts.Clock))
	}
	gw := auth.NewGateway(repos.Sessions, repos.Users, cfg.SessionTTL, gwOpts...)

	ledger := service.NewLedgerService(repos.Messages, log, opts.Clock)
	negotiation := service.NewNegotiationService(repos.Offers, log, opts.Clock)
	return &Services{
		Gateway:       gw,
		Identity:      service.NewIdentityService(repos.Users, repos.Listings, gw, opts.Clock),
		Catalog:       service.NewCatalogService(repos.Listings, repos.Users, opts.Images, opts.Suggester, opts.Clock),
		Conversations: service.NewConversationService(repos.Conversations, repos.Listings, ledger, negotiation, log),
		Ledger:        ledger,
		Negotiation:   negotiation,
	}
}
