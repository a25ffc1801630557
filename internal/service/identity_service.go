package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/repository"
)

const minPasswordLen = 8

var validate = validator.New(validator.WithRequiredStructEnabled())

// Authenticator is the slice of the auth gateway the identity store needs.
type Authenticator interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, storedHash string) bool
	CreateSession(ctx context.Context, userID uint64) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

type PublicProfile struct {
	ID       uint64          `json:"id"`
	Name     string          `json:"name"`
	Location string          `json:"location"`
	Bio      string          `json:"bio"`
	JoinedAt time.Time       `json:"joinedAt"`
	Listings []model.Listing `json:"listings"`
}

type IdentityService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, *model.Session, error)
	Login(ctx context.Context, email, password string) (*model.User, *model.Session, error)
	Logout(ctx context.Context, token string) error
	Get(ctx context.Context, id uint64) (*model.User, error)
	PublicProfile(ctx context.Context, id uint64) (*PublicProfile, error)
	UpdateProfile(ctx context.Context, id uint64, p model.ProfileUpdate) (*model.User, error)
}

type identityService struct {
	users    repository.UserRepository
	listings repository.ListingRepository
	auth     Authenticator
	clock    Clock
}

func NewIdentityService(users repository.UserRepository, listings repository.ListingRepository, auth Authenticator, clock Clock) IdentityService {
	return &identityService{users: users, listings: listings, auth: auth, clock: clock}
}

func (s *identityService) Register(ctx context.Context, in RegisterInput) (*model.User, *model.Session, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" {
		return nil, nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, nil, fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLen {
		return nil, nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	if in.Password != in.ConfirmPassword {
		return nil, nil, fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}
	hash, err := s.auth.Hash(in.Password)
	if err != nil {
		return nil, nil, err
	}
	now := s.clock.now()
	u := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, err
	}
	sess, err := s.auth.CreateSession(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, sess, nil
}

func (s *identityService) Login(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !s.auth.Verify(password, u.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}
	sess, err := s.auth.CreateSession(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, sess, nil
}

func (s *identityService) Logout(ctx context.Context, token string) error {
	return s.auth.DeleteSession(ctx, token)
}

func (s *identityService) Get(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (s *identityService) PublicProfile(ctx context.Context, id uint64) (*PublicProfile, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	listings, err := s.listings.ListBySeller(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if listings == nil {
		listings = []model.Listing{}
	}
	return &PublicProfile{
		ID:       u.ID,
		Name:     u.Name,
		Location: u.Location,
		Bio:      u.Bio,
		JoinedAt: u.CreatedAt,
		Listings: listings,
	}, nil
}

func (s *identityService) UpdateProfile(ctx context.Context, id uint64, p model.ProfileUpdate) (*model.User, error) {
	p.Location = strings.TrimSpace(p.Location)
	p.Bio = strings.TrimSpace(p.Bio)
	p.PaymentInfo = strings.TrimSpace(p.PaymentInfo)
	if err := s.users.UpdateProfile(ctx, id, p); err != nil {
		return nil, notFound(err)
	}
	return s.Get(ctx, id)
}
