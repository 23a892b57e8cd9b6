package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/db/models"
)

const defaultTTL = 24 * time.Hour

// Options configure a Service.
type Options struct {
	// Secret signs tokens with HMAC-SHA256.
	Secret string
	// TTL is the lifetime of API tokens.
	TTL time.Duration
	// Issuer is written to and required in every token.
	Issuer string
	// Revocations keeps the IDs of logged-out tokens. Nil disables logout revocation.
	Revocations fiber.Storage
}

// Service provides authentication and authorization functionality.
type Service struct {
	db          *gorm.DB
	users       *LocalProvider
	secret      []byte
	ttl         time.Duration
	issuer      string
	revocations fiber.Storage
	now         func() time.Time
}

// NewService creates a new auth service.
func NewService(db *gorm.DB, opts Options) (*Service, error) {
	if opts.Secret == "" {
		return nil, ErrSecretEmpty
	}

	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}

	return &Service{
		db:          db,
		users:       NewLocalProvider(db),
		secret:      []byte(opts.Secret),
		ttl:         opts.TTL,
		issuer:      opts.Issuer,
		revocations: opts.Revocations,
		now:         time.Now,
	}, nil
}

// Users returns the local user provider.
func (s *Service) Users() *LocalProvider {
	return s.users
}

// Login checks the credentials and issues a token for the user.
func (s *Service) Login(email, password string) (*models.User, string, error) {
	user, err := s.users.Authenticate(email, password)
	if err != nil {
		return nil, "", err
	}

	token, _, err := s.Issue(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Authenticate validates an API token and loads its user. The user is read
// from the database on every call so that role edits apply immediately.
func (s *Service) Authenticate(token string) (*models.User, *Claims, error) {
	claims, err := s.Parse(token, AudienceAPI)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.users.GetUserByID(claims.Subject)
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil, fmt.Errorf("%w: user no longer exists", ErrTokenInvalid)
	}

	if err != nil {
		return nil, nil, err
	}

	return user, claims, nil
}
