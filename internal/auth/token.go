package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/configurator-admin/configurator-admin/internal/db/models"
)

// Token audiences.
const (
	AudienceAPI           = "api"
	AudienceEmbed         = "embed"
	AudiencePasswordReset = "password-reset"
)

const revokedPrefix = "revoked:"

// Claims are carried by every token. Subject holds the user ID for API and
// password reset tokens and the model ID for embed tokens.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (s *Service) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

func (s *Service) newClaims(subject, audience string, ttl time.Duration) *Claims {
	now := s.now()

	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// Issue creates an API token for user.
func (s *Service) Issue(user *models.User) (string, *Claims, error) {
	claims := s.newClaims(user.ID, AudienceAPI, s.ttl)
	claims.Role = string(user.Role)

	signed, err := s.sign(claims)
	if err != nil {
		return "", nil, err
	}

	return signed, claims, nil
}

// IssueEmbed creates a token granting anonymous access to one model.
func (s *Service) IssueEmbed(modelID string, ttl time.Duration) (string, *Claims, error) {
	claims := s.newClaims(modelID, AudienceEmbed, ttl)

	signed, err := s.sign(claims)
	if err != nil {
		return "", nil, err
	}

	return signed, claims, nil
}

// IssuePasswordReset creates a token that lets its holder set a new password
// for userID. The reset handler revokes it on use.
func (s *Service) IssuePasswordReset(userID string, ttl time.Duration) (string, *Claims, error) {
	claims := s.newClaims(userID, AudiencePasswordReset, ttl)

	signed, err := s.sign(claims)
	if err != nil {
		return "", nil, err
	}

	return signed, claims, nil
}

// Parse validates tokenString for audience and returns its claims. Revoked
// tokens are rejected with ErrTokenRevoked.
func (s *Service) Parse(tokenString, audience string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(_ *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrTokenInvalid
	}

	if s.revocations != nil {
		v, err := s.revocations.Get(revokedPrefix + claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}

		if v != nil {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}

// Revoke marks the token as unusable until it expires.
func (s *Service) Revoke(claims *Claims) error {
	if s.revocations == nil {
		return nil
	}

	if claims == nil || claims.ID == "" {
		return ErrTokenInvalid
	}

	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}

	if ttl <= 0 {
		return nil
	}

	return s.revocations.Set(revokedPrefix+claims.ID, []byte("1"), ttl)
}

// IsInvalid reports whether err came from token validation rather than storage.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrTokenInvalid) || errors.Is(err, ErrTokenRevoked) || errors.Is(err, ErrTokenMissing)
}
