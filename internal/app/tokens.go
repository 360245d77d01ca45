package app

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/jsamuelsen/go-chatkit/internal/domain"
)

// DefaultTokenTTL is the lifetime of issued tokens when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// TokenIssuer signs platform access tokens with an instance API key.
// It is safe for concurrent use.
type TokenIssuer struct {
	instanceID string
	keyID      string
	secret     []byte
	ttl        time.Duration
	now        func() time.Time
}

// TokenIssuerOption configures a TokenIssuer.
type TokenIssuerOption func(*TokenIssuer)

// WithTokenTTL overrides DefaultTokenTTL.
func WithTokenTTL(ttl time.Duration) TokenIssuerOption {
	return func(ti *TokenIssuer) {
		if ttl > 0 {
			ti.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for deterministic tokens in tests.
func WithClock(now func() time.Time) TokenIssuerOption {
	return func(ti *TokenIssuer) {
		ti.now = now
	}
}

// NewTokenIssuer parses apiKey ("key_id:key_secret") and returns an issuer
// for the given instance.
func NewTokenIssuer(instanceID, apiKey string, opts ...TokenIssuerOption) (*TokenIssuer, error) {
	if apiKey == "" {
		return nil, domain.NewAPIKeyError("not configured")
	}

	keyID, secret, ok := strings.Cut(apiKey, ":")
	if !ok || keyID == "" || secret == "" {
		return nil, domain.NewAPIKeyError("want key_id:key_secret")
	}

	ti := &TokenIssuer{
		instanceID: instanceID,
		keyID:      keyID,
		secret:     []byte(secret),
		ttl:        DefaultTokenTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(ti)
	}

	return ti, nil
}

// TTL returns the lifetime of issued tokens.
func (ti *TokenIssuer) TTL() time.Duration {
	return ti.ttl
}

// Generate signs an HS256 token. userID becomes the subject when non-empty;
// su grants superuser rights.
func (ti *TokenIssuer) Generate(userID string, su bool) (domain.Token, error) {
	now := ti.now().Unix()
	ttl := int64(ti.ttl / time.Second)

	claims := jwt.MapClaims{
		"instance": ti.instanceID,
		"iss":      "api_keys/" + ti.keyID,
		"iat":      now,
		"exp":      now + ttl,
	}
	if userID != "" {
		claims["sub"] = userID
	}
	if su {
		claims["su"] = true
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return domain.Token{}, err
	}

	return domain.Token{AccessToken: signed, ExpiresIn: ttl}, nil
}

// AuthenticateUser issues a bearer token for a client SDK acting as userID.
func (ti *TokenIssuer) AuthenticateUser(userID string) (domain.AuthToken, error) {
	if userID == "" {
		return domain.AuthToken{}, domain.NewValidationError("user_id", "cannot be empty")
	}

	tok, err := ti.Generate(userID, false)
	if err != nil {
		return domain.AuthToken{}, err
	}

	return domain.AuthToken{
		AccessToken: tok.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   tok.ExpiresIn,
	}, nil
}
