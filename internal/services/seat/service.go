package seat

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"github.com/mcoot/tworoomsboom/internal/dependencies/clock"
	"github.com/mcoot/tworoomsboom/internal/model"
)

const (
	issuer     = "tworoomsboom"
	audience   = "tworoomsboom/seat"
	keyContext = "tworoomsboom seat token v1"
)

// Seat binds a client to one player key in one session
type Seat struct {
	Token     string
	PIN       model.PIN
	PlayerKey model.PlayerKey
	ExpiresAt time.Time
}

// IsCreator reports whether the seat belongs to the session creator
func (s *Seat) IsCreator() bool {
	return s.PlayerKey.IsCreator()
}

// Claims is the JWT payload of a seat token
type Claims struct {
	PIN       string `json:"pin"`
	PlayerKey string `json:"player_key"`
	jwt.RegisteredClaims
}

// Config holds configuration for the seat service
type Config struct {
	// Secret is stretched into the HMAC signing key. An empty secret gets a
	// random one, which invalidates tokens across restarts.
	Secret   string
	TokenTTL time.Duration
}

// DefaultConfig returns default seat configuration
func DefaultConfig() Config {
	return Config{
		TokenTTL: 24 * time.Hour,
	}
}

// Service issues and validates seat tokens
type Service struct {
	clock    clock.Clock
	key      []byte
	tokenTTL time.Duration
}

// New creates a new seat Service
func New(clock clock.Clock, cfg Config) (*Service, error) {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = DefaultConfig().TokenTTL
	}

	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate seat secret: %w", err)
		}
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(keyContext)), key); err != nil {
		return nil, fmt.Errorf("derive seat key: %w", err)
	}

	return &Service{
		clock:    clock,
		key:      key,
		tokenTTL: cfg.TokenTTL,
	}, nil
}

// Issue signs a new seat token for a player in a session
func (s *Service) Issue(pin model.PIN, key model.PlayerKey) (*Seat, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.tokenTTL)

	claims := Claims{
		PIN:       string(pin),
		PlayerKey: string(key),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			Subject:   fmt.Sprintf("%s/%s", pin, key),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return nil, err
	}

	return &Seat{
		Token:     token,
		PIN:       pin,
		PlayerKey: key,
		ExpiresAt: time.Unix(expiresAt.Unix(), 0).UTC(),
	}, nil
}

// Validate checks a token's signature, issuer and audience, and its expiry
// against the service clock
func (s *Service) Validate(token string) (*Seat, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	})
	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidSeat, verr.Inner)
		}
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidSeat, err)
	}

	if !claims.VerifyIssuer(issuer, true) || !claims.VerifyAudience(audience, true) {
		return nil, model.ErrInvalidSeat
	}
	if claims.PIN == "" || claims.PlayerKey == "" {
		return nil, model.ErrInvalidSeat
	}
	if !claims.VerifyExpiresAt(s.clock.Now(), true) {
		return nil, model.ErrSeatExpired
	}

	return &Seat{
		Token:     token,
		PIN:       model.PIN(claims.PIN),
		PlayerKey: model.PlayerKey(claims.PlayerKey),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}
