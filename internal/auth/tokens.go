package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"pantrypal/internal/config"
	"pantrypal/internal/services"
)

// DefaultTTL is the lifetime of tokens issued without an explicit TTL.
const DefaultTTL = 2 * time.Hour

type userClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens that carry the owner id.
type Tokens struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// New builds a token service from the auth settings.
func New(cfg config.Auth) (*Tokens, error) {
	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		return nil, services.Wrap(services.ErrConfiguration, "auth", "init", "jwt secret required", nil)
	}
	return &Tokens{secret: []byte(secret), issuer: strings.TrimSpace(cfg.Issuer), now: time.Now}, nil
}

// Issue signs a token for userID valid for ttl (DefaultTTL when ttl <= 0).
func (t *Tokens) Issue(userID string, ttl time.Duration) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", services.Wrap(services.ErrValidation, "auth", "issue", "user id required", nil)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := t.now()
	claims := userClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates token and returns the owner id it carries.
func (t *Tokens) Verify(token string) (string, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return "", services.Wrap(services.ErrUnauthorized, "auth", "verify", "missing token", nil)
	}
	claims := &userClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, claims, t.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", services.Wrap(services.ErrUnauthorized, "auth", "verify", "token expired", nil)
		}
		return "", services.Wrap(services.ErrUnauthorized, "auth", "verify", "invalid token", err)
	}
	if !parsed.Valid {
		return "", services.Wrap(services.ErrUnauthorized, "auth", "verify", "invalid token", nil)
	}
	if t.issuer != "" && !claims.VerifyIssuer(t.issuer, true) {
		return "", services.Wrap(services.ErrUnauthorized, "auth", "verify", "unexpected issuer", nil)
	}
	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return "", services.Wrap(services.ErrUnauthorized, "auth", "verify", "token carries no user", nil)
	}
	return userID, nil
}

func (t *Tokens) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return t.secret, nil
}
