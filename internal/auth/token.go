package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/account-service/internal/domain"
)

// TokenKind discriminates the four credential types. The kind is part of the
// signed payload and is checked on every decode, so a token issued for one
// purpose can never be accepted in another verification context.
type TokenKind string

const (
	TokenRegistration   TokenKind = "registration"
	TokenAccess         TokenKind = "access"
	TokenRefresh        TokenKind = "refresh"
	TokenChangePassword TokenKind = "change-password"
)

// TokenPayload is the decoded content of a token. Subject holds a username
// for registration tokens and a user id for the other three kinds.
type TokenPayload struct {
	Kind      TokenKind
	Subject   string
	ExpiresAt time.Time
}

type tokenClaims struct {
	Kind TokenKind `json:"type"`
	jwt.RegisteredClaims
}

// Codec signs and verifies the four token kinds.
type Codec struct {
	secret []byte
}

// NewCodec builds a codec around a server-held symmetric key.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Encode signs a token of the given kind for the subject, expiring after ttl.
func (c *Codec) Encode(kind TokenKind, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &tokenClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Decode verifies signature, expiry, and the kind discriminator. Expiry of an
// otherwise valid token yields domain.ErrTokenExpired; every other failure
// (bad signature, malformed structure, kind mismatch) collapses to
// domain.ErrTokenInvalid so callers cannot probe which check rejected them.
func (c *Codec) Decode(tokenStr string, expected TokenKind) (TokenPayload, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && claims.Kind == expected {
			return TokenPayload{}, domain.ErrTokenExpired
		}
		return TokenPayload{}, domain.ErrTokenInvalid
	}
	if !parsed.Valid || claims.Kind != expected {
		return TokenPayload{}, domain.ErrTokenInvalid
	}

	payload := TokenPayload{
		Kind:    claims.Kind,
		Subject: claims.Subject,
	}
	if claims.ExpiresAt != nil {
		payload.ExpiresAt = claims.ExpiresAt.Time
	}
	return payload, nil
}
