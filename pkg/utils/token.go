package utils

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// SessionClaims binds a token to one user and one ledger entry.
type SessionClaims struct {
	jwt.RegisteredClaims
}

func (c *SessionClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

func (c *SessionClaims) SessionID() (uuid.UUID, error) {
	return uuid.Parse(c.ID)
}

// IssuedToken is a freshly signed token and the times recorded in it.
type IssuedToken struct {
	Raw       string
	SessionID uuid.UUID
	IssuedAt  time.Time
	ExpiresAt *time.Time
}

// TokenSigner issues and parses HS256 session tokens.
type TokenSigner struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenSigner returns a signer. An expiry of zero issues tokens without
// an exp claim.
func NewTokenSigner(secret string, expiry time.Duration) *TokenSigner {
	return &TokenSigner{secret: []byte(secret), expiry: expiry, now: time.Now}
}

func (s *TokenSigner) Sign(userID uuid.UUID) (*IssuedToken, error) {
	now := s.now()
	issued := &IssuedToken{
		SessionID: uuid.New(),
		IssuedAt:  now,
	}

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID.String(),
			ID:       issued.SessionID.String(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.expiry > 0 {
		exp := now.Add(s.expiry)
		issued.ExpiresAt = &exp
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	issued.Raw = raw
	return issued, nil
}

// Parse checks the signature and the registered time claims.
func (s *TokenSigner) Parse(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuedAt(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return claims, nil
}

// HashToken is the ledger key for a raw token.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}

// TokenFingerprint is safe to log.
func TokenFingerprint(token string) string {
	return HashToken(token)[:12]
}
