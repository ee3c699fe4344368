// Package jwt issues and verifies the bearer tokens handed out at login and
// registration. Tokens are HS256-signed and carry the user id as subject.
package jwt

import (
	"time"
)

// Maker issues and parses access tokens.
type Maker interface {
	// GenerateToken signs a token for the given user.
	GenerateToken(userID, email string) (string, error)
	// ParseToken verifies the signature and expiry and returns the claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl signs tokens with a shared secret and a fixed lifetime.
type MakerImpl struct {
	secretKey string        // HMAC secret
	tokenTTL  time.Duration // token lifetime
}

// NewJWTMaker returns a Maker bound to secretKey and ttl.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
