package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionTokenBytes = 48

// GenerateSessionToken returns an unguessable opaque token together with the
// SHA-256 hash under which it is persisted. The plaintext token only ever
// travels in the cookie.
func GenerateSessionToken() (string, []byte, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("generate session token: %w", err)
	}

	token := base64.RawURLEncoding.EncodeToString(buf)
	return token, HashSessionToken(token), nil
}

func HashSessionToken(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}

type VerificationClaims struct {
	jwt.RegisteredClaims
}

// GenerateVerificationToken issues the signed token mailed out after
// registration. Subject is the user id; ID is a one-time nonce checked
// against redis on redemption.
func GenerateVerificationToken(secret string, userID string, nonce string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := VerificationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   userID,
			ID:        nonce,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign verification token: %w", err)
	}
	return signed, nil
}

func ParseVerificationToken(tokenStr string, secret string) (*VerificationClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &VerificationClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*VerificationClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid verification token")
}
