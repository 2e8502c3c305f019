package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// Claims carries the resolved actor inside both access and refresh tokens.
// Customers have no persisted record, so the claims hold everything needed
// to reconstruct the actor without another resolution pass.
type Claims struct {
	ActorID string `json:"actor_id"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

func claimsFor(actor Actor, ttl time.Duration) Claims {
	phone := ""
	if c, ok := actor.(CustomerActor); ok {
		phone = c.Phone
	}
	return Claims{
		ActorID: actor.ActorID(),
		Name:    actor.Name(),
		Phone:   phone,
		Role:    actor.Role(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ActorID(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func GenerateToken(secret string, actor Actor) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claimsFor(actor, accessTokenTTL))
	return token.SignedString([]byte(secret))
}

func GenerateRefreshToken(secret string, actor Actor) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claimsFor(actor, refreshTokenTTL))
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
