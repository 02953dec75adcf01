package server

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// connectClaims bind a socket token to one seat in one match.
type connectClaims struct {
	MatchID  string `json:"match"`
	PlayerID string `json:"player"`
	jwt.RegisteredClaims
}

func issueToken(secret []byte, matchID, playerID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := connectClaims{
		MatchID:  matchID,
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseToken(secret []byte, token string) (matchID, playerID string, err error) {
	claims := &connectClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", "", err
	}
	if !parsed.Valid || claims.MatchID == "" || claims.PlayerID == "" {
		return "", "", fmt.Errorf("bad token")
	}
	return claims.MatchID, claims.PlayerID, nil
}
