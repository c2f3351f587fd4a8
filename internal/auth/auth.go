// Package auth implements the authentication boundary: bcrypt password
// hashing, JWT access tokens and the middleware that resolves a Bearer token
// into a policy.Actor. Everything past this package receives an already
// verified actor and never parses credentials itself.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/diewo77/impacttracker/internal/models"
	"github.com/diewo77/impacttracker/internal/policy"
)

const bcryptCost = 12

// HashPassword hashes a plaintext password for storage.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether plain matches the stored hash.
func CheckPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Claims is the JWT payload: the user id as subject plus their role. The
// role in the token fixes the capability set for the token's lifetime.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies signed access tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed access token for the user.
func (t *Tokens) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(t.secret)
}

// Verify parses and validates a token, returning the actor it encodes.
func (t *Tokens) Verify(raw string) (policy.Actor, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !tok.Valid {
		return policy.Actor{}, fmt.Errorf("invalid token")
	}
	var uid uint
	if _, err := fmt.Sscanf(claims.Subject, "%d", &uid); err != nil || uid == 0 {
		return policy.Actor{}, fmt.Errorf("invalid subject")
	}
	if !claims.Role.Valid() {
		return policy.Actor{}, fmt.Errorf("invalid role")
	}
	return policy.Actor{ID: uid, Role: claims.Role}, nil
}

type ctxKey string

const actorCtxKey = ctxKey("actor")

// WithActor stores the resolved actor in the request context.
func WithActor(ctx context.Context, actor policy.Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey, actor)
}

// ActorFromContext extracts the actor placed by the middleware.
func ActorFromContext(ctx context.Context) (policy.Actor, bool) {
	v := ctx.Value(actorCtxKey)
	if v == nil {
		return policy.Actor{}, false
	}
	actor, ok := v.(policy.Actor)
	return actor, ok && actor.ID != 0
}
