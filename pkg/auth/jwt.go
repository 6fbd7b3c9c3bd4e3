package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/eduintel/grader/config"
	"github.com/eduintel/grader/internal"
)

const (
	JwtAlg  = "HS256"
	Subject = "grader"
)

var ErrSecretNotSet = errors.New(
	"auth secret not set. Ensure GRADER_AUTH_SECRET is set in your environment",
)

// GenerateJWT signs a token for API clients. A zero ttl yields a token without expiry.
func GenerateJWT(cfg *config.Config, ttl time.Duration) (string, error) {
	secret := []byte(cfg.Auth.Secret)
	if len(secret) == 0 {
		return "", ErrSecretNotSet
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  Subject,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// JWTVerifier returns middleware that loads and verifies the bearer token. It must be
// followed by jwtauth.Authenticator to reject unauthenticated requests.
func JWTVerifier(cfg *config.Config) func(http.Handler) http.Handler {
	secret := []byte(cfg.Auth.Secret)
	if len(secret) == 0 {
		internal.GetLogger().Fatal(ErrSecretNotSet)
	}
	tokenAuth := jwtauth.New(JwtAlg, secret, nil)
	return jwtauth.Verifier(tokenAuth)
}
