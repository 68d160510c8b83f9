package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Config holds the accepted credentials.
type Config struct {
	// ApiKey is compared against the X-API-Key header.
	ApiKey string
	// JWTSecret verifies HS256 bearer tokens.
	JWTSecret string
	// Skip lists path prefixes that bypass authentication.
	Skip []string
}

var errUnauthorized = errors.New("unauthorized")

// New returns a middleware requiring either the API key or a valid bearer token.
// With no credential configured every request passes.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.ApiKey == "" && cfg.JWTSecret == "" {
			return c.Next()
		}
		for _, prefix := range cfg.Skip {
			if strings.HasPrefix(c.Path(), prefix) {
				return c.Next()
			}
		}

		if cfg.ApiKey != "" {
			key := c.Get("X-API-Key")
			if key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(cfg.ApiKey)) == 1 {
				return c.Next()
			}
		}

		if cfg.JWTSecret != "" {
			if token, ok := bearer(c.Get(fiber.HeaderAuthorization)); ok {
				claims, err := verify(token, cfg.JWTSecret)
				if err == nil {
					if sub, _ := claims.GetSubject(); sub != "" {
						c.Locals("subject", sub)
					}
					return c.Next()
				}
			}
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": errUnauthorized.Error(),
		})
	}
}

func bearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

func verify(raw, secret string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claims, nil
}
