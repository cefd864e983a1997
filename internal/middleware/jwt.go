package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"motormart/internal/common"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// AuthMiddleware verifies the identity provider's bearer tokens and puts
// the opaque subject on the request context. Services resolve the subject
// to an internal user row themselves.
type AuthMiddleware struct {
	jwks      *keyfunc.JWKS
	jwtSecret string
}

// NewAuthMiddleware verifies against the provider's JWKS endpoint when
// jwksURL is set, otherwise against the shared HS256 secret (development).
func NewAuthMiddleware(jwksURL, jwtSecret string) (*AuthMiddleware, error) {
	m := &AuthMiddleware{jwtSecret: jwtSecret}
	if jwksURL != "" {
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			RefreshInterval:  time.Hour,
			RefreshRateLimit: time.Minute,
		})
		if err != nil {
			return nil, err
		}
		m.jwks = jwks
	}
	return m, nil
}

func (m *AuthMiddleware) keyfunc(token *jwt.Token) (interface{}, error) {
	if m.jwks != nil {
		return m.jwks.Keyfunc(token)
	}
	return []byte(m.jwtSecret), nil
}

// validMethods pins the accepted signing algorithms to the active key
// source, so an algorithm-confusion token is rejected outright.
func (m *AuthMiddleware) validMethods() []string {
	if m.jwks != nil {
		return []string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}
	}
	return []string{"HS256"}
}

// Authenticate rejects requests without a valid bearer token and stores
// the token's subject on the request context.
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token format")
			}

			token, err := jwt.Parse(tokenString, m.keyfunc, jwt.WithValidMethods(m.validMethods()))
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			subject, err := token.Claims.GetSubject()
			if err != nil || subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing subject in token")
			}

			ctx := context.WithValue(c.Request().Context(), common.SubjectKey, subject)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
