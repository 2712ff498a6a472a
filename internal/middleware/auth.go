// Package middleware provides authentication, logging, rate limiting and
// metrics middleware for the API.
package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"eventhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// PrincipalKey is the Fiber locals key holding the resolved models.Principal.
const PrincipalKey = "principal"

// PrincipalResolver loads the role of an authenticated user id.
type PrincipalResolver func(ctx context.Context, userID uint) (models.Principal, error)

// IssueToken signs an HS256 token whose subject is the user id.
func IssueToken(secret string, userID uint, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates tokenString and returns the user id in its subject.
func ParseToken(secret, tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid or expired token")
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, errors.New("invalid token structure - missing subject")
	}

	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, errors.New("invalid user ID in token")
	}
	return uint(userID), nil
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthRequired enforces a valid bearer token and stores the caller's
// principal in c.Locals(PrincipalKey).
func AuthRequired(secret string, resolve PrincipalResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization header required"))
		}

		userID, err := ParseToken(secret, tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(err.Error()))
		}

		principal, err := resolve(c.UserContext(), userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Unknown user"))
		}

		c.Locals("userID", principal.ID)
		c.Locals(PrincipalKey, principal)
		return c.Next()
	}
}

// OptionalAuth resolves the principal when a valid token is present and
// continues anonymously otherwise.
func OptionalAuth(secret string, resolve PrincipalResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return c.Next()
		}
		userID, err := ParseToken(secret, tokenString)
		if err != nil {
			return c.Next()
		}
		if principal, err := resolve(c.UserContext(), userID); err == nil {
			c.Locals("userID", principal.ID)
			c.Locals(PrincipalKey, principal)
		}
		return c.Next()
	}
}

// AdminRequired rejects callers without the admin role. It must run after AuthRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := CurrentPrincipal(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		if !principal.IsAdmin() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin role required"))
		}
		return c.Next()
	}
}

// CurrentPrincipal returns the principal attached by AuthRequired.
func CurrentPrincipal(c *fiber.Ctx) (models.Principal, error) {
	principal, ok := c.Locals(PrincipalKey).(models.Principal)
	if !ok || principal.ID == 0 {
		return models.Principal{}, models.NewUnauthorizedError("Authentication required")
	}
	return principal, nil
}
