// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"fmt"
	"strings"

	"well-bot-be/pkg/card"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	AuthModeStatic = "static"
	AuthModeJwt    = "jwt"
	AuthModeNone   = "none"
)

// LocalUserID is the fiber local holding the authenticated subject, when known
const LocalUserID = "user_id"

func bearer(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}

// parseToken verifies an HS256 token and returns its user_id (or sub) claim
func parseToken(tokenStr, secret string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims")
	}
	if uid, ok := claims["user_id"].(string); ok && uid != "" {
		return uid, nil
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	return "", nil
}

// Authenticate checks a bearer token for mode and returns the user id it carries, if
// any. In static mode the token must equal staticKey, in jwt mode it must be a valid
// token signed with secret, and none accepts everything.
func Authenticate(mode, staticKey, secret, token string) (string, error) {
	switch mode {
	case AuthModeNone:
		return "", nil
	case AuthModeJwt:
		if token == "" {
			return "", fmt.Errorf("Invalid JWT token")
		}
		uid, err := parseToken(token, secret)
		if err != nil {
			return "", fmt.Errorf("Invalid JWT token")
		}
		return uid, nil
	default:
		if token == "" || token != staticKey {
			return "", fmt.Errorf("Invalid authentication token")
		}
		return "", nil
	}
}

// CardAuthMiddleware authenticates Card endpoints, answering failures with an
// UNAUTHORIZED error card
func CardAuthMiddleware(mode, staticKey, secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		uid, err := Authenticate(mode, staticKey, secret, bearer(ctx))
		if err != nil {
			tool := ctx.Params("tool", "turn")
			return ctx.Status(fiber.StatusUnauthorized).JSON(
				card.Fail(tool, "Unauthorized", err.Error(), card.CodeUnauthorized))
		}
		if uid != "" {
			ctx.Locals(LocalUserID, uid)
		}
		return ctx.Next()
	}
}

// BearerToken returns the bearer token of the request, or "" when absent
func BearerToken(ctx *fiber.Ctx) string {
	return bearer(ctx)
}
