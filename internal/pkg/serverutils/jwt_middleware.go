package serverutils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const UserIDLocal = "user_id"

// OptionalJwtMiddleware resolves the caller from a bearer token when one is
// sent. Requests without a token pass through as anonymous; a token that does
// not verify is rejected.
func OptionalJwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if authHeader == "" || secret == "" {
			return ctx.Next()
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid authorization header"))
		}
		tokenStr := authHeader[7:]

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid claims"))
		}

		if userID, ok := claims["user_id"].(string); ok && userID != "" {
			ctx.Locals(UserIDLocal, userID)
		} else if sub, err := claims.GetSubject(); err == nil && sub != "" {
			ctx.Locals(UserIDLocal, sub)
		}
		return ctx.Next()
	}
}

// UserID returns the authenticated caller, falling back to the given id.
func UserID(ctx *fiber.Ctx, fallback string) string {
	if userID, ok := ctx.Locals(UserIDLocal).(string); ok && userID != "" {
		return userID
	}
	return fallback
}
