// middleware/gateway.go
package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GatewayAuthMiddleware validates the Bearer token the gateway sends on admin routes.
// An empty expected token locks the routes instead of opening them.
func GatewayAuthMiddleware(expectedToken string) fiber.Handler {
	if expectedToken == "" {
		log.Println("⚠️  [GATEWAY_AUTH] GATEWAY_TOKEN is not set, admin routes will reject every request")
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Printf("🚫 [GATEWAY_AUTH] Missing Authorization header for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		// Accept "Bearer <token>" or the raw token.
		token := strings.TrimPrefix(authHeader, "Bearer ")

		if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
			log.Printf("❌ [GATEWAY_AUTH] Invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}

		return c.Next()
	}
}
