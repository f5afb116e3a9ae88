// middleware/auth.go
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const LocalOperator = "operator"

// OperatorContextMiddleware records who is calling an admin route, from the
// X-User-ID header the gateway forwards. Requests without it are attributed to "gateway".
func OperatorContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		operator := strings.TrimSpace(c.Get("X-User-ID"))
		if operator == "" {
			operator = "gateway"
		}
		c.Locals(LocalOperator, operator)

		log.Printf("👤 [OPERATOR] %s %s by %s", c.Method(), c.Path(), operator)
		return c.Next()
	}
}

// Operator returns the caller recorded by OperatorContextMiddleware.
func Operator(c *fiber.Ctx) string {
	if op, ok := c.Locals(LocalOperator).(string); ok {
		return op
	}
	return "unknown"
}
