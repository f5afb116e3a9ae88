// handlers/app.go
package handlers

import (
	"time"

	"referral-rewards-system/config"
	"referral-rewards-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles what the routes call into.
type Services struct {
	Referrals   *services.ReferralService
	Leaderboard *services.LeaderboardService
	Profiles    *services.ProfileService
	Winners     *services.WinnerService
}

// NewApp builds the HTTP app with every route mounted.
func NewApp(cfg config.ServerConfig, svc Services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "referral-rewards",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Origins(),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID",
		MaxAge:       86400,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	SetupReferralRoutes(app, svc.Referrals)
	SetupLeaderboardRoutes(app, svc.Leaderboard)
	SetupProfileRoutes(app, svc.Profiles)
	SetupWinnerRoutes(app, svc.Winners, cfg.GatewayToken)

	return app
}
