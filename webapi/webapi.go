// Package webapi assembles the HTTP surface of the settlement engine. It is
// organized into sub-packages per concern:
// - transaction: submission and the settlement lifecycle
// - dispute: post-settlement renegotiation
// - balance: read-only balance, receipt and history queries
package webapi

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/obmenka/settlement/pkg/app"
	balanceweb "github.com/obmenka/settlement/webapi/balance"
	"github.com/obmenka/settlement/webapi/common"
	disputeweb "github.com/obmenka/settlement/webapi/dispute"
	transactionweb "github.com/obmenka/settlement/webapi/transaction"
)

// SetupApp initializes Fiber with the settlement routes and middleware.
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			}
			return common.ErrorResponseJSON(c, status, "Internal Server Error", err.Error())
		},
	})

	// Uses X-Forwarded-For when behind a proxy, falling back to the
	// direct peer address.
	fiberApp.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ErrorResponseJSON(c,
				fiber.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded")
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	// Health check endpoint
	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Settlement engine is running")
	})

	transactionweb.Routes(fiberApp,
		a.SubmissionService, a.ClaimService, a.SettlementService, a.Config)
	disputeweb.Routes(fiberApp, a.DisputeService, a.Config)
	balanceweb.Routes(fiberApp, a.QueryService, a.Config)

	return fiberApp
}
