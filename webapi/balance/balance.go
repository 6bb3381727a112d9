// Package balance exposes read-only balance and audit queries.
package balance

import (
	"github.com/gofiber/fiber/v2"
	"github.com/obmenka/settlement/pkg/config"
	"github.com/obmenka/settlement/pkg/middleware"
	querysvc "github.com/obmenka/settlement/pkg/service/query"
	"github.com/obmenka/settlement/webapi/common"
)

// Routes registers the query endpoints.
//
//   - GET /balance                      : The authenticated user's balance.
//   - GET /transactions/:id/receipts    : Receipt audit trail for a transaction.
//   - GET /history                      : Archived transactions.
func Routes(app *fiber.App, svc *querysvc.Service, cfg *config.App) {
	protected := middleware.JwtProtected(cfg.Jwt)
	app.Get("/balance", protected, GetBalance(svc))
	app.Get("/transactions/:id/receipts", protected, GetReceipts(svc))
	app.Get("/history", protected, GetHistory(svc))
}

// GetBalance returns the authenticated user's running totals.
func GetBalance(svc *querysvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.UserID(c)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		read, err := svc.Balance(c.UserContext(), userID)
		if err != nil {
			return common.DomainErrorJSON(c, "Failed to fetch balance", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Balance", read)
	}
}

// GetReceipts lists the receipt evidence attached to a transaction.
func GetReceipts(svc *querysvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := common.ParseIDParam(c, "id")
		if !ok {
			return nil
		}
		reads, err := svc.Receipts(c.UserContext(), id)
		if err != nil {
			return common.DomainErrorJSON(c, "Failed to fetch receipts", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Receipts", reads)
	}
}

// GetHistory lists archived transactions.
func GetHistory(svc *querysvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reads, err := svc.History(c.UserContext())
		if err != nil {
			return common.DomainErrorJSON(c, "Failed to fetch history", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "History", reads)
	}
}
