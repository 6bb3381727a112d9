// Package dispute exposes post-settlement renegotiation over HTTP.
package dispute

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/obmenka/settlement/pkg/config"
	domaindispute "github.com/obmenka/settlement/pkg/domain/dispute"
	"github.com/obmenka/settlement/pkg/domain/money"
	"github.com/obmenka/settlement/pkg/middleware"
	disputesvc "github.com/obmenka/settlement/pkg/service/dispute"
	"github.com/obmenka/settlement/webapi/common"
)

// Routes registers the dispute endpoints.
//
//   - POST /transactions/:id/disputes  : Open a dispute against a settled transaction.
//   - GET  /transactions/:id/disputes  : List disputes for a transaction.
//   - POST /disputes/:id/ack           : Acknowledge as sender or recipient.
//   - POST /disputes/:id/resolve       : Apply the renegotiated delta.
//   - POST /disputes/:id/reject        : Abandon the dispute.
func Routes(app *fiber.App, svc *disputesvc.Service, cfg *config.App) {
	protected := middleware.JwtProtected(cfg.Jwt)
	app.Post("/transactions/:id/disputes", protected, Open(svc))
	app.Get("/transactions/:id/disputes", protected, List(svc))
	app.Post("/disputes/:id/ack", protected, Acknowledge(svc))
	app.Post("/disputes/:id/resolve", protected, Resolve(svc))
	app.Post("/disputes/:id/reject", protected, Reject(svc))
}

// Open raises a dispute proposing a different settled amount.
func Open(svc *disputesvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		txID, ok := common.ParseIDParam(c, "id")
		if !ok {
			return nil
		}
		input, err := common.BindAndValidate[OpenRequest](c)
		if input == nil {
			return err
		}
		proposed, err := money.New(input.Amount, money.Code(input.Currency))
		if err != nil {
			return common.DomainErrorJSON(c, "Invalid amount", err)
		}
		read, err := svc.Open(c.UserContext(), txID, proposed, input.Reason)
		if err != nil {
			log.Errorf("Failed to open dispute for %s: %v", txID, err)
			return common.DomainErrorJSON(c, "Failed to open dispute", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Dispute opened", read)
	}
}

// List returns all disputes raised against a transaction.
func List(svc *disputesvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		txID, ok := common.ParseIDParam(c, "id")
		if !ok {
			return nil
		}
		reads, err := svc.ListByTransaction(c.UserContext(), txID)
		if err != nil {
			return common.DomainErrorJSON(c, "Failed to list disputes", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Disputes", reads)
	}
}

// Acknowledge records one party's agreement to the proposal.
func Acknowledge(svc *disputesvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := common.ParseIDParam(c, "id")
		if !ok {
			return nil
		}
		input, err := common.BindAndValidate[AcknowledgeRequest](c)
		if input == nil {
			return err
		}
		read, err := svc.Acknowledge(c.UserContext(), id, domaindispute.Party(input.Party))
		if err != nil {
			return common.DomainErrorJSON(c, "Acknowledge refused", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Acknowledged", read)
	}
}

// Resolve applies the renegotiated amount once both parties acknowledged.
func Resolve(svc *disputesvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := common.ParseIDParam(c, "id")
		if !ok {
			return nil
		}
		read, err := svc.Resolve(c.UserContext(), id)
		if err != nil {
			log.Errorf("Failed to resolve dispute %s: %v", id, err)
			return common.DomainErrorJSON(c, "Resolve refused", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Dispute resolved", read)
	}
}

// Reject abandons the dispute with no balance effect.
func Reject(svc *disputesvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := common.ParseIDParam(c, "id")
		if !ok {
			return nil
		}
		read, err := svc.Reject(c.UserContext(), id)
		if err != nil {
			return common.DomainErrorJSON(c, "Reject refused", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Dispute abandoned", read)
	}
}
