// Package transaction exposes the settlement lifecycle over HTTP: submit,
// claim, release, accept, reject, archive. Handlers are thin: they bind and
// validate input, call the service, and render the service outcome; every
// settlement rule lives below this layer.
package transaction

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/obmenka/settlement/pkg/config"
	"github.com/obmenka/settlement/pkg/domain/money"
	"github.com/obmenka/settlement/pkg/middleware"
	claimsvc "github.com/obmenka/settlement/pkg/service/claim"
	settlementsvc "github.com/obmenka/settlement/pkg/service/settlement"
	submissionsvc "github.com/obmenka/settlement/pkg/service/submission"
	"github.com/obmenka/settlement/webapi/common"
)

// Routes registers the transaction lifecycle endpoints.
//
//   - POST   /transactions               : Submit a funding transaction.
//   - GET    /transactions/pending       : List claimable transactions.
//   - GET    /transactions/:id           : Fetch one transaction.
//   - POST   /transactions/:id/claim     : Claim a pending transaction.
//   - POST   /transactions/:id/release   : Release an undecided claim.
//   - POST   /transactions/:id/accept    : Accept with receipt evidence.
//   - POST   /transactions/:id/reject    : Reject with a reason.
//   - POST   /transactions/:id/archive   : Move a settled transaction to history.
func Routes(
	app *fiber.App,
	submissionSvc *submissionsvc.Service,
	claimSvc *claimsvc.Service,
	settlementSvc *settlementsvc.Service,
	cfg *config.App,
) {
	protected := middleware.JwtProtected(cfg.Jwt)
	app.Post("/transactions", protected, Submit(submissionSvc))
	app.Get("/transactions/pending", protected, ListPending(submissionSvc))
	app.Get("/transactions/:id", protected, Get(submissionSvc))
	app.Post("/transactions/:id/claim", protected, Claim(claimSvc))
	app.Post("/transactions/:id/release", protected, Release(claimSvc))
	app.Post("/transactions/:id/accept", protected, Accept(settlementSvc))
	app.Post("/transactions/:id/reject", protected, Reject(settlementSvc))
	app.Post("/transactions/:id/archive", protected, Archive(settlementSvc))
}

// Submit creates a PENDING transaction for the authenticated user.
func Submit(svc *submissionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.UserID(c)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		input, err := common.BindAndValidate[SubmitRequest](c)
		if input == nil {
			return err
		}
		amount, err := money.New(input.Amount, money.USDT)
		if err != nil {
			return common.DomainErrorJSON(c, "Invalid amount", err)
		}
		read, err := svc.Submit(c.UserContext(), userID, amount)
		if err != nil {
			log.Errorf("Failed to submit transaction: %v", err)
			return common.DomainErrorJSON(c, "Failed to submit transaction", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Transaction submitted", read)
	}
}

// ListPending lists the claimable queue, oldest first.
func ListPending(svc *submissionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reads, err := svc.ListPending(c.UserContext())
		if err != nil {
			return common.DomainErrorJSON(c, "Failed to list transactions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Pending transactions", reads)
	}
}

// Get fetches a single transaction.
func Get(svc *submissionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := common.ParseIDParam(c, "id")
		if !ok {
			return nil
		}
		read, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return common.DomainErrorJSON(c, "Failed to fetch transaction", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction", read)
	}
}

// Claim grants the authenticated operator exclusive working rights.
func Claim(svc *claimsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		operatorID, err := middleware.UserID(c)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		id, ok := common.ParseIDParam(c, "id")
		if !ok {
			return nil
		}
		read, err := svc.Claim(c.UserContext(), id, operatorID)
		if err != nil {
			// losers still receive the authoritative snapshot
			return common.ErrorResponseJSON(c,
				common.ErrorToStatusCode(err), "Claim refused", fiber.Map{
					"error":       err.Error(),
					"transaction": read,
				})
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Claim granted", read)
	}
}

// Release returns an undecided claim to the queue.
func Release(svc *claimsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		operatorID, err := middleware.UserID(c)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		id, ok := common.ParseIDParam(c, "id")
		if !ok {
			return nil
		}
		read, err := svc.Release(c.UserContext(), id, operatorID)
		if err != nil {
			return common.DomainErrorJSON(c, "Release refused", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Claim released", read)
	}
}

// Accept settles the transaction with receipt evidence.
func Accept(svc *settlementsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		operatorID, err := middleware.UserID(c)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		id, ok := common.ParseIDParam(c, "id")
		if !ok {
			return nil
		}
		input, err := common.BindAndValidate[AcceptRequest](c)
		if input == nil {
			return err
		}
		read, err := svc.Accept(c.UserContext(), id, operatorID, input.Receipt)
		if err != nil {
			log.Errorf("Failed to accept transaction %s: %v", id, err)
			return common.DomainErrorJSON(c, "Accept refused", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Decision recorded", read)
	}
}

// Reject cancels the transaction with a reason.
func Reject(svc *settlementsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		operatorID, err := middleware.UserID(c)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		id, ok := common.ParseIDParam(c, "id")
		if !ok {
			return nil
		}
		input, err := common.BindAndValidate[RejectRequest](c)
		if input == nil {
			return err
		}
		read, err := svc.Reject(c.UserContext(), id, operatorID, input.Reason, input.Receipt)
		if err != nil {
			log.Errorf("Failed to reject transaction %s: %v", id, err)
			return common.DomainErrorJSON(c, "Reject refused", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction rejected", read)
	}
}

// Archive moves a settled transaction into history.
func Archive(svc *settlementsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := common.ParseIDParam(c, "id")
		if !ok {
			return nil
		}
		read, err := svc.Archive(c.UserContext(), id)
		if err != nil {
			return common.DomainErrorJSON(c, "Archive refused", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction archived", read)
	}
}
