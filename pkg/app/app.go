// Package app bundles the application services and their shared
// dependencies.
package app

import (
	"log/slog"

	"github.com/obmenka/settlement/pkg/config"
	"github.com/obmenka/settlement/pkg/eventbus"
	"github.com/obmenka/settlement/pkg/provider"
	"github.com/obmenka/settlement/pkg/repository"
	"github.com/obmenka/settlement/pkg/service/claim"
	"github.com/obmenka/settlement/pkg/service/dispute"
	"github.com/obmenka/settlement/pkg/service/query"
	"github.com/obmenka/settlement/pkg/service/settlement"
	"github.com/obmenka/settlement/pkg/service/submission"
)

// Deps contains the infrastructure dependencies the services are built on.
type Deps struct {
	Uow          repository.UnitOfWork
	RateProvider provider.RateProvider
	EventBus     eventbus.Bus
	Logger       *slog.Logger
}

// App is the assembled application.
type App struct {
	Deps   *Deps
	Config *config.App

	SubmissionService *submission.Service
	ClaimService      *claim.Service
	SettlementService *settlement.Service
	DisputeService    *dispute.Service
	QueryService      *query.Service
	Reaper            *claim.Reaper
}

// New wires the services from the dependencies and configuration.
func New(deps *Deps, cfg *config.App) *App {
	return &App{
		Deps:   deps,
		Config: cfg,
		SubmissionService: submission.NewService(
			deps.Uow, deps.RateProvider, cfg.Commission.Percent, deps.EventBus, deps.Logger),
		ClaimService:      claim.NewService(deps.Uow, deps.EventBus, deps.Logger),
		SettlementService: settlement.NewService(deps.Uow, nil, deps.EventBus, deps.Logger),
		DisputeService:    dispute.NewService(deps.Uow, deps.EventBus, deps.Logger),
		QueryService:      query.NewService(deps.Uow, deps.Logger),
		Reaper: claim.NewReaper(
			deps.Uow, cfg.Claim.TTL, cfg.Claim.ReaperInterval, deps.Logger),
	}
}
