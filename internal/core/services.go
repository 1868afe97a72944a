package core

import (
	"time"

	temporalclient "go.temporal.io/sdk/client"
)

type Services struct {
	Workshop        *WorkshopService
	Subscription    *SubscriptionService
	DeletionFailure *DeletionFailureService
	Template        *TemplateService
	Cost            *CostService
}

type ServicesParams struct {
	DB                       DB
	TemporalClient           temporalclient.Client
	SubscriptionLister       SubscriptionLister
	CostQuerier              CostQuerier
	DeploymentSubscriptionID string
	SubscriptionCacheTTL     time.Duration
}

func NewServices(params ServicesParams) *Services {
	return &Services{
		Workshop:        NewWorkshopService(params.DB, params.TemporalClient),
		Subscription:    NewSubscriptionService(params.DB, params.SubscriptionLister, params.DeploymentSubscriptionID, params.SubscriptionCacheTTL),
		DeletionFailure: NewDeletionFailureService(params.DB, params.TemporalClient),
		Template:        NewTemplateService(params.DB),
		Cost:            NewCostService(params.DB, params.CostQuerier),
	}
}
