package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trainops/workshop-portal/internal/azure"
	"github.com/trainops/workshop-portal/internal/model"
)

// CostQuerier fetches accumulated spend for one resource group.
// *azure.Costs satisfies this interface.
type CostQuerier interface {
	ResourceGroupCost(ctx context.Context, subscriptionID, resourceGroup string, from, until time.Time) (azure.ResourceGroupCost, error)
}

type CostService struct {
	db      DB
	querier CostQuerier
}

func NewCostService(db DB, querier CostQuerier) *CostService {
	return &CostService{db: db, querier: querier}
}

// Cost Management throttles aggressively; keep concurrent queries modest.
const costQueryConcurrency = 4

// WorkshopCost sums spend across every provisioned resource group of the
// workshop between the workshop start date and now. Queries fan out with
// bounded concurrency; one failing resource group fails the report, since a
// partial total would be misleading.
func (s *CostService) WorkshopCost(ctx context.Context, workshopID string) (*model.CostReport, error) {
	var start time.Time
	err := s.db.QueryRow(ctx,
		"SELECT start_date FROM workshops WHERE id = $1", workshopID,
	).Scan(&start)
	if err != nil {
		return nil, fmt.Errorf("get workshop %s: %w", workshopID, err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT subscription_id, resource_group FROM participants
		 WHERE workshop_id = $1 AND resource_group != '' AND subscription_id != ''`, workshopID)
	if err != nil {
		return nil, fmt.Errorf("list resource groups for workshop %s: %w", workshopID, err)
	}
	defer rows.Close()

	type target struct {
		subscriptionID string
		resourceGroup  string
	}
	var targets []target
	for rows.Next() {
		var t target
		if err := rows.Scan(&t.subscriptionID, &t.resourceGroup); err != nil {
			return nil, fmt.Errorf("scan resource group: %w", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resource groups: %w", err)
	}

	now := time.Now().UTC()
	report := &model.CostReport{
		WorkshopID: workshopID,
		StartDate:  start,
		EndDate:    now,
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(costQueryConcurrency)

	for _, t := range targets {
		g.Go(func() error {
			cost, err := s.querier.ResourceGroupCost(gctx, t.subscriptionID, t.resourceGroup, start, now)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			report.TotalCost += cost.Cost
			if cost.Currency != "" {
				report.Currency = cost.Currency
			}
			report.Breakdown = append(report.Breakdown, model.CostEntry{
				SubscriptionID: t.subscriptionID,
				ResourceGroup:  t.resourceGroup,
				Cost:           cost.Cost,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("query workshop %s cost: %w", workshopID, err)
	}

	return report, nil
}
