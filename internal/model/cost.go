package model

import "time"

// CostEntry is the accumulated spend of one participant resource group.
type CostEntry struct {
	SubscriptionID string  `json:"subscription_id"`
	ResourceGroup  string  `json:"resource_group"`
	Cost           float64 `json:"cost"`
}

// CostReport aggregates pre-tax actual cost across a workshop's resource
// groups for the queried period.
type CostReport struct {
	WorkshopID string      `json:"workshop_id"`
	TotalCost  float64     `json:"total_cost"`
	Currency   string      `json:"currency"`
	StartDate  time.Time   `json:"start_date"`
	EndDate    time.Time   `json:"end_date"`
	Breakdown  []CostEntry `json:"breakdown"`
}
