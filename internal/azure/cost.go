package azure

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
)

// Costs queries accumulated spend through the Cost Management API.
type Costs struct {
	cred azcore.TokenCredential
}

func NewCosts(cred azcore.TokenCredential) *Costs {
	return &Costs{cred: cred}
}

type ResourceGroupCost struct {
	Cost     float64
	Currency string
}

// ResourceGroupCost sums daily pre-tax actual cost for one resource group
// over the given period.
func (c *Costs) ResourceGroupCost(ctx context.Context, subscriptionID, resourceGroup string, from, until time.Time) (ResourceGroupCost, error) {
	client, err := armcostmanagement.NewQueryClient(c.cred, nil)
	if err != nil {
		return ResourceGroupCost{}, fmt.Errorf("create cost query client: %w", err)
	}

	scope := fmt.Sprintf("/subscriptions/%s/resourceGroups/%s", subscriptionID, resourceGroup)

	resp, err := client.Usage(ctx, scope, armcostmanagement.QueryDefinition{
		Type:      to.Ptr(armcostmanagement.ExportTypeActualCost),
		Timeframe: to.Ptr(armcostmanagement.TimeframeTypeCustom),
		TimePeriod: &armcostmanagement.QueryTimePeriod{
			From: to.Ptr(from),
			To:   to.Ptr(until),
		},
		Dataset: &armcostmanagement.QueryDataset{
			Granularity: to.Ptr(armcostmanagement.GranularityTypeDaily),
			Aggregation: map[string]*armcostmanagement.QueryAggregation{
				"totalCost": {
					Name:     to.Ptr("PreTaxCost"),
					Function: to.Ptr(armcostmanagement.FunctionTypeSum),
				},
			},
		},
	}, nil)
	if err != nil {
		if IsNotFound(err) {
			// Resource group already torn down; no remaining spend to report.
			return ResourceGroupCost{}, nil
		}
		return ResourceGroupCost{}, fmt.Errorf("query cost for %s: %w", resourceGroup, err)
	}

	if resp.Properties == nil {
		return ResourceGroupCost{}, nil
	}

	costIdx, currencyIdx := -1, -1
	for i, col := range resp.Properties.Columns {
		if col.Name == nil {
			continue
		}
		switch *col.Name {
		case "PreTaxCost":
			costIdx = i
		case "Currency":
			currencyIdx = i
		}
	}
	if costIdx < 0 {
		return ResourceGroupCost{}, nil
	}

	var out ResourceGroupCost
	for _, row := range resp.Properties.Rows {
		if costIdx >= len(row) {
			continue
		}
		if v, ok := row[costIdx].(float64); ok {
			out.Cost += v
		}
		if currencyIdx >= 0 && currencyIdx < len(row) {
			if cur, ok := row[currencyIdx].(string); ok {
				out.Currency = cur
			}
		}
	}
	return out, nil
}
