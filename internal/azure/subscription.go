package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/subscription/armsubscription"
)

// Subscriptions discovers the billing subscriptions visible to the service
// principal.
type Subscriptions struct {
	cred azcore.TokenCredential
}

func NewSubscriptions(cred azcore.TokenCredential) *Subscriptions {
	return &Subscriptions{cred: cred}
}

type DiscoveredSubscription struct {
	ID          string
	DisplayName string
}

// List returns all enabled subscriptions the credential can see.
func (s *Subscriptions) List(ctx context.Context) ([]DiscoveredSubscription, error) {
	client, err := armsubscription.NewSubscriptionsClient(s.cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create subscriptions client: %w", err)
	}

	var out []DiscoveredSubscription
	pager := client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list subscriptions: %w", err)
		}
		for _, sub := range page.Value {
			if sub.SubscriptionID == nil {
				continue
			}
			if sub.State != nil && *sub.State != armsubscription.SubscriptionStateEnabled {
				continue
			}
			d := DiscoveredSubscription{ID: *sub.SubscriptionID}
			if sub.DisplayName != nil {
				d.DisplayName = *sub.DisplayName
			}
			out = append(out, d)
		}
	}
	return out, nil
}
