package model

import "time"

// Subscription is one discovered billing subscription usable for allocation.
type Subscription struct {
	ID          string    `json:"subscription_id" db:"subscription_id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	RefreshedAt time.Time `json:"refreshed_at" db:"refreshed_at"`
}

// SubscriptionSettings is the admin-configured eligibility filter. The deny
// list always overrides the allow list; an empty allow list means every
// non-denied subscription is eligible. Version guards concurrent allocator
// updates (compare-and-swap).
type SubscriptionSettings struct {
	AllowList []string  `json:"allow_list" db:"allow_list"`
	DenyList  []string  `json:"deny_list" db:"deny_list"`
	Version   int       `json:"version" db:"version"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Eligible applies the deny-overrides-allow rule to a discovered catalog.
func (s *SubscriptionSettings) Eligible(discovered []Subscription) []Subscription {
	denied := make(map[string]bool, len(s.DenyList))
	for _, id := range s.DenyList {
		denied[id] = true
	}
	allowed := make(map[string]bool, len(s.AllowList))
	for _, id := range s.AllowList {
		allowed[id] = true
	}

	var out []Subscription
	for _, sub := range discovered {
		if denied[sub.ID] {
			continue
		}
		if len(allowed) > 0 && !allowed[sub.ID] {
			continue
		}
		out = append(out, sub)
	}
	return out
}

// SubscriptionCatalog is the admin view over the subscription pool.
type SubscriptionCatalog struct {
	Subscriptions []Subscription       `json:"subscriptions"`
	Settings      SubscriptionSettings `json:"settings"`
	InUse         map[string]int       `json:"in_use"`
	PrunedIDs     []string             `json:"pruned_ids,omitempty"`
	FromCache     bool                 `json:"from_cache"`
}
