package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/trainops/workshop-portal/internal/azure"
	"github.com/trainops/workshop-portal/internal/model"
)

// SubscriptionLister discovers subscriptions from the management plane.
// *azure.Subscriptions satisfies this interface.
type SubscriptionLister interface {
	List(ctx context.Context) ([]azure.DiscoveredSubscription, error)
}

// Allocator assigns participants to subscriptions. Placement is least
// loaded first; among equally loaded subscriptions the lexicographically
// smallest ID wins, which keeps placement deterministic and spreads N
// participants over M subscriptions within one of the even share.
type Allocator struct {
	db              DB
	lister          SubscriptionLister
	deploymentSubID string
}

func NewAllocator(db DB, lister SubscriptionLister, deploymentSubID string) *Allocator {
	return &Allocator{db: db, lister: lister, deploymentSubID: deploymentSubID}
}

// allocateAttempts bounds the settings-version retry loop.
const allocateAttempts = 3

type AllocateSubscriptionParams struct {
	ParticipantID string `json:"participant_id"`
}

// AllocateSubscription picks a subscription for the participant and writes
// it to the row. The eligibility settings version is re-checked before the
// write; if an admin changed the allow or deny list mid-allocation the pick
// is recomputed against the new settings.
func (a *Allocator) AllocateSubscription(ctx context.Context, params AllocateSubscriptionParams) (string, error) {
	for attempt := 0; attempt < allocateAttempts; attempt++ {
		settings, err := a.settings(ctx)
		if err != nil {
			return "", err
		}

		subs, err := a.subscriptions(ctx)
		if err != nil {
			return "", err
		}

		eligible := settings.Eligible(subs)
		if len(eligible) == 0 {
			return "", fmt.Errorf("no eligible subscription for participant %s", params.ParticipantID)
		}

		counts, err := a.inUseCounts(ctx)
		if err != nil {
			return "", err
		}

		pick := eligible[0]
		for _, sub := range eligible[1:] {
			switch {
			case counts[sub.ID] < counts[pick.ID]:
				pick = sub
			case counts[sub.ID] == counts[pick.ID] && sub.ID < pick.ID:
				pick = sub
			}
		}

		stale, err := a.settingsChanged(ctx, settings.Version)
		if err != nil {
			return "", err
		}
		if stale {
			continue
		}

		_, err = a.db.Exec(ctx,
			"UPDATE participants SET subscription_id = $1, subscription_valid = true, updated_at = now() WHERE id = $2",
			pick.ID, params.ParticipantID,
		)
		if err != nil {
			return "", fmt.Errorf("assign subscription to participant %s: %w", params.ParticipantID, err)
		}
		return pick.ID, nil
	}
	return "", fmt.Errorf("allocate subscription for participant %s: settings kept changing", params.ParticipantID)
}

func (a *Allocator) settings(ctx context.Context) (*model.SubscriptionSettings, error) {
	var s model.SubscriptionSettings
	err := a.db.QueryRow(ctx,
		"SELECT allow_list, deny_list, version, updated_at FROM subscription_settings WHERE id = 1",
	).Scan(&s.AllowList, &s.DenyList, &s.Version, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get subscription settings: %w", err)
	}
	return &s, nil
}

func (a *Allocator) settingsChanged(ctx context.Context, version int) (bool, error) {
	var current int
	err := a.db.QueryRow(ctx,
		"SELECT version FROM subscription_settings WHERE id = 1",
	).Scan(&current)
	if err != nil {
		return false, fmt.Errorf("check subscription settings version: %w", err)
	}
	return current != version, nil
}

// subscriptions returns the cached catalog, refreshing it from the
// management plane when the cache is empty.
func (a *Allocator) subscriptions(ctx context.Context) ([]model.Subscription, error) {
	subs, err := a.cached(ctx)
	if err != nil {
		return nil, err
	}
	if len(subs) > 0 {
		return subs, nil
	}

	discovered, err := a.lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover subscriptions: %w", err)
	}

	now := time.Now().UTC()
	for _, d := range discovered {
		if d.ID == a.deploymentSubID {
			continue
		}
		sub := model.Subscription{ID: d.ID, DisplayName: d.DisplayName, RefreshedAt: now}
		if _, err := a.db.Exec(ctx,
			"INSERT INTO subscription_cache (subscription_id, display_name, refreshed_at) VALUES ($1, $2, $3) ON CONFLICT (subscription_id) DO NOTHING",
			sub.ID, sub.DisplayName, sub.RefreshedAt,
		); err != nil {
			return nil, fmt.Errorf("cache subscription %s: %w", sub.ID, err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (a *Allocator) cached(ctx context.Context) ([]model.Subscription, error) {
	rows, err := a.db.Query(ctx,
		"SELECT subscription_id, display_name, refreshed_at FROM subscription_cache ORDER BY subscription_id")
	if err != nil {
		return nil, fmt.Errorf("read subscription cache: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		var sub model.Subscription
		if err := rows.Scan(&sub.ID, &sub.DisplayName, &sub.RefreshedAt); err != nil {
			return nil, fmt.Errorf("scan cached subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached subscriptions: %w", err)
	}
	return subs, nil
}

func (a *Allocator) inUseCounts(ctx context.Context) (map[string]int, error) {
	rows, err := a.db.Query(ctx,
		`SELECT subscription_id, count(*) FROM participants
		 WHERE subscription_id != '' AND status NOT IN ('deleted', 'failed')
		 GROUP BY subscription_id`)
	if err != nil {
		return nil, fmt.Errorf("count subscriptions in use: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan subscription count: %w", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscription counts: %w", err)
	}
	return counts, nil
}
