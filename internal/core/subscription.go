package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/trainops/workshop-portal/internal/azure"
	"github.com/trainops/workshop-portal/internal/model"
)

// ErrSettingsConflict is returned when a settings update carries a stale
// version. The caller re-reads and retries with current state.
var ErrSettingsConflict = errors.New("subscription settings were modified concurrently")

// SubscriptionLister discovers subscriptions from the management plane.
// *azure.Subscriptions satisfies this interface.
type SubscriptionLister interface {
	List(ctx context.Context) ([]azure.DiscoveredSubscription, error)
}

type SubscriptionService struct {
	db     DB
	lister SubscriptionLister

	// deploymentSubID is never offered for participant allocation.
	deploymentSubID string
	cacheTTL        time.Duration
}

func NewSubscriptionService(db DB, lister SubscriptionLister, deploymentSubID string, cacheTTL time.Duration) *SubscriptionService {
	return &SubscriptionService{
		db:              db,
		lister:          lister,
		deploymentSubID: deploymentSubID,
		cacheTTL:        cacheTTL,
	}
}

// Catalog returns the subscription pool: discovered subscriptions, the
// eligibility settings, and per-subscription usage counts. Discovery results
// are cached in the database with a TTL; forceRefresh bypasses the cache.
// Subscriptions that disappeared from the tenant are pruned from the allow
// and deny lists and reported in PrunedIDs.
func (s *SubscriptionService) Catalog(ctx context.Context, forceRefresh bool) (*model.SubscriptionCatalog, error) {
	subs, fromCache, err := s.discover(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}

	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}

	pruned, err := s.pruneSettings(ctx, settings, subs)
	if err != nil {
		return nil, err
	}

	inUse, err := s.InUseCounts(ctx)
	if err != nil {
		return nil, err
	}

	return &model.SubscriptionCatalog{
		Subscriptions: subs,
		Settings:      *settings,
		InUse:         inUse,
		PrunedIDs:     pruned,
		FromCache:     fromCache,
	}, nil
}

// Settings reads the current eligibility settings row.
func (s *SubscriptionService) Settings(ctx context.Context) (*model.SubscriptionSettings, error) {
	var settings model.SubscriptionSettings
	err := s.db.QueryRow(ctx,
		"SELECT allow_list, deny_list, version, updated_at FROM subscription_settings WHERE id = 1",
	).Scan(&settings.AllowList, &settings.DenyList, &settings.Version, &settings.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get subscription settings: %w", err)
	}
	return &settings, nil
}

// UpdateSettings replaces the allow and deny lists, guarded by the version
// the caller read. A stale version returns ErrSettingsConflict.
func (s *SubscriptionService) UpdateSettings(ctx context.Context, allowList, denyList []string, version int) (*model.SubscriptionSettings, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE subscription_settings SET allow_list = $1, deny_list = $2, version = version + 1, updated_at = now()
		 WHERE id = 1 AND version = $3`,
		allowList, denyList, version,
	)
	if err != nil {
		return nil, fmt.Errorf("update subscription settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrSettingsConflict
	}
	return s.Settings(ctx)
}

// InUseCounts returns the number of provisioned or in-flight participants
// per subscription.
func (s *SubscriptionService) InUseCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.Query(ctx,
		`SELECT p.subscription_id, count(*)
		 FROM participants p
		 JOIN workshops w ON w.id = p.workshop_id
		 WHERE p.subscription_id != '' AND p.status NOT IN ('deleted', 'failed') AND w.status NOT IN ('deleted')
		 GROUP BY p.subscription_id`)
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

// MarkInvalid flags every participant assigned to the given subscription so
// admins can see who needs reassignment after a subscription is disabled.
func (s *SubscriptionService) MarkInvalid(ctx context.Context, subscriptionID string) (int, error) {
	tag, err := s.db.Exec(ctx,
		"UPDATE participants SET subscription_valid = false, updated_at = now() WHERE subscription_id = $1",
		subscriptionID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark subscription %s invalid: %w", subscriptionID, err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *SubscriptionService) discover(ctx context.Context, forceRefresh bool) ([]model.Subscription, bool, error) {
	if !forceRefresh {
		cached, err := s.cached(ctx)
		if err != nil {
			return nil, false, err
		}
		if cached != nil {
			return cached, true, nil
		}
	}

	discovered, err := s.lister.List(ctx)
	if err != nil {
		// Fall back to a stale cache rather than failing the portal when
		// the management plane is briefly unavailable.
		stale, cacheErr := s.cachedStale(ctx)
		if cacheErr == nil && len(stale) > 0 {
			return stale, true, nil
		}
		return nil, false, fmt.Errorf("discover subscriptions: %w", err)
	}

	now := time.Now().UTC()
	var subs []model.Subscription
	for _, d := range discovered {
		if d.ID == s.deploymentSubID {
			continue
		}
		subs = append(subs, model.Subscription{ID: d.ID, DisplayName: d.DisplayName, RefreshedAt: now})
	}

	if _, err := s.db.Exec(ctx, "DELETE FROM subscription_cache"); err != nil {
		return nil, false, fmt.Errorf("clear subscription cache: %w", err)
	}
	for _, sub := range subs {
		_, err := s.db.Exec(ctx,
			"INSERT INTO subscription_cache (subscription_id, display_name, refreshed_at) VALUES ($1, $2, $3)",
			sub.ID, sub.DisplayName, sub.RefreshedAt,
		)
		if err != nil {
			return nil, false, fmt.Errorf("cache subscription %s: %w", sub.ID, err)
		}
	}

	return subs, false, nil
}

func (s *SubscriptionService) cached(ctx context.Context) ([]model.Subscription, error) {
	// min() is NULL on an empty table; a nil scan target maps that to a
	// cache miss.
	var refreshedAt *time.Time
	err := s.db.QueryRow(ctx, "SELECT min(refreshed_at) FROM subscription_cache").Scan(&refreshedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("check subscription cache age: %w", err)
	}
	if refreshedAt == nil || time.Since(*refreshedAt) > s.cacheTTL {
		return nil, nil
	}
	return s.cachedStale(ctx)
}

func (s *SubscriptionService) cachedStale(ctx context.Context) ([]model.Subscription, error) {
	rows, err := s.db.Query(ctx,
		"SELECT subscription_id, display_name, refreshed_at FROM subscription_cache ORDER BY display_name")
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

// pruneSettings drops vanished subscription IDs from the allow and deny
// lists. Pruning reuses the versioned update, so it cannot clobber a
// concurrent admin edit; on conflict the prune is skipped and picked up on
// the next catalog read.
func (s *SubscriptionService) pruneSettings(ctx context.Context, settings *model.SubscriptionSettings, subs []model.Subscription) ([]string, error) {
	known := make(map[string]bool, len(subs))
	for _, sub := range subs {
		known[sub.ID] = true
	}

	var pruned []string
	keep := func(list []string) []string {
		var out []string
		for _, id := range list {
			if known[id] {
				out = append(out, id)
			} else {
				pruned = append(pruned, id)
			}
		}
		return out
	}

	allow := keep(settings.AllowList)
	deny := keep(settings.DenyList)
	if len(pruned) == 0 {
		return nil, nil
	}

	updated, err := s.UpdateSettings(ctx, allow, deny, settings.Version)
	if errors.Is(err, ErrSettingsConflict) {
		return pruned, nil
	}
	if err != nil {
		return nil, err
	}
	*settings = *updated
	return pruned, nil
}
