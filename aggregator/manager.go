// Package aggregator fans fetch, publish and analytics operations out
// across the enabled platform adapters and merges their results.
//
// The central contract is partial-failure isolation: no single platform's
// failure may prevent return of the others' data. Read-side failures are
// absorbed into empty results and an error sync status; write-side
// outcomes are reported per platform for the caller to inspect.
package aggregator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/cityzenmag/socialhub/model"
	"github.com/cityzenmag/socialhub/platform"
	"github.com/cityzenmag/socialhub/state"
)

// PublishResult is one platform's outcome of a multi-platform publish:
// either the created post or the error that prevented it.
type PublishResult struct {
	Post *model.UnifiedPost
	Err  error
}

// Manager owns the set of enabled platform adapters and their sync
// statuses. Only the manager mutates sync status; adapters never touch it.
type Manager struct {
	mu       sync.RWMutex
	adapters map[model.Platform]platform.Adapter
	order    []model.Platform
	store    state.Store
	lastSync time.Time
}

// New registers the given adapters, each starting in the pending sync
// state. A nil store falls back to the in-memory store.
func New(store state.Store, adapters ...platform.Adapter) *Manager {
	if store == nil {
		store = state.NewMemoryStore()
	}

	m := &Manager{
		adapters: make(map[model.Platform]platform.Adapter, len(adapters)),
		store:    store,
	}
	for _, a := range adapters {
		p := a.Platform()
		if _, exists := m.adapters[p]; exists {
			log.Warn().Str("platform", string(p)).Msg("Duplicate adapter registration ignored")
			continue
		}
		m.adapters[p] = a
		m.order = append(m.order, p)
		if err := store.Save(context.Background(), model.SyncStatus{
			Platform: p,
			Status:   model.SyncPending,
		}); err != nil {
			log.Error().Err(err).Str("platform", string(p)).Msg("Failed to initialize sync status")
		}
	}
	return m
}

// EnabledPlatforms returns the registered platforms in registration order.
func (m *Manager) EnabledPlatforms() []model.Platform {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Platform(nil), m.order...)
}

// IsEnabled reports whether p has a registered adapter.
func (m *Manager) IsEnabled(p model.Platform) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.adapters[p]
	return ok
}

// DisablePlatform removes p's adapter and marks its status disabled.
// Disabled is terminal until the manager is rebuilt with the adapter.
func (m *Manager) DisablePlatform(ctx context.Context, p model.Platform) {
	m.mu.Lock()
	delete(m.adapters, p)
	filtered := m.order[:0]
	for _, existing := range m.order {
		if existing != p {
			filtered = append(filtered, existing)
		}
	}
	m.order = filtered
	m.mu.Unlock()

	if err := m.store.Save(ctx, model.SyncStatus{Platform: p, Status: model.SyncDisabled}); err != nil {
		log.Error().Err(err).Str("platform", string(p)).Msg("Failed to record disabled status")
	}
	log.Info().Str("platform", string(p)).Msg("Platform disabled")
}

func (m *Manager) adapter(p model.Platform) (platform.Adapter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.adapters[p]
	return a, ok
}

// AuthenticateAll probes every adapter concurrently. One platform's
// failure never aborts the others; partial authentication is a normal
// outcome.
func (m *Manager) AuthenticateAll(ctx context.Context) map[model.Platform]bool {
	platforms := m.EnabledPlatforms()
	results := make(map[model.Platform]bool, len(platforms))

	var resultMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range platforms {
		a, ok := m.adapter(p)
		if !ok {
			continue
		}
		g.Go(func() error {
			authed, err := a.Authenticate(gctx)

			resultMu.Lock()
			results[p] = authed && err == nil
			resultMu.Unlock()

			if err != nil {
				m.recordError(ctx, p, err)
			} else if !authed {
				m.recordError(ctx, p, platform.Errorf(p, "authenticate", platform.KindAuth,
					"invalid or missing credentials"))
			} else {
				m.recordSuccess(ctx, p, -1)
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors

	return results
}

// TestConnections probes every adapter concurrently without touching sync
// status.
func (m *Manager) TestConnections(ctx context.Context) map[model.Platform]bool {
	platforms := m.EnabledPlatforms()
	results := make(map[model.Platform]bool, len(platforms))

	var resultMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range platforms {
		a, ok := m.adapter(p)
		if !ok {
			continue
		}
		g.Go(func() error {
			authed, err := a.Authenticate(gctx)
			resultMu.Lock()
			results[p] = authed && err == nil
			resultMu.Unlock()
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	return results
}

// FetchAllPosts fans the fetch out to every adapter concurrently. A
// failing platform contributes an empty slice and an error sync status;
// the failure never propagates.
func (m *Manager) FetchAllPosts(ctx context.Context, opts model.FetchOptions) map[model.Platform][]model.UnifiedPost {
	platforms := m.EnabledPlatforms()
	results := make(map[model.Platform][]model.UnifiedPost, len(platforms))

	var resultMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range platforms {
		a, ok := m.adapter(p)
		if !ok {
			continue
		}
		g.Go(func() error {
			posts, err := a.FetchPosts(gctx, opts)
			if err != nil {
				log.Error().Err(err).Str("platform", string(p)).Msg("Post fetch failed")
				m.recordError(ctx, p, err)
				posts = []model.UnifiedPost{}
			} else {
				m.recordSuccess(ctx, p, len(posts))
			}

			resultMu.Lock()
			results[p] = posts
			resultMu.Unlock()
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	m.mu.Lock()
	m.lastSync = time.Now()
	m.mu.Unlock()

	return results
}

// FetchAggregatedPosts merges every platform's posts into one list sorted
// by creation time descending, then applies opts.Limit as a hard cap on
// the merged list. The per-platform limit in opts still applies to each
// adapter's own call.
func (m *Manager) FetchAggregatedPosts(ctx context.Context, opts model.FetchOptions) []model.UnifiedPost {
	byPlatform := m.FetchAllPosts(ctx, opts)

	var merged []model.UnifiedPost
	for _, p := range m.EnabledPlatforms() {
		merged = append(merged, byPlatform[p]...)
	}

	// Stable sort: same-timestamp posts keep their flatten order, which
	// follows platform registration order.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	if opts.Limit > 0 && len(merged) > opts.Limit {
		merged = merged[:opts.Limit]
	}
	return merged
}

// PublishToMany publishes sequentially, one platform at a time, so
// multi-platform publish outcomes stay easy to reason about and log in
// order. Each platform's outcome is captured independently; the call
// itself never fails on a partial outcome.
func (m *Manager) PublishToMany(ctx context.Context, platforms []model.Platform, content model.PostContent) map[model.Platform]PublishResult {
	publishID := uuid.NewString()
	results := make(map[model.Platform]PublishResult, len(platforms))

	for _, p := range platforms {
		a, ok := m.adapter(p)
		if !ok {
			results[p] = PublishResult{Err: platform.Errorf(p, "publish", platform.KindValidation,
				"platform not enabled")}
			continue
		}

		post, err := a.PublishPost(ctx, content)
		if err != nil {
			log.Error().Err(err).Str("publish_id", publishID).Str("platform", string(p)).
				Msg("Publish failed")
			results[p] = PublishResult{Err: err}
			m.recordError(ctx, p, err)
			continue
		}

		log.Info().Str("publish_id", publishID).Str("platform", string(p)).
			Str("post_id", post.ID).Msg("Publish succeeded")
		results[p] = PublishResult{Post: &post}
		m.recordSuccess(ctx, p, -1)
	}
	return results
}

// SyncAll runs the same fan-out as FetchAllPosts but discards the post
// payload, updating only sync statuses and counts. Intended for periodic
// background refresh.
func (m *Manager) SyncAll(ctx context.Context, opts model.FetchOptions) {
	byPlatform := m.FetchAllPosts(ctx, opts)
	total := 0
	for _, posts := range byPlatform {
		total += len(posts)
	}
	log.Info().Int("platforms", len(byPlatform)).Int("posts", total).Msg("Sync completed")
}

// SyncStatus returns one platform's status. Unknown or disabled platforms
// get a synthesized disabled record rather than an error.
func (m *Manager) SyncStatus(ctx context.Context, p model.Platform) model.SyncStatus {
	status, ok, err := m.store.Get(ctx, p)
	if err != nil {
		log.Error().Err(err).Str("platform", string(p)).Msg("Failed to load sync status")
	}
	if err != nil || !ok {
		return model.SyncStatus{Platform: p, Status: model.SyncDisabled}
	}
	if !m.IsEnabled(p) && status.Status != model.SyncDisabled {
		return model.SyncStatus{Platform: p, Status: model.SyncDisabled}
	}
	return status
}

// SyncStatuses returns the status of every registered platform.
func (m *Manager) SyncStatuses(ctx context.Context) map[model.Platform]model.SyncStatus {
	out := make(map[model.Platform]model.SyncStatus)
	for _, p := range m.EnabledPlatforms() {
		out[p] = m.SyncStatus(ctx, p)
	}
	return out
}

// LastSync returns the time of the most recent global fetch.
func (m *Manager) LastSync() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}

// recordSuccess stores a success status. A negative postsCount preserves
// the previous count (publish and auth outcomes do not change it).
func (m *Manager) recordSuccess(ctx context.Context, p model.Platform, postsCount int) {
	status := model.SyncStatus{
		Platform: p,
		Status:   model.SyncSuccess,
		LastSync: time.Now(),
	}
	if postsCount >= 0 {
		status.PostsCount = postsCount
	} else if prev, ok, err := m.store.Get(ctx, p); err == nil && ok {
		status.PostsCount = prev.PostsCount
	}
	if err := m.store.Save(ctx, status); err != nil {
		log.Error().Err(err).Str("platform", string(p)).Msg("Failed to record sync success")
	}
}

func (m *Manager) recordError(ctx context.Context, p model.Platform, opErr error) {
	status := model.SyncStatus{
		Platform:  p,
		Status:    model.SyncError,
		LastSync:  time.Now(),
		LastError: opErr.Error(),
	}
	if prev, ok, err := m.store.Get(ctx, p); err == nil && ok {
		status.PostsCount = prev.PostsCount
	}
	if err := m.store.Save(ctx, status); err != nil {
		log.Error().Err(err).Str("platform", string(p)).Msg("Failed to record sync error")
	}
}
