package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/futebagres/pelada-api/internal/dto"
	"github.com/futebagres/pelada-api/internal/models"
	"github.com/futebagres/pelada-api/pkg/cache"
	appErrors "github.com/futebagres/pelada-api/pkg/errors"
)

type heatmapProvider interface {
	Today() time.Time
	HeatmapDays(ctx context.Context, userID string, today time.Time) ([]models.CalendarDay, error)
}

type invalidationQueue interface {
	Enqueue(userIDs []string) error
}

// DashboardCache owns the per-user dashboard cache keys. It is shared by the
// dashboard and by every service whose writes change what a dashboard shows.
type DashboardCache struct {
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
	queue  invalidationQueue
}

// NewDashboardCache constructs the cache. A nil CacheService disables it.
func NewDashboardCache(cacheSvc *CacheService, ttl time.Duration, logger *zap.Logger) *DashboardCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardCache{cache: cacheSvc, ttl: ttl, logger: logger}
}

// UseQueue sets the queue that retries invalidations which failed inline.
func (d *DashboardCache) UseQueue(q invalidationQueue) {
	d.queue = q
}

// Key is the cache key of userID's dashboard on day.
func (d *DashboardCache) Key(userID string, day time.Time) string {
	return cache.Key("dashboard", userID, day.Format(models.DateLayout))
}

// Invalidate drops every cached dashboard of the given users before
// returning, so the next read sees the write. Users whose keys could not be
// deleted are handed to the retry queue when one is set.
func (d *DashboardCache) Invalidate(ctx context.Context, userIDs ...string) {
	if d == nil {
		return
	}
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}
	failed := d.invalidate(ctx, ids)
	if len(failed) == 0 || d.queue == nil {
		return
	}
	if err := d.queue.Enqueue(failed); err != nil {
		d.logger.Warn("dashboard invalidation retry not queued", zap.Strings("user_ids", failed), zap.Error(err))
	}
}

// InvalidateNow deletes the cached dashboards of userIDs and reports an
// error when any of them could not be deleted.
func (d *DashboardCache) InvalidateNow(ctx context.Context, userIDs []string) error {
	if failed := d.invalidate(ctx, userIDs); len(failed) > 0 {
		return fmt.Errorf("invalidate dashboards of %d users", len(failed))
	}
	return nil
}

func (d *DashboardCache) invalidate(ctx context.Context, userIDs []string) []string {
	var failed []string
	for _, id := range userIDs {
		if err := d.cache.Invalidate(ctx, cache.Key("dashboard", id, "*")); err != nil {
			d.logger.Warn("dashboard cache invalidate", zap.String("user_id", id), zap.Error(err))
			failed = append(failed, id)
		}
	}
	return failed
}

func (d *DashboardCache) get(ctx context.Context, key string, dest *dto.DashboardView) bool {
	if d == nil {
		return false
	}
	hit, err := d.cache.Get(ctx, key, dest)
	return err == nil && hit
}

func (d *DashboardCache) set(ctx context.Context, key string, view *dto.DashboardView) {
	if d == nil {
		return
	}
	_ = d.cache.Set(ctx, key, view, d.ttl)
}

// DashboardService composes the home screen of a player.
type DashboardService struct {
	events  eventFeedSource
	heatmap heatmapProvider
	cache   *DashboardCache
	logger  *zap.Logger
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(events eventFeedSource, heatmap heatmapProvider, dashboardCache *DashboardCache, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{events: events, heatmap: heatmap, cache: dashboardCache, logger: logger}
}

// Get returns userID's dashboard. The unfiltered view is cached per user and
// day; search narrows the event lists afterwards. The flag reports a cache hit.
func (s *DashboardService) Get(ctx context.Context, userID, search string) (*dto.DashboardView, bool, error) {
	today := s.heatmap.Today()
	key := s.cache.Key(userID, today)

	var view dto.DashboardView
	hit := s.cache.get(ctx, key, &view)
	if !hit {
		built, err := s.build(ctx, userID, today)
		if err != nil {
			return nil, false, err
		}
		view = *built
		s.cache.set(ctx, key, built)
	}

	view.Search = search
	view.Owned = FilterEvents(view.Owned, search)
	view.Participating = FilterEvents(view.Participating, search)
	return &view, hit, nil
}

// Invalidate drops the cached dashboards of the given users.
func (s *DashboardService) Invalidate(ctx context.Context, userIDs ...string) {
	s.cache.Invalidate(ctx, userIDs...)
}

func (s *DashboardService) build(ctx context.Context, userID string, today time.Time) (*dto.DashboardView, error) {
	owned, err := s.events.ListOwned(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list owned events")
	}
	participating, err := s.events.ListParticipating(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list joined events")
	}
	days, err := s.heatmap.HeatmapDays(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	if owned == nil {
		owned = []models.Event{}
	}
	if participating == nil {
		participating = []models.Event{}
	}
	return &dto.DashboardView{Owned: owned, Participating: participating, Heatmap: days}, nil
}
