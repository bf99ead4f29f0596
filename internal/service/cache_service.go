package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/classhub/classhub-api/internal/models"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
)

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cacheMetrics interface {
	RecordCacheOperation(operation, result string)
}

// CacheService fronts Redis for class payloads. When disabled or when the
// store is nil every read is a miss and every write is a no-op, so callers
// never need to branch on cache availability.
type CacheService struct {
	store   cacheStore
	ttl     time.Duration
	enabled bool
	logger  *zap.Logger
	metrics cacheMetrics
}

// NewCacheService constructs the cache layer.
func NewCacheService(store cacheStore, ttl time.Duration, enabled bool, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{store: store, ttl: ttl, enabled: enabled, logger: logger}
}

// WithMetrics attaches a recorder for hit/miss/write counters.
func (s *CacheService) WithMetrics(metrics cacheMetrics) *CacheService {
	s.metrics = metrics
	return s
}

func (s *CacheService) record(operation, result string) {
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(operation, result)
	}
}

// Enabled reports whether caching is active.
func (s *CacheService) Enabled() bool {
	return s.enabled && s.store != nil
}

// Get loads a cached payload into dest, returning ErrCacheMiss when absent.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	if !s.Enabled() {
		return appErrors.ErrCacheMiss
	}
	err := s.store.Get(ctx, key, dest)
	if err == nil {
		s.record("get", "hit")
		return nil
	}
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	s.record("get", "miss")
	return appErrors.ErrCacheMiss
}

// Set stores a payload under key. Failures are logged, not propagated.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) {
	if !s.Enabled() {
		return
	}
	if err := s.store.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		s.record("set", "error")
		return
	}
	s.record("set", "ok")
}

// InvalidateClasses drops every cached class payload. Called after any write
// so stale lists or details never outlive a mutation.
func (s *CacheService) InvalidateClasses(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	if err := s.store.DeleteByPattern(ctx, "classes:*"); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}

// ClassKey builds the cache key for a single class detail.
func ClassKey(id string) string {
	return "classes:id:" + id
}

// ClassListKey builds a cache key covering the full filter shape.
func ClassListKey(f models.ClassFilter) string {
	return fmt.Sprintf("classes:list:%s:%s:%s:%s:%s:%d:%d",
		f.TeacherID, f.Subject, f.Search, f.SortBy, f.SortOrder, f.Page, f.PageSize)
}
