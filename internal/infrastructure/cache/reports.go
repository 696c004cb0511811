package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"guardian-audit/internal/domain/models"
)

// ErrReportNotFound is returned when a report is not stored
var ErrReportNotFound = errors.New("report not found")

// ReportStore keeps completed scan reports for later retrieval
type ReportStore interface {
	SaveReport(ctx context.Context, report *models.ScanReport) error
	GetReport(ctx context.Context, id uuid.UUID) (*models.ScanReport, error)
	LatestReport(ctx context.Context) (*models.ScanReport, error)
	ListReportIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	DeleteReport(ctx context.Context, id uuid.UUID) error
}

// RedisReportStore stores reports as JSON with a TTL and indexes them by
// completion time
type RedisReportStore struct {
	cache *RedisCache
	ttl   time.Duration
}

// NewRedisReportStore creates a report store on top of the Redis cache
func NewRedisReportStore(c *RedisCache, ttl time.Duration) *RedisReportStore {
	return &RedisReportStore{cache: c, ttl: ttl}
}

// SaveReport stores a report and marks it as the latest
func (s *RedisReportStore) SaveReport(ctx context.Context, report *models.ScanReport) error {
	if err := s.cache.SetJSON(ctx, KeyReportPrefix+report.ID.String(), report, s.ttl); err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}

	pipe := s.cache.Pipeline()
	pipe.Set(ctx, s.cache.key(KeyReportLatest), report.ID.String(), s.ttl)
	pipe.ZAdd(ctx, s.cache.key(KeyReportHistory), redis.Z{
		Score:  float64(report.CompletedAt.Unix()),
		Member: report.ID.String(),
	})
	if s.ttl > 0 {
		cutoff := time.Now().Add(-s.ttl).Unix()
		pipe.ZRemRangeByScore(ctx, s.cache.key(KeyReportHistory), "-inf", fmt.Sprintf("(%d", cutoff))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to index report: %w", err)
	}
	return nil
}

// GetReport loads a report by id
func (s *RedisReportStore) GetReport(ctx context.Context, id uuid.UUID) (*models.ScanReport, error) {
	var report models.ScanReport
	err := s.cache.GetJSON(ctx, KeyReportPrefix+id.String(), &report)
	if errors.Is(err, redis.Nil) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	return &report, nil
}

// LatestReport loads the most recently saved report
func (s *RedisReportStore) LatestReport(ctx context.Context) (*models.ScanReport, error) {
	raw, err := s.cache.Get(ctx, KeyReportLatest)
	if errors.Is(err, redis.Nil) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest report id: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid latest report id %q: %w", raw, err)
	}
	return s.GetReport(ctx, id)
}

// ListReportIDs returns report ids, newest first
func (s *RedisReportStore) ListReportIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	members, err := s.cache.client.ZRevRange(ctx, s.cache.key(KeyReportHistory), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DeleteReport removes a report and its history entry. The latest pointer is
// cleared when it names the deleted report.
func (s *RedisReportStore) DeleteReport(ctx context.Context, id uuid.UUID) error {
	n, err := s.cache.Delete(ctx, KeyReportPrefix+id.String())
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	pipe := s.cache.Pipeline()
	pipe.ZRem(ctx, s.cache.key(KeyReportHistory), id.String())
	latest := pipe.Get(ctx, s.cache.key(KeyReportLatest))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to unindex report: %w", err)
	}
	if latest.Val() == id.String() {
		if _, err := s.cache.Delete(ctx, KeyReportLatest); err != nil {
			return fmt.Errorf("failed to clear latest report: %w", err)
		}
	}

	if n == 0 {
		return ErrReportNotFound
	}
	return nil
}

// MemoryReportStore keeps the most recent reports in process. Used when Redis
// is not configured.
type MemoryReportStore struct {
	mu       sync.RWMutex
	capacity int
	order    []uuid.UUID
	reports  map[uuid.UUID]*models.ScanReport
}

// NewMemoryReportStore creates a store holding at most capacity reports
func NewMemoryReportStore(capacity int) *MemoryReportStore {
	if capacity <= 0 {
		capacity = 20
	}
	return &MemoryReportStore{
		capacity: capacity,
		reports:  make(map[uuid.UUID]*models.ScanReport, capacity),
	}
}

func (s *MemoryReportStore) SaveReport(_ context.Context, report *models.ScanReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[report.ID]; !exists {
		s.order = append(s.order, report.ID)
	}
	s.reports[report.ID] = report

	for len(s.order) > s.capacity {
		delete(s.reports, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

func (s *MemoryReportStore) GetReport(_ context.Context, id uuid.UUID) (*models.ScanReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	return report, nil
}

func (s *MemoryReportStore) LatestReport(_ context.Context) (*models.ScanReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return nil, ErrReportNotFound
	}
	return s.reports[s.order[len(s.order)-1]], nil
}

func (s *MemoryReportStore) ListReportIDs(_ context.Context, limit int) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0 && (limit <= 0 || len(ids) < limit); i-- {
		ids = append(ids, s.order[i])
	}
	return ids, nil
}

func (s *MemoryReportStore) DeleteReport(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[id]; !ok {
		return ErrReportNotFound
	}
	delete(s.reports, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// MultiReportStore writes to every store and reads from the first one that
// holds the report
type MultiReportStore []ReportStore

func (m MultiReportStore) SaveReport(ctx context.Context, report *models.ScanReport) error {
	var errs []error
	for _, s := range m {
		if err := s.SaveReport(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiReportStore) GetReport(ctx context.Context, id uuid.UUID) (*models.ScanReport, error) {
	return m.first(func(s ReportStore) (*models.ScanReport, error) { return s.GetReport(ctx, id) })
}

func (m MultiReportStore) LatestReport(ctx context.Context) (*models.ScanReport, error) {
	return m.first(func(s ReportStore) (*models.ScanReport, error) { return s.LatestReport(ctx) })
}

func (m MultiReportStore) ListReportIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var lastErr error
	for _, s := range m {
		ids, err := s.ListReportIDs(ctx, limit)
		if err != nil {
			lastErr = err
			continue
		}
		if len(ids) > 0 {
			return ids, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return []uuid.UUID{}, nil
}

// DeleteReport removes the report from every store. It succeeds when at least
// one store held the report.
func (m MultiReportStore) DeleteReport(ctx context.Context, id uuid.UUID) error {
	var errs []error
	deleted := false
	for _, s := range m {
		err := s.DeleteReport(ctx, id)
		switch {
		case err == nil:
			deleted = true
		case !errors.Is(err, ErrReportNotFound):
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if !deleted {
		return ErrReportNotFound
	}
	return nil
}

func (m MultiReportStore) first(get func(ReportStore) (*models.ScanReport, error)) (*models.ScanReport, error) {
	lastErr := ErrReportNotFound
	for _, s := range m {
		report, err := get(s)
		if err == nil {
			return report, nil
		}
		if !errors.Is(err, ErrReportNotFound) {
			lastErr = err
		}
	}
	return nil, lastErr
}
