package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/siteops/doc-validator-api/internal/models"
	"github.com/siteops/doc-validator-api/internal/repository"
	"github.com/siteops/doc-validator-api/internal/utils"
)

type AnalyticsService interface {
	Trends(ctx context.Context, days int) (*models.TrendReport, error)
}

// analyticsService answers trend queries from SQL aggregates with a small
// TTL cache in front; singleflight collapses concurrent recomputes of the
// same window.
type analyticsService struct {
	repo   repository.Repository
	logger *utils.Logger
	ttl    time.Duration

	mu    sync.Mutex
	cache map[int]trendEntry
	ff    singleflight.Group
}

type trendEntry struct {
	report    *models.TrendReport
	expiresAt time.Time
}

func NewAnalyticsService(repo repository.Repository, ttl time.Duration, logger *utils.Logger) AnalyticsService {
	return &analyticsService{
		repo:   repo,
		logger: logger,
		ttl:    ttl,
		cache:  map[int]trendEntry{},
	}
}

func (s *analyticsService) Trends(ctx context.Context, days int) (*models.TrendReport, error) {
	if days <= 0 {
		days = 30
	}

	s.mu.Lock()
	if entry, ok := s.cache[days]; ok && time.Now().Before(entry.expiresAt) {
		s.mu.Unlock()
		return entry.report, nil
	}
	s.mu.Unlock()

	v, err, _ := s.ff.Do(fmt.Sprintf("trends:%d", days), func() (any, error) {
		return s.compute(ctx, days)
	})
	if err != nil {
		s.logger.Error("Failed to compute trends", "error", err, "days", days)
		return nil, utils.NewInternalError("Failed to compute trend analytics")
	}

	report := v.(*models.TrendReport)
	s.mu.Lock()
	s.cache[days] = trendEntry{report: report, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	return report, nil
}

func (s *analyticsService) compute(ctx context.Context, days int) (*models.TrendReport, error) {
	since := time.Now().AddDate(0, 0, -days)

	runCount, avgScore, passRate, err := s.repo.RunStats(ctx, since)
	if err != nil {
		return nil, err
	}
	categories, err := s.repo.CategoryTrends(ctx, since)
	if err != nil {
		return nil, err
	}
	failures, err := s.repo.MostFailedChecks(ctx, since, 10)
	if err != nil {
		return nil, err
	}

	return &models.TrendReport{
		Days:             days,
		RunCount:         runCount,
		AvgOverallScore:  avgScore,
		PassRate:         passRate,
		CategoryAverages: categories,
		MostFailedChecks: failures,
	}, nil
}
