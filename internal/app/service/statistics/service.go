package statistics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tiyeni/coachpay/internal/models"
	"github.com/tiyeni/coachpay/pkg/types"
)

type StatisticType string

const (
	StatisticTypeSubscriptionsByTier   StatisticType = "subscriptions_by_tier"
	StatisticTypeSubscriptionsByStatus StatisticType = "subscriptions_by_status"
	StatisticTypeRevenueByDay          StatisticType = "revenue_by_day"
)

var supportedTypes = []StatisticType{
	StatisticTypeSubscriptionsByTier,
	StatisticTypeSubscriptionsByStatus,
	StatisticTypeRevenueByDay,
}

type Request struct {
	From  string          `json:"from"` // inclusive, YYYY-MM-DD
	To    string          `json:"to"`   // inclusive, YYYY-MM-DD
	Items []StatisticType `json:"items"`
}

type DataPoint struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

type Response struct {
	Items map[StatisticType][]DataPoint `json:"items"`
}

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// Query computes the requested statistics concurrently and merges the
// results per type.
func (s *Service) Query(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || len(req.Items) == 0 {
		return nil, fmt.Errorf("no statistic items requested")
	}
	items := lo.Uniq(req.Items)
	for _, it := range items {
		if !lo.Contains(supportedTypes, it) {
			return nil, fmt.Errorf("unsupported statistic type: %s", it)
		}
	}

	resChan := make(chan *lo.Entry[StatisticType, []DataPoint], len(items))
	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	for _, it := range items {
		wg.Add(1)
		go func(it StatisticType) {
			defer wg.Done()
			points, err := s.compute(ctx, it, req)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			resChan <- &lo.Entry[StatisticType, []DataPoint]{Key: it, Value: points}
		}(it)
	}
	wg.Wait()
	close(resChan)

	if firstErr != nil {
		return nil, firstErr
	}

	out := &Response{Items: map[StatisticType][]DataPoint{}}
	for entry := range resChan {
		out.Items[entry.Key] = entry.Value
	}
	return out, nil
}

func (s *Service) compute(ctx context.Context, it StatisticType, req *Request) ([]DataPoint, error) {
	switch it {
	case StatisticTypeSubscriptionsByTier:
		return s.groupSubscriptions(ctx, "tier")
	case StatisticTypeSubscriptionsByStatus:
		return s.groupSubscriptions(ctx, "status")
	case StatisticTypeRevenueByDay:
		return s.revenueByDay(ctx, req.From, req.To)
	}
	return nil, fmt.Errorf("unsupported statistic type: %s", it)
}

type labelValue struct {
	Label string
	Value int64
}

func (s *Service) groupSubscriptions(ctx context.Context, column string) ([]DataPoint, error) {
	var rows []labelValue
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Select(fmt.Sprintf("%s as label, count(*) as value", column)).
		Where("status IN ?", []types.SubscriptionStatus{types.SubscriptionStatusTrial, types.SubscriptionStatusActive}).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group subscriptions by %s: %w", column, err)
	}
	return lo.Map(rows, func(r labelValue, _ int) DataPoint {
		return DataPoint{Label: r.Label, Value: r.Value}
	}), nil
}

func (s *Service) revenueByDay(ctx context.Context, from, to string) ([]DataPoint, error) {
	if _, err := time.Parse("2006-01-02", from); err != nil {
		return nil, fmt.Errorf("invalid from date: %w", err)
	}
	if _, err := time.Parse("2006-01-02", to); err != nil {
		return nil, fmt.Errorf("invalid to date: %w", err)
	}

	var rows []labelValue
	err := s.db.WithContext(ctx).Model(&models.BillingHistory{}).
		Select("DATE(paid_at)::text as label, COALESCE(SUM(amount), 0) as value").
		Where("status = ? AND DATE(paid_at) BETWEEN ? AND ?", types.BillingStatusPaid, from, to).
		Group("DATE(paid_at)").
		Order("label").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return lo.Map(rows, func(r labelValue, _ int) DataPoint {
		return DataPoint{Label: r.Label, Value: r.Value}
	}), nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
