package payment

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/tiyeni/coachpay/internal/models"
	"github.com/tiyeni/coachpay/pkg/types"
)

type ScanBillingRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanBillingResponse struct {
	Items []*models.BillingHistory `json:"items"`
	Total int64                    `json:"total"`
}

// ScanBilling implements paginated admin listing with filters.
func (s *Service) ScanBilling(ctx context.Context, req *ScanBillingRequest) (*ScanBillingResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.BillingHistory{})
	if len(req.Filters) > 0 {
		tx = tx.Where(types.CommonFilters(req.Filters))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count billing entries: %w", err)
	}

	var rows []*models.BillingHistory
	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list billing entries: %w", err)
	}

	return &ScanBillingResponse{Items: rows, Total: total}, nil
}
