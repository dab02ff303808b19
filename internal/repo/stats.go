package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
)

type SalesSummary struct {
	OrdersByStatus map[models.OrderStatus]int64 `json:"orders_by_status"`
	TotalOrders    int64                        `json:"total_orders"`
	Revenue        int64                        `json:"revenue"`
	PaidRevenue    int64                        `json:"paid_revenue"`
}

func (r *GormRepo) SalesSummary(ctx context.Context) (*SalesSummary, error) {
	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := r.db(ctx).Model(&models.Order{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := &SalesSummary{OrdersByStatus: make(map[models.OrderStatus]int64, len(rows))}
	for _, row := range rows {
		out.OrdersByStatus[row.Status] = row.Count
		out.TotalOrders += row.Count
	}

	if err := r.db(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total_price), 0)").
		Where("status <> ?", models.StatusCancelled).
		Scan(&out.Revenue).Error; err != nil {
		return nil, err
	}
	if err := r.db(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total_price), 0)").
		Where("payment_status = ?", models.PaymentPaid).
		Scan(&out.PaidRevenue).Error; err != nil {
		return nil, err
	}
	return out, nil
}
