package store

import (
	"context"

	"github.com/uptrace/bun"
)

// DashboardMetrics returns headline counts and the revenue over all orders.
func (s *Store) DashboardMetrics(ctx context.Context) (Metrics, error) {
	var m Metrics
	err := s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		err := conn.NewSelect().
			Model((*Order)(nil)).
			ColumnExpr("COUNT(*) AS total_orders").
			ColumnExpr("COALESCE(SUM(CASE WHEN o.status IN (?) THEN 1 ELSE 0 END), 0) AS active_orders", bun.In(ActiveStatuses)).
			ColumnExpr("COALESCE(SUM(CASE WHEN o.status = ? THEN 1 ELSE 0 END), 0) AS delivered_orders", StatusDelivered).
			ColumnExpr("COALESCE(SUM(o.order_total), 0) AS total_revenue").
			Scan(ctx, &m)
		if err != nil {
			return dbErr("dashboard metrics", err)
		}
		return nil
	})
	return m, err
}

func (s *Store) StatusDistribution(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		err := conn.NewSelect().
			Model((*Order)(nil)).
			Column("o.status").
			ColumnExpr("COUNT(*) AS count").
			Group("o.status").
			OrderExpr("o.status ASC").
			Scan(ctx, &counts)
		if err != nil {
			return dbErr("status distribution", err)
		}
		return nil
	})
	return counts, err
}

func (s *Store) RevenueByRestaurant(ctx context.Context) ([]RestaurantRevenue, error) {
	var rows []RestaurantRevenue
	err := s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		err := conn.NewSelect().
			Model((*Order)(nil)).
			Column("o.restaurant_name").
			ColumnExpr("COALESCE(SUM(o.order_total), 0) AS revenue").
			Group("o.restaurant_name").
			OrderExpr("revenue DESC").
			Scan(ctx, &rows)
		if err != nil {
			return dbErr("revenue by restaurant", err)
		}
		return nil
	})
	return rows, err
}
