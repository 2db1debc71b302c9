package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

func (s *Store) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	var order Order
	err := s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		err := conn.NewSelect().Model(&order).Where("o.order_id = ?", orderID).Limit(1).Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return dbErr("get order", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) OrderExists(ctx context.Context, orderID int64) (bool, error) {
	var exists bool
	err := s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		ok, err := conn.NewSelect().Model((*Order)(nil)).Where("o.order_id = ?", orderID).Exists(ctx)
		if err != nil {
			return dbErr("order exists", err)
		}
		exists = ok
		return nil
	})
	return exists, err
}

func (s *Store) CountOrders(ctx context.Context) (int, error) {
	var count int
	err := s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		n, err := conn.NewSelect().Model((*Order)(nil)).Count(ctx)
		if err != nil {
			return dbErr("count orders", err)
		}
		count = n
		return nil
	})
	return count, err
}

// SetOrderStatus moves a non-terminal order to status. It reports false when
// the row is missing or already terminal, leaving the row untouched.
func (s *Store) SetOrderStatus(ctx context.Context, orderID int64, status OrderStatus) (bool, error) {
	var updated bool
	err := s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		res, err := conn.NewUpdate().
			Model((*Order)(nil)).
			Set("status = ?", status).
			Where("order_id = ?", orderID).
			Where("status NOT IN (?)", bun.In(TerminalStatuses)).
			Exec(ctx)
		if err != nil {
			return dbErr("set order status", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return dbErr("set order status rows", err)
		}
		updated = n > 0
		return nil
	})
	return updated, err
}

// UpdateOrderItems overwrites the item list and total in one statement.
// Last write wins; there is no version check.
func (s *Store) UpdateOrderItems(ctx context.Context, orderID int64, items string, total float64) error {
	return s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		res, err := conn.NewUpdate().
			Model((*Order)(nil)).
			Set("items = ?", items).
			Set("order_total = ?", total).
			Where("order_id = ?", orderID).
			Exec(ctx)
		if err != nil {
			return dbErr("update order items", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// OrderHistory returns up to limit orders whose customer name contains
// customer, newest first.
func (s *Store) OrderHistory(ctx context.Context, customer string, limit int) ([]Order, error) {
	var orders []Order
	err := s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		err := conn.NewSelect().
			Model(&orders).
			Where("LOWER(o.customer_name) LIKE ?", likePattern(customer)).
			OrderExpr("o.created_at DESC").
			OrderExpr("o.order_id DESC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return dbErr("order history", err)
		}
		return nil
	})
	return orders, err
}

// RestaurantOrderCounts groups order counts by every restaurant whose name contains name.
func (s *Store) RestaurantOrderCounts(ctx context.Context, name string) ([]RestaurantCount, error) {
	var counts []RestaurantCount
	err := s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		err := conn.NewSelect().
			Model((*Order)(nil)).
			Column("o.restaurant_name").
			ColumnExpr("COUNT(*) AS order_count").
			Where("LOWER(o.restaurant_name) LIKE ?", likePattern(name)).
			Group("o.restaurant_name").
			OrderExpr("o.restaurant_name ASC").
			Scan(ctx, &counts)
		if err != nil {
			return dbErr("restaurant order counts", err)
		}
		return nil
	})
	return counts, err
}

// AddOrder inserts an order as entered by an operator. Only primary key
// uniqueness is checked; status and totals are taken as given.
func (s *Store) AddOrder(ctx context.Context, order *Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.now().UTC()
	}
	if order.EstimatedDelivery == nil {
		eta := s.now().UTC().Add(30 * time.Minute)
		order.EstimatedDelivery = &eta
	}
	if order.Status == "" {
		order.Status = StatusPreparing
	}

	return s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		exists, err := conn.NewSelect().Model((*Order)(nil)).Where("o.order_id = ?", order.OrderID).Exists(ctx)
		if err != nil {
			return dbErr("check order id", err)
		}
		if exists {
			return ErrDuplicateOrder
		}
		if _, err := conn.NewInsert().Model(order).Exec(ctx); err != nil {
			return dbErr("insert order", err)
		}
		s.logger.Info().Int64("order_id", order.OrderID).Str("customer", order.CustomerName).Msg("order added")
		return nil
	})
}

func (s *Store) ListOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	err := s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		if err := conn.NewSelect().Model(&orders).OrderExpr("o.created_at DESC").OrderExpr("o.order_id DESC").Scan(ctx); err != nil {
			return dbErr("list orders", err)
		}
		return nil
	})
	return orders, err
}
