package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

// FindMenuItemByName matches the whole name, ignoring case.
func (s *Store) FindMenuItemByName(ctx context.Context, name string) (*MenuItem, error) {
	return s.firstMenuItem(ctx, "find menu item", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("LOWER(m.name) = LOWER(?)", name)
	})
}

// SearchMenuItemByName returns the first item, by item_id, whose name
// contains term. Several items may match; only the first is returned.
func (s *Store) SearchMenuItemByName(ctx context.Context, term string) (*MenuItem, error) {
	return s.firstMenuItem(ctx, "search menu item", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("LOWER(m.name) LIKE ?", likePattern(term))
	})
}

// SearchMenu is SearchMenuItemByName widened to descriptions.
func (s *Store) SearchMenu(ctx context.Context, term string) (*MenuItem, error) {
	pattern := likePattern(term)
	return s.firstMenuItem(ctx, "search menu", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("LOWER(m.name) LIKE ?", pattern).
				WhereOr("LOWER(m.description) LIKE ?", pattern)
		})
	})
}

func (s *Store) firstMenuItem(
	ctx context.Context,
	op string,
	filter func(*bun.SelectQuery) *bun.SelectQuery,
) (*MenuItem, error) {
	var item MenuItem
	err := s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		q := filter(conn.NewSelect().Model(&item))
		err := q.OrderExpr("m.item_id ASC").Limit(1).Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return dbErr(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) AddMenuItem(ctx context.Context, item *MenuItem) error {
	return s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		if _, err := conn.NewInsert().Model(item).Exec(ctx); err != nil {
			return dbErr("insert menu item", err)
		}
		s.logger.Info().Str("name", item.Name).Float64("price", item.Price).Msg("menu item added")
		return nil
	})
}

func (s *Store) ListMenu(ctx context.Context) ([]MenuItem, error) {
	var items []MenuItem
	err := s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		if err := conn.NewSelect().Model(&items).OrderExpr("m.item_id ASC").Scan(ctx); err != nil {
			return dbErr("list menu", err)
		}
		return nil
	})
	return items, err
}
