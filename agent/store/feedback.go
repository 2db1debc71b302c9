package store

import (
	"context"

	"github.com/uptrace/bun"
)

// InsertFeedback appends a feedback row. The order reference is not checked here.
func (s *Store) InsertFeedback(ctx context.Context, fb *Feedback) error {
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = s.now().UTC()
	}
	return s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		if _, err := conn.NewInsert().Model(fb).Exec(ctx); err != nil {
			return dbErr("insert feedback", err)
		}
		return nil
	})
}

func (s *Store) CountFeedback(ctx context.Context) (int, error) {
	var count int
	err := s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		n, err := conn.NewSelect().Model((*Feedback)(nil)).Count(ctx)
		if err != nil {
			return dbErr("count feedback", err)
		}
		count = n
		return nil
	})
	return count, err
}

// ListFeedback returns feedback joined with the ordering customer, newest first.
func (s *Store) ListFeedback(ctx context.Context) ([]FeedbackView, error) {
	var rows []FeedbackView
	err := s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		err := conn.NewSelect().
			TableExpr("feedback AS f").
			Join("JOIN orders AS o ON o.order_id = f.order_id").
			ColumnExpr("f.order_id, o.customer_name, f.rating, f.comments, f.created_at").
			OrderExpr("f.created_at DESC").
			OrderExpr("f.feedback_id DESC").
			Scan(ctx, &rows)
		if err != nil {
			return dbErr("list feedback", err)
		}
		return nil
	})
	return rows, err
}

func (s *Store) FeedbackSummary(ctx context.Context) (FeedbackSummary, error) {
	var summary FeedbackSummary
	err := s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		var dist []RatingCount
		err := conn.NewSelect().
			Model((*Feedback)(nil)).
			Column("f.rating").
			ColumnExpr("COUNT(*) AS count").
			Group("f.rating").
			OrderExpr("f.rating ASC").
			Scan(ctx, &dist)
		if err != nil {
			return dbErr("rating distribution", err)
		}

		total, sum := 0, 0
		for _, rc := range dist {
			total += rc.Count
			sum += rc.Rating * rc.Count
		}
		summary.Reviews = total
		summary.Distribution = dist
		if total > 0 {
			summary.AverageRating = float64(sum) / float64(total)
		}
		return nil
	})
	return summary, err
}
