package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"

	logx "github.com/tanpawarit/order-desk-assistant/pkg/logger"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateOrder = errors.New("order id already exists")
	ErrDatabase       = errors.New("database error")
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver       string `envconfig:"DRIVER" default:"sqlite"`
	DSN          string `envconfig:"DSN" default:"file:delivery_assistant.db?cache=shared"`
	MaxOpenConns int    `split_words:"true" default:"4"`
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}
	if strings.TrimSpace(c.DSN) == "" {
		return errors.New("database dsn is required")
	}
	return nil
}

// Store owns the orders, menu_items and feedback tables. It does not enforce
// status transitions or cross-table integrity; callers do.
type Store struct {
	db     *bun.DB
	driver string
	logger zerolog.Logger
	now    func() time.Time
}

func Open(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	var db *bun.DB
	switch driver {
	case DriverPostgres:
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("%w: open sqlite: %v", ErrDatabase, err)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	return &Store{
		db:     db,
		driver: driver,
		logger: logx.Component("store"),
		now:    time.Now,
	}, nil
}

func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		var one int
		if err := conn.NewSelect().ColumnExpr("1").Scan(ctx, &one); err != nil {
			return dbErr("ping", err)
		}
		return nil
	})
}

// withConn runs fn on a dedicated connection that is released on every exit path.
func (s *Store) withConn(ctx context.Context, fn func(ctx context.Context, conn bun.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return dbErr("acquire connection", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			s.logger.Warn().Err(cerr).Msg("release connection")
		}
	}()
	return fn(ctx, conn)
}

// Initialize creates the tables when absent and seeds sample data into an
// empty orders table. Safe to call on every startup.
func (s *Store) Initialize(ctx context.Context) error {
	return s.withConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		if err := createTables(ctx, conn); err != nil {
			return err
		}
		return conn.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return s.seed(ctx, tx)
		})
	})
}

func createTables(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateTable().Model((*Order)(nil)).IfNotExists().Exec(ctx); err != nil {
		return dbErr("create orders table", err)
	}
	if _, err := db.NewCreateTable().Model((*MenuItem)(nil)).IfNotExists().Exec(ctx); err != nil {
		return dbErr("create menu_items table", err)
	}
	if _, err := db.NewCreateTable().
		Model((*Feedback)(nil)).
		IfNotExists().
		ForeignKey(`("order_id") REFERENCES "orders" ("order_id")`).
		Exec(ctx); err != nil {
		return dbErr("create feedback table", err)
	}
	return nil
}

func (s *Store) seed(ctx context.Context, db bun.IDB) error {
	count, err := db.NewSelect().Model((*Order)(nil)).Count(ctx)
	if err != nil {
		return dbErr("count orders", err)
	}
	if count > 0 {
		s.logger.Debug().Int("orders", count).Msg("store already populated, skipping seed")
		return nil
	}

	now := s.now().UTC()
	orders := sampleOrders(now)
	if _, err := db.NewInsert().Model(&orders).Exec(ctx); err != nil {
		return dbErr("seed orders", err)
	}

	menu := sampleMenu()
	if _, err := db.NewInsert().Model(&menu).Exec(ctx); err != nil {
		return dbErr("seed menu items", err)
	}

	s.logger.Info().Int("orders", len(orders)).Int("menu_items", len(menu)).Msg("seeded sample data")
	return nil
}

func sampleOrders(now time.Time) []Order {
	at := func(d time.Duration) *time.Time {
		t := now.Add(d)
		return &t
	}
	return []Order{
		{
			OrderID: 1023, CustomerName: "John Doe", Items: "Margherita Pizza", Status: StatusInTransit,
			EstimatedDelivery: at(15 * time.Minute), RestaurantName: "Mario's Pizza",
			DeliveryAddress: "123 Main St, Totowa", PhoneNumber: "555-0123", OrderTotal: 18.99, CreatedAt: now,
		},
		{
			OrderID: 2042, CustomerName: "Jane Smith", Items: "Cheeseburger, Fries", Status: StatusPreparing,
			EstimatedDelivery: at(25 * time.Minute), RestaurantName: "Burger Palace",
			DeliveryAddress: "456 Oak Ave, Totowa", PhoneNumber: "555-0456", OrderTotal: 16.98, CreatedAt: now,
		},
		{
			OrderID: 3051, CustomerName: "Bob Johnson", Items: "Chicken Alfredo", Status: StatusDelivered,
			EstimatedDelivery: at(-30 * time.Minute), RestaurantName: "Pasta House",
			DeliveryAddress: "789 Pine Rd, Totowa", PhoneNumber: "555-0789", OrderTotal: 16.99, CreatedAt: now,
		},
	}
}

func sampleMenu() []MenuItem {
	return []MenuItem{
		{Name: "Margherita Pizza", Category: "Pizza", Price: 18.99, Description: "Classic tomato sauce, mozzarella, basil", RecommendedPairings: "Garlic Bread, Diet Coke, Red Wine"},
		{Name: "Cheeseburger", Category: "Burger", Price: 12.99, Description: "Beef patty, cheese, lettuce, tomato", RecommendedPairings: "Onion Rings, Milkshake, Extra Fries"},
		{Name: "Chicken Alfredo", Category: "Pasta", Price: 16.99, Description: "Grilled chicken, creamy alfredo sauce", RecommendedPairings: "House Salad, White Wine, Breadsticks"},
		{Name: "Caesar Salad", Category: "Salad", Price: 8.99, Description: "Romaine lettuce, croutons, parmesan", RecommendedPairings: "Soup, Iced Tea"},
		{Name: "Garlic Bread", Category: "Side", Price: 5.99, Description: "Toasted bread with garlic butter", RecommendedPairings: "Marinara Sauce"},
		{Name: "Fries", Category: "Side", Price: 3.99, Description: "Crispy golden fries", RecommendedPairings: "Ketchup"},
		{Name: "Diet Coke", Category: "Drink", Price: 2.50, Description: "A refreshing diet soda", RecommendedPairings: "N/A"},
	}
}

func dbErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDatabase, op, err)
}

// likePattern builds a lowercase substring pattern for LOWER(col) LIKE ?.
func likePattern(term string) string {
	return "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
}
