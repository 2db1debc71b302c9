package store

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	StatusPreparing OrderStatus = "preparing"
	StatusInTransit OrderStatus = "in_transit"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// TerminalStatuses are the statuses after which an order no longer changes.
var TerminalStatuses = []OrderStatus{StatusDelivered, StatusCancelled}

// ActiveStatuses are the statuses counted as in-flight on the dashboard.
var ActiveStatuses = []OrderStatus{StatusPreparing, StatusInTransit}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPreparing, StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Phrase renders the status for people, e.g. "in transit".
func (s OrderStatus) Phrase() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	OrderID           int64       `bun:"order_id,pk,type:integer" json:"order_id"`
	CustomerName      string      `bun:"customer_name,notnull" json:"customer_name"`
	Items             string      `bun:"items,notnull" json:"items"`
	Status            OrderStatus `bun:"status,notnull" json:"status"`
	EstimatedDelivery *time.Time  `bun:"estimated_delivery,type:timestamp" json:"estimated_delivery,omitempty"`
	RestaurantName    string      `bun:"restaurant_name" json:"restaurant_name"`
	DeliveryAddress   string      `bun:"delivery_address" json:"delivery_address"`
	PhoneNumber       string      `bun:"phone_number" json:"phone_number"`
	OrderTotal        float64     `bun:"order_total" json:"order_total"`
	CreatedAt         time.Time   `bun:"created_at,type:timestamp,notnull,default:current_timestamp" json:"created_at"`
}

// ItemList splits the comma-joined item column into trimmed names.
func (o *Order) ItemList() []string {
	if o == nil {
		return nil
	}
	parts := strings.Split(o.Items, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			items = append(items, name)
		}
	}
	return items
}

type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items,alias:m"`

	ItemID              int64   `bun:"item_id,pk,autoincrement,type:integer" json:"item_id"`
	Name                string  `bun:"name,notnull" json:"name"`
	Category            string  `bun:"category,notnull" json:"category"`
	Price               float64 `bun:"price,notnull" json:"price"`
	Description         string  `bun:"description" json:"description"`
	RecommendedPairings string  `bun:"recommended_pairings" json:"recommended_pairings"`
}

// Pairings returns the recommended pairings, dropping the "N/A" placeholder.
func (m *MenuItem) Pairings() string {
	if m == nil {
		return ""
	}
	p := strings.TrimSpace(m.RecommendedPairings)
	if strings.EqualFold(p, "n/a") {
		return ""
	}
	return p
}

type Feedback struct {
	bun.BaseModel `bun:"table:feedback,alias:f"`

	FeedbackID int64     `bun:"feedback_id,pk,autoincrement,type:integer" json:"feedback_id"`
	OrderID    int64     `bun:"order_id,type:integer" json:"order_id"`
	Rating     int       `bun:"rating,type:integer" json:"rating"`
	Comments   string    `bun:"comments" json:"comments"`
	CreatedAt  time.Time `bun:"created_at,type:timestamp,notnull,default:current_timestamp" json:"created_at"`
}

// FeedbackView is a feedback row joined with the customer who placed the order.
type FeedbackView struct {
	OrderID      int64     `bun:"order_id" json:"order_id"`
	CustomerName string    `bun:"customer_name" json:"customer_name"`
	Rating       int       `bun:"rating" json:"rating"`
	Comments     string    `bun:"comments" json:"comments"`
	CreatedAt    time.Time `bun:"created_at" json:"created_at"`
}

type RestaurantCount struct {
	RestaurantName string `bun:"restaurant_name" json:"restaurant_name"`
	OrderCount     int    `bun:"order_count" json:"order_count"`
}

type StatusCount struct {
	Status OrderStatus `bun:"status" json:"status"`
	Count  int         `bun:"count" json:"count"`
}

type RestaurantRevenue struct {
	RestaurantName string  `bun:"restaurant_name" json:"restaurant_name"`
	Revenue        float64 `bun:"revenue" json:"revenue"`
}

type RatingCount struct {
	Rating int `bun:"rating" json:"rating"`
	Count  int `bun:"count" json:"count"`
}

type Metrics struct {
	TotalOrders     int     `bun:"total_orders" json:"total_orders"`
	ActiveOrders    int     `bun:"active_orders" json:"active_orders"`
	DeliveredOrders int     `bun:"delivered_orders" json:"delivered_orders"`
	TotalRevenue    float64 `bun:"total_revenue" json:"total_revenue"`
}

type FeedbackSummary struct {
	AverageRating float64       `json:"average_rating"`
	Reviews       int           `json:"reviews"`
	Distribution  []RatingCount `json:"distribution"`
}
