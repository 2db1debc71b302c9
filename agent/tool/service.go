package tool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanpawarit/order-desk-assistant/agent/notify"
	storex "github.com/tanpawarit/order-desk-assistant/agent/store"
	logx "github.com/tanpawarit/order-desk-assistant/pkg/logger"
)

const (
	historyLimit = 5

	refundPolicy = "A full refund will be issued to the original payment method within 3-5 business days."
	genericRetry = "Please try again in a moment."
)

// OrderStore is the slice of the store the tools read and write.
type OrderStore interface {
	GetOrder(ctx context.Context, orderID int64) (*storex.Order, error)
	SetOrderStatus(ctx context.Context, orderID int64, status storex.OrderStatus) (bool, error)
	UpdateOrderItems(ctx context.Context, orderID int64, items string, total float64) error
	FindMenuItemByName(ctx context.Context, name string) (*storex.MenuItem, error)
	SearchMenuItemByName(ctx context.Context, term string) (*storex.MenuItem, error)
	SearchMenu(ctx context.Context, term string) (*storex.MenuItem, error)
	OrderHistory(ctx context.Context, customer string, limit int) ([]storex.Order, error)
	OrderExists(ctx context.Context, orderID int64) (bool, error)
	InsertFeedback(ctx context.Context, fb *storex.Feedback) error
	RestaurantOrderCounts(ctx context.Context, name string) ([]storex.RestaurantCount, error)
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service implements the order desk tools. Every method returns the text
// shown to the user and never an error; failures are logged here.
type Service struct {
	store  OrderStore
	events notify.Publisher
	now    func() time.Time
	logger zerolog.Logger
}

func NewService(store OrderStore, events notify.Publisher, opts ...Option) *Service {
	if events == nil {
		events = notify.Noop{}
	}
	s := &Service{
		store:  store,
		events: events,
		now:    time.Now,
		logger: logx.Component("tool"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) TrackOrder(ctx context.Context, req TrackOrderRequest) string {
	order, err := s.store.GetOrder(ctx, req.OrderID)
	if errors.Is(err, storex.ErrNotFound) {
		return fmt.Sprintf("❌ Order #%d not found. Please check the order ID.", req.OrderID)
	}
	if err != nil {
		return s.failure(ToolTrackOrder, err, "❌ An unexpected error occurred while tracking the order. "+genericRetry)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Order #%d is currently **%s**. The customer ordered: **%s**.", order.OrderID, order.Status.Phrase(), order.Items)
	if order.RestaurantName != "" {
		fmt.Fprintf(&b, "\nRestaurant: %s", order.RestaurantName)
	}
	if order.DeliveryAddress != "" {
		fmt.Fprintf(&b, "\nDelivery address: %s", order.DeliveryAddress)
	}
	if eta := s.etaLine(order); eta != "" {
		b.WriteString("\n" + eta)
	}

	if order.Status.IsTerminal() {
		return b.String()
	}

	items := order.ItemList()
	var pairings string
	if len(items) > 0 {
		item, err := s.store.FindMenuItemByName(ctx, items[0])
		switch {
		case err == nil:
			pairings = item.Pairings()
		case !errors.Is(err, storex.ErrNotFound):
			s.logger.Warn().Err(err).Int64("order_id", order.OrderID).Msg("pairing lookup failed")
		}
	}

	if pairings != "" {
		fmt.Fprintf(&b, "\n\n📈 **Upsell Opportunity**: You could recommend adding one of the following: **%s**.", pairings)
		fmt.Fprintf(&b, "\nTo add an item, ask me to 'add [item name] to order #%d'.", order.OrderID)
	} else {
		b.WriteString("\n\nNo specific pairings found for the items in this order.")
	}
	return b.String()
}

func (s *Service) etaLine(order *storex.Order) string {
	if order.EstimatedDelivery == nil || order.Status.IsTerminal() {
		return ""
	}
	remaining := order.EstimatedDelivery.Sub(s.now())
	if remaining <= 0 {
		return "Estimated arrival: arriving momentarily."
	}
	minutes := int(math.Ceil(remaining.Minutes()))
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("Estimated arrival: in about %d %s.", minutes, unit)
}

func (s *Service) CancelOrder(ctx context.Context, req CancelOrderRequest) string {
	const failed = "❌ An unexpected error occurred while cancelling the order. " + genericRetry

	order, err := s.store.GetOrder(ctx, req.OrderID)
	if errors.Is(err, storex.ErrNotFound) {
		return fmt.Sprintf("❌ Order #%d not found.", req.OrderID)
	}
	if err != nil {
		return s.failure(ToolCancelOrder, err, failed)
	}
	if order.Status.IsTerminal() {
		return alreadyTerminal(order)
	}

	updated, err := s.store.SetOrderStatus(ctx, req.OrderID, storex.StatusCancelled)
	if err != nil {
		return s.failure(ToolCancelOrder, err, failed)
	}
	if !updated {
		// Another writer moved the order to a terminal status first.
		latest, err := s.store.GetOrder(ctx, req.OrderID)
		if err != nil {
			return s.failure(ToolCancelOrder, err, failed)
		}
		return alreadyTerminal(latest)
	}

	s.publish(ctx, notify.NewEvent(notify.EventOrderCancelled, order.OrderID, s.now(), map[string]any{
		"previous_status": string(order.Status),
	}))
	return fmt.Sprintf("✅ Order #%d has been successfully cancelled. %s", order.OrderID, refundPolicy)
}

func alreadyTerminal(order *storex.Order) string {
	return fmt.Sprintf("❌ Order #%d cannot be cancelled as it is already %s.", order.OrderID, order.Status.Phrase())
}

func (s *Service) AddItem(ctx context.Context, req AddItemRequest) string {
	const failed = "❌ An unexpected error occurred while updating the order. " + genericRetry

	item, err := s.store.SearchMenuItemByName(ctx, req.ItemName)
	if errors.Is(err, storex.ErrNotFound) {
		return fmt.Sprintf("❌ Item '%s' not found in the menu.", req.ItemName)
	}
	if err != nil {
		return s.failure(ToolUpdateOrder, err, failed)
	}

	order, err := s.store.GetOrder(ctx, req.OrderID)
	if errors.Is(err, storex.ErrNotFound) {
		return fmt.Sprintf("❌ Order #%d not found.", req.OrderID)
	}
	if err != nil {
		return s.failure(ToolUpdateOrder, err, failed)
	}
	if order.Status.IsTerminal() {
		return fmt.Sprintf("❌ Order #%d is already %s and can no longer be changed.", order.OrderID, order.Status.Phrase())
	}

	items := item.Name
	if current := strings.TrimSpace(order.Items); current != "" {
		items = current + ", " + item.Name
	}
	total := roundCents(order.OrderTotal + item.Price)

	err = s.store.UpdateOrderItems(ctx, order.OrderID, items, total)
	if errors.Is(err, storex.ErrNotFound) {
		return fmt.Sprintf("❌ Order #%d not found.", req.OrderID)
	}
	if err != nil {
		return s.failure(ToolUpdateOrder, err, failed)
	}

	s.publish(ctx, notify.NewEvent(notify.EventOrderItemAdded, order.OrderID, s.now(), map[string]any{
		"item":      item.Name,
		"price":     item.Price,
		"new_total": total,
	}))
	return fmt.Sprintf(
		"✅ Success! I have added **%s** to order #%d. The new total is **$%.2f**. The customer has been notified.",
		item.Name, order.OrderID, total,
	)
}

var keywordSuggestions = []struct {
	keyword string
	reply   string
}{
	{"burger", "🍔 For burgers, try our Cheeseburger with Onion Rings and a Milkshake."},
	{"pizza", "🍕 For pizza, the Margherita Pizza goes great with Garlic Bread and a Diet Coke."},
	{"pasta", "🍝 For pasta, the Chicken Alfredo with a House Salad is a customer favourite."},
}

func (s *Service) MenuRecommendation(ctx context.Context, req MenuRecommendationRequest) string {
	item, err := s.store.SearchMenu(ctx, req.Query)
	if err == nil {
		var b strings.Builder
		fmt.Fprintf(&b, "🍽️ **%s** (%s) - $%.2f", item.Name, item.Category, item.Price)
		if item.Description != "" {
			fmt.Fprintf(&b, "\n%s", item.Description)
		}
		if p := item.Pairings(); p != "" {
			fmt.Fprintf(&b, "\nPairs well with: %s", p)
		}
		return b.String()
	}
	if !errors.Is(err, storex.ErrNotFound) {
		return s.failure(ToolMenuRecommendation, err, "❌ An unexpected error occurred while checking the menu. "+genericRetry)
	}

	q := strings.ToLower(req.Query)
	for _, ks := range keywordSuggestions {
		if strings.Contains(q, ks.keyword) {
			return ks.reply
		}
	}
	return fmt.Sprintf("🤔 I couldn't find '%s' on the menu. Ask me about pizza, burgers or pasta and I'll suggest something.", req.Query)
}

func (s *Service) OrderHistory(ctx context.Context, req OrderHistoryRequest) string {
	orders, err := s.store.OrderHistory(ctx, req.CustomerName, historyLimit)
	if err != nil {
		return s.failure(ToolOrderHistory, err, "❌ An unexpected error occurred while fetching the order history. "+genericRetry)
	}
	if len(orders) == 0 {
		return fmt.Sprintf("❌ No orders found for a customer named '%s'.", req.CustomerName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 Order History for %s:\n", req.CustomerName)
	for _, o := range orders {
		fmt.Fprintf(&b, "\n- Order #%d (%s): %s - Status: %s - Total: $%.2f",
			o.OrderID, o.CreatedAt.Format("2006-01-02 15:04"), o.Items, o.Status.Phrase(), o.OrderTotal)
	}
	return b.String()
}

func (s *Service) SubmitFeedback(ctx context.Context, req FeedbackRequest) string {
	const failed = "❌ An unexpected error occurred while saving the feedback. " + genericRetry

	if err := req.Validate(); err != nil {
		return ratingRangeReply
	}

	exists, err := s.store.OrderExists(ctx, req.OrderID)
	if err != nil {
		return s.failure(ToolSubmitFeedback, err, failed)
	}
	if !exists {
		return fmt.Sprintf("❌ Order #%d not found.", req.OrderID)
	}

	fb := &storex.Feedback{
		OrderID:   req.OrderID,
		Rating:    req.Rating,
		Comments:  req.Comments,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.InsertFeedback(ctx, fb); err != nil {
		return s.failure(ToolSubmitFeedback, err, failed)
	}

	s.publish(ctx, notify.NewEvent(notify.EventFeedbackSubmitted, req.OrderID, s.now(), map[string]any{
		"rating": req.Rating,
	}))

	reply := fmt.Sprintf("✅ Thank you! Feedback for order #%d has been recorded: %s (%d/5).",
		req.OrderID, strings.Repeat("⭐", req.Rating), req.Rating)
	if req.Comments != "" {
		reply += fmt.Sprintf("\nComments: %s", req.Comments)
	}
	return reply
}

func (s *Service) RestaurantInfo(ctx context.Context, req RestaurantInfoRequest) string {
	counts, err := s.store.RestaurantOrderCounts(ctx, req.Name)
	if err != nil {
		return s.failure(ToolRestaurantInfo, err, "❌ An unexpected error occurred while looking up the restaurant. "+genericRetry)
	}
	if len(counts) == 0 {
		return fmt.Sprintf("❌ No restaurant found matching '%s'.", req.Name)
	}

	var b strings.Builder
	b.WriteString("🏪 Restaurant info:")
	for _, c := range counts {
		unit := "orders"
		if c.OrderCount == 1 {
			unit = "order"
		}
		fmt.Fprintf(&b, "\n- %s: %d %s", c.RestaurantName, c.OrderCount, unit)
	}
	return b.String()
}

func (s *Service) publish(ctx context.Context, evt notify.Event) {
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Warn().
			Err(err).
			Str("event", string(evt.Type)).
			Int64("order_id", evt.OrderID).
			Msg("publish order event failed")
	}
}

// failure logs err and returns the fixed reply; driver text never reaches the user.
func (s *Service) failure(tool string, err error, reply string) string {
	s.logger.Error().Err(err).Str("tool", tool).Msg("tool failed")
	return reply
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
