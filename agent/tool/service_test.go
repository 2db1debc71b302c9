package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanpawarit/order-desk-assistant/agent/notify"
	storex "github.com/tanpawarit/order-desk-assistant/agent/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) types() []notify.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notify.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestRegistry(t *testing.T) (*Registry, *storex.Store, *recordingPublisher) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := storex.Open(storex.Config{
		Driver:       storex.DriverSQLite,
		DSN:          fmt.Sprintf("file:tool_%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Initialize(context.Background()))

	pub := &recordingPublisher{}
	return NewRegistry(NewService(st, pub)), st, pub
}

func invoke(t *testing.T, r *Registry, tool, input string) string {
	t.Helper()
	reply, err := r.Invoke(context.Background(), tool, input)
	require.NoError(t, err)
	return reply
}

func TestTrackThenAddPairing(t *testing.T) {
	t.Parallel()
	r, st, pub := newTestRegistry(t)
	ctx := context.Background()

	reply := invoke(t, r, ToolTrackOrder, "1023")
	assert.Contains(t, reply, "Order #1023 is currently **in transit**")
	assert.Contains(t, reply, "Garlic Bread")
	assert.Contains(t, reply, "Estimated arrival: in about 15 minutes.")
	assert.Contains(t, reply, "add [item name] to order #1023")

	before, err := st.GetOrder(ctx, 1023)
	require.NoError(t, err)

	reply = invoke(t, r, ToolUpdateOrder, "1023,Garlic Bread")
	assert.Equal(t, "✅ Success! I have added **Garlic Bread** to order #1023. The new total is **$24.98**. The customer has been notified.", reply)

	after, err := st.GetOrder(ctx, 1023)
	require.NoError(t, err)
	assert.Equal(t, "Margherita Pizza, Garlic Bread", after.Items)
	assert.InDelta(t, 24.98, after.OrderTotal, 0.0001)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.CustomerName, after.CustomerName)
	assert.Equal(t, before.DeliveryAddress, after.DeliveryAddress)
	assert.Equal(t, []notify.EventType{notify.EventOrderItemAdded}, pub.types())
}

func TestTrackOrderPreparingExample(t *testing.T) {
	t.Parallel()
	r, st, _ := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, st.AddOrder(ctx, &storex.Order{
		OrderID:        1100,
		CustomerName:   "Ann Lee",
		Items:          "Margherita Pizza",
		Status:         storex.StatusPreparing,
		RestaurantName: "Mario's Pizza",
		OrderTotal:     18.99,
	}))

	reply := invoke(t, r, ToolTrackOrder, "#1100")
	assert.Contains(t, reply, "**preparing**")
	assert.Contains(t, reply, "Garlic Bread")

	reply = invoke(t, r, ToolUpdateOrder, "1100,garlic")
	assert.Contains(t, reply, "**Garlic Bread**")
	assert.Contains(t, reply, "**$24.98**")
}

func TestTrackOrderETA(t *testing.T) {
	t.Parallel()
	r, st, _ := newTestRegistry(t)
	ctx := context.Background()

	past := time.Now().Add(-5 * time.Minute)
	require.NoError(t, st.AddOrder(ctx, &storex.Order{
		OrderID: 4001, CustomerName: "Late Larry", Items: "Fries",
		Status: storex.StatusInTransit, EstimatedDelivery: &past,
	}))

	reply := invoke(t, r, ToolTrackOrder, "4001")
	assert.Contains(t, reply, "arriving momentarily")
	assert.Contains(t, reply, "Ketchup")

	reply = invoke(t, r, ToolTrackOrder, "3051")
	assert.Contains(t, reply, "**delivered**")
	assert.NotContains(t, reply, "Estimated arrival")
	assert.NotContains(t, reply, "Upsell")

	require.NoError(t, st.AddOrder(ctx, &storex.Order{
		OrderID: 4002, CustomerName: "Taco Tina", Items: "Tacos, Fries", Status: storex.StatusPreparing,
	}))
	reply = invoke(t, r, ToolTrackOrder, "4002")
	assert.Contains(t, reply, "No specific pairings found")

	assert.Equal(t, "❌ Order #9999 not found. Please check the order ID.", invoke(t, r, ToolTrackOrder, "9999"))
}

func TestCancelTerminalOrderLeavesStatus(t *testing.T) {
	t.Parallel()
	r, st, pub := newTestRegistry(t)

	reply := invoke(t, r, ToolCancelOrder, "3051")
	assert.Equal(t, "❌ Order #3051 cannot be cancelled as it is already delivered.", reply)

	order, err := st.GetOrder(context.Background(), 3051)
	require.NoError(t, err)
	assert.Equal(t, storex.StatusDelivered, order.Status)
	assert.Empty(t, pub.types())
}

func TestCancelIsIdempotent(t *testing.T) {
	t.Parallel()
	r, st, pub := newTestRegistry(t)

	reply := invoke(t, r, ToolCancelOrder, "2042")
	assert.True(t, strings.HasPrefix(reply, "✅ Order #2042 has been successfully cancelled."))
	assert.Contains(t, reply, refundPolicy)

	reply = invoke(t, r, ToolCancelOrder, "2042")
	assert.Equal(t, "❌ Order #2042 cannot be cancelled as it is already cancelled.", reply)

	order, err := st.GetOrder(context.Background(), 2042)
	require.NoError(t, err)
	assert.Equal(t, storex.StatusCancelled, order.Status)
	assert.Equal(t, []notify.EventType{notify.EventOrderCancelled}, pub.types())

	assert.Equal(t, "❌ Order #5555 not found.", invoke(t, r, ToolCancelOrder, "5555"))
}

func TestAddItemRefusesTerminalAndUnknown(t *testing.T) {
	t.Parallel()
	r, st, _ := newTestRegistry(t)

	assert.Equal(t, "❌ Item 'Sushi' not found in the menu.", invoke(t, r, ToolUpdateOrder, "1023,Sushi"))
	assert.Equal(t, "❌ Order #8888 not found.", invoke(t, r, ToolUpdateOrder, "8888,Fries"))
	assert.Equal(t, "❌ Order #3051 is already delivered and can no longer be changed.", invoke(t, r, ToolUpdateOrder, "3051,Fries"))

	order, err := st.GetOrder(context.Background(), 3051)
	require.NoError(t, err)
	assert.Equal(t, "Chicken Alfredo", order.Items)
}

func TestPublishFailureDoesNotChangeReply(t *testing.T) {
	t.Parallel()
	r, _, pub := newTestRegistry(t)
	pub.err = errors.New("sink down")

	reply := invoke(t, r, ToolCancelOrder, "1023")
	assert.True(t, strings.HasPrefix(reply, "✅"))
}

func TestMenuRecommendation(t *testing.T) {
	t.Parallel()
	r, _, _ := newTestRegistry(t)

	reply := invoke(t, r, ToolMenuRecommendation, "alfredo")
	assert.Contains(t, reply, "**Chicken Alfredo** (Pasta) - $16.99")
	assert.Contains(t, reply, "Pairs well with: House Salad, White Wine, Breadsticks")

	reply = invoke(t, r, ToolMenuRecommendation, "diet coke")
	assert.NotContains(t, reply, "Pairs well with")

	assert.Contains(t, invoke(t, r, ToolMenuRecommendation, "veggie burgers"), "Cheeseburger")
	assert.Contains(t, invoke(t, r, ToolMenuRecommendation, "penne pasta"), "Chicken Alfredo")
	assert.Contains(t, invoke(t, r, ToolMenuRecommendation, "sushi"), "couldn't find 'sushi'")
}

func TestOrderHistory(t *testing.T) {
	t.Parallel()
	r, st, _ := newTestRegistry(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-30 * 24 * time.Hour).Truncate(time.Minute)
	for i := 0; i < 6; i++ {
		require.NoError(t, st.AddOrder(ctx, &storex.Order{
			OrderID: int64(6000 + i), CustomerName: "Jane Smith", Items: "Fries",
			Status: storex.StatusDelivered, OrderTotal: 3.99,
			CreatedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		}))
	}

	reply := invoke(t, r, ToolOrderHistory, "jane")
	assert.True(t, strings.HasPrefix(reply, "📋 Order History for jane:"))
	assert.Equal(t, 5, strings.Count(reply, "\n- Order #"))
	// The seeded order is newest; the oldest added order falls off the list.
	assert.NotContains(t, reply, "#6000")
	assert.Less(t, strings.Index(reply, "#2042"), strings.Index(reply, "#6005"))
	assert.Less(t, strings.Index(reply, "#6005"), strings.Index(reply, "#6004"))
	newest := base.Add(5 * 24 * time.Hour).Format("2006-01-02 15:04")
	assert.Contains(t, reply, "#6005 ("+newest+"): Fries - Status: delivered - Total: $3.99")

	assert.Equal(t, "❌ No orders found for a customer named 'Zed'.", invoke(t, r, ToolOrderHistory, "Zed"))
}

func TestSubmitFeedback(t *testing.T) {
	t.Parallel()
	r, st, pub := newTestRegistry(t)
	ctx := context.Background()

	reply := invoke(t, r, ToolSubmitFeedback, "3051,4,Hot, fresh")
	assert.Equal(t, "✅ Thank you! Feedback for order #3051 has been recorded: ⭐⭐⭐⭐ (4/5).\nComments: Hot, fresh", reply)

	assert.Equal(t, ratingRangeReply, invoke(t, r, ToolSubmitFeedback, "3051,7,too good"))
	assert.Equal(t, ratingRangeReply, invoke(t, r, ToolSubmitFeedback, "3051,0"))
	assert.Equal(t, "❌ Order #4242 not found.", invoke(t, r, ToolSubmitFeedback, "4242,5"))

	count, err := st.CountFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []notify.EventType{notify.EventFeedbackSubmitted}, pub.types())
}

func TestSubmitFeedbackValidatesTypedRequests(t *testing.T) {
	t.Parallel()
	_, st, _ := newTestRegistry(t)
	svc := NewService(st, nil)

	assert.Equal(t, ratingRangeReply, svc.SubmitFeedback(context.Background(), FeedbackRequest{OrderID: 1023, Rating: 11}))

	count, err := st.CountFeedback(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRestaurantInfo(t *testing.T) {
	t.Parallel()
	r, _, _ := newTestRegistry(t)

	assert.Equal(t, "🏪 Restaurant info:\n- Burger Palace: 1 order", invoke(t, r, ToolRestaurantInfo, "burger"))
	assert.Equal(t, "❌ No restaurant found matching 'Taco Town'.", invoke(t, r, ToolRestaurantInfo, "Taco Town"))
}

type failingStore struct{ OrderStore }

func (failingStore) GetOrder(context.Context, int64) (*storex.Order, error) {
	return nil, fmt.Errorf("%w: connection refused", storex.ErrDatabase)
}

func TestStoreErrorsAreNotLeaked(t *testing.T) {
	t.Parallel()

	svc := NewService(failingStore{}, nil)
	reply := svc.TrackOrder(context.Background(), TrackOrderRequest{OrderID: 1023})
	assert.True(t, strings.HasPrefix(reply, "❌ An unexpected error occurred"))
	assert.NotContains(t, reply, "connection refused")
}

func TestETARoundsUp(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(nil, nil, WithClock(func() time.Time { return now }))
	eta := now.Add(61 * time.Second)
	order := &storex.Order{Status: storex.StatusPreparing, EstimatedDelivery: &eta}
	assert.Equal(t, "Estimated arrival: in about 2 minutes.", svc.etaLine(order))

	eta = now.Add(30 * time.Second)
	assert.Equal(t, "Estimated arrival: in about 1 minute.", svc.etaLine(order))

	order.Status = storex.StatusCancelled
	assert.Empty(t, svc.etaLine(order))
}
