package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storex "github.com/tanpawarit/order-desk-assistant/agent/store"
)

type fakeChat struct {
	mu       sync.Mutex
	sessions []string
	resets   []string
}

func (f *fakeChat) Run(ctx context.Context, sessionID string, text string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, sessionID)
	return "echo: " + text
}

func (f *fakeChat) Reset(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, sessionID)
	return nil
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupTestRouter(t *testing.T, probe ModelProbe) (*gin.Engine, *storex.Store, *fakeChat) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := storex.Open(storex.Config{
		Driver:       storex.DriverSQLite,
		DSN:          fmt.Sprintf("file:dashboard_%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Initialize(context.Background()))

	chat := &fakeChat{}
	srv, err := New(Config{
		Addr:          ":0",
		SessionSecret: "test-secret-key",
		SessionName:   "order_desk",
		Mode:          gin.TestMode,
	}, st, chat, "openai/gpt-4o-mini", probe)
	require.NoError(t, err)

	return srv.Router(), st, chat
}

func performRequest(r http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	t.Parallel()
	r, _, _ := setupTestRouter(t, nil)

	w := performRequest(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsOnSeededStore(t *testing.T) {
	t.Parallel()
	r, _, _ := setupTestRouter(t, nil)

	w := performRequest(r, http.MethodGet, "/api/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body["total_orders"])
	assert.EqualValues(t, 2, body["active_orders"])
	assert.EqualValues(t, 1, body["delivered_orders"])
	assert.InDelta(t, 52.96, body["total_revenue"], 0.001)
	assert.EqualValues(t, 0, body["reviews"])
}

func TestCreateOrderAndDuplicate(t *testing.T) {
	t.Parallel()
	r, st, _ := setupTestRouter(t, nil)

	req := CreateOrderRequest{
		OrderID:        5001,
		CustomerName:   "Ana Lopez",
		Items:          "Caesar Salad",
		Status:         "delivered",
		RestaurantName: "Green Bowl",
		OrderTotal:     8.99,
	}
	w := performRequest(r, http.MethodPost, "/api/orders", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	order, err := st.GetOrder(context.Background(), 5001)
	require.NoError(t, err)
	assert.Equal(t, storex.StatusDelivered, order.Status)
	assert.NotNil(t, order.EstimatedDelivery)

	w = performRequest(r, http.MethodPost, "/api/orders", req)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = performRequest(r, http.MethodPost, "/api/orders", CreateOrderRequest{OrderID: 5002, CustomerName: "x", Items: "y", Status: "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(r, http.MethodPost, "/api/orders", map[string]any{"customer_name": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateMenuItem(t *testing.T) {
	t.Parallel()
	r, st, _ := setupTestRouter(t, nil)

	w := performRequest(r, http.MethodPost, "/api/menu-items", CreateMenuItemRequest{
		Name: "Tiramisu", Category: "Dessert", Price: 6.5, RecommendedPairings: "Espresso",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	item, err := st.FindMenuItemByName(context.Background(), "tiramisu")
	require.NoError(t, err)
	assert.Equal(t, "Espresso", item.Pairings())
}

func TestChartsAndFeedback(t *testing.T) {
	t.Parallel()
	r, st, _ := setupTestRouter(t, nil)
	require.NoError(t, st.InsertFeedback(context.Background(), &storex.Feedback{OrderID: 3051, Rating: 4, Comments: "warm"}))

	w := performRequest(r, http.MethodGet, "/api/charts/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"in_transit"`)

	w = performRequest(r, http.MethodGet, "/api/charts/revenue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mario's Pizza")

	w = performRequest(r, http.MethodGet, "/api/charts/ratings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary storex.FeedbackSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Reviews)
	assert.InDelta(t, 4.0, summary.AverageRating, 0.001)

	w = performRequest(r, http.MethodGet, "/api/feedback", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Bob Johnson")

	w = performRequest(r, http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"order_id":1023`)
}

func TestChatKeepsSessionAcrossRequests(t *testing.T) {
	t.Parallel()
	r, _, chat := setupTestRouter(t, nil)

	w := performRequest(r, http.MethodPost, "/api/chat", ChatRequest{Message: "track 1023"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reply":"echo: track 1023"}`, w.Body.String())

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	w = performRequest(r, http.MethodPost, "/api/chat", ChatRequest{Message: "cancel it"}, cookies...)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, chat.sessions, 2)
	assert.NotEmpty(t, chat.sessions[0])
	assert.Equal(t, chat.sessions[0], chat.sessions[1])

	w = performRequest(r, http.MethodDelete, "/api/chat", nil, cookies...)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{chat.sessions[0]}, chat.resets)

	w = performRequest(r, http.MethodPost, "/api/chat", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSystemStatus(t *testing.T) {
	t.Parallel()
	r, _, _ := setupTestRouter(t, func(context.Context) error { return errors.New("401 unauthorized") })

	w := performRequest(r, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "openai/gpt-4o-mini", body["model"])
	assert.Equal(t, "unreachable", body["model_status"])
	assert.Equal(t, storex.DriverSQLite, body["driver"])
	assert.Equal(t, "connected", body["database"])
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := Config{Addr: ":8080", SessionSecret: "s", Mode: gin.ReleaseMode}
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.Mode = "verbose"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.SessionSecret = " "
	assert.Error(t, bad.Validate())
}
