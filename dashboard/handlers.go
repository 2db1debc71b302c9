package dashboard

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	storex "github.com/tanpawarit/order-desk-assistant/agent/store"
)

const chatSessionKey = "chat_session_id"

type CreateOrderRequest struct {
	OrderID           int64      `json:"order_id" binding:"required,gt=0"`
	CustomerName      string     `json:"customer_name" binding:"required"`
	Items             string     `json:"items" binding:"required"`
	Status            string     `json:"status"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
	RestaurantName    string     `json:"restaurant_name"`
	DeliveryAddress   string     `json:"delivery_address"`
	PhoneNumber       string     `json:"phone_number"`
	OrderTotal        float64    `json:"order_total" binding:"gte=0"`
}

type CreateMenuItemRequest struct {
	Name                string  `json:"name" binding:"required"`
	Category            string  `json:"category" binding:"required"`
	Price               float64 `json:"price" binding:"gte=0"`
	Description         string  `json:"description"`
	RecommendedPairings string  `json:"recommended_pairings"`
}

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

func (s *Server) getMetrics(c *gin.Context) {
	metrics, err := s.store.DashboardMetrics(c.Request.Context())
	if err != nil {
		s.internalError(c, "load metrics", err)
		return
	}
	summary, err := s.store.FeedbackSummary(c.Request.Context())
	if err != nil {
		s.internalError(c, "load feedback summary", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_orders":     metrics.TotalOrders,
		"active_orders":    metrics.ActiveOrders,
		"delivered_orders": metrics.DeliveredOrders,
		"total_revenue":    metrics.TotalRevenue,
		"average_rating":   summary.AverageRating,
		"reviews":          summary.Reviews,
	})
}

func (s *Server) listOrders(c *gin.Context) {
	orders, err := s.store.ListOrders(c.Request.Context())
	if err != nil {
		s.internalError(c, "list orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// createOrder inserts an order exactly as entered. Tool-side rules such as
// the terminal-status guard do not apply here.
func (s *Server) createOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	status := storex.OrderStatus(strings.TrimSpace(req.Status))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + req.Status})
		return
	}

	order := &storex.Order{
		OrderID:           req.OrderID,
		CustomerName:      strings.TrimSpace(req.CustomerName),
		Items:             strings.TrimSpace(req.Items),
		Status:            status,
		EstimatedDelivery: req.EstimatedDelivery,
		RestaurantName:    strings.TrimSpace(req.RestaurantName),
		DeliveryAddress:   strings.TrimSpace(req.DeliveryAddress),
		PhoneNumber:       strings.TrimSpace(req.PhoneNumber),
		OrderTotal:        req.OrderTotal,
	}
	if err := s.store.AddOrder(c.Request.Context(), order); err != nil {
		if errors.Is(err, storex.ErrDuplicateOrder) {
			c.JSON(http.StatusConflict, gin.H{"error": "order id already exists"})
			return
		}
		s.internalError(c, "add order", err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *Server) createMenuItem(c *gin.Context) {
	var req CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	item := &storex.MenuItem{
		Name:                strings.TrimSpace(req.Name),
		Category:            strings.TrimSpace(req.Category),
		Price:               req.Price,
		Description:         strings.TrimSpace(req.Description),
		RecommendedPairings: strings.TrimSpace(req.RecommendedPairings),
	}
	if err := s.store.AddMenuItem(c.Request.Context(), item); err != nil {
		s.internalError(c, "add menu item", err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) listFeedback(c *gin.Context) {
	feedback, err := s.store.ListFeedback(c.Request.Context())
	if err != nil {
		s.internalError(c, "list feedback", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": feedback})
}

func (s *Server) statusChart(c *gin.Context) {
	dist, err := s.store.StatusDistribution(c.Request.Context())
	if err != nil {
		s.internalError(c, "status distribution", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": dist})
}

func (s *Server) revenueChart(c *gin.Context) {
	revenue, err := s.store.RevenueByRestaurant(c.Request.Context())
	if err != nil {
		s.internalError(c, "revenue by restaurant", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurants": revenue})
}

func (s *Server) ratingsChart(c *gin.Context) {
	summary, err := s.store.FeedbackSummary(c.Request.Context())
	if err != nil {
		s.internalError(c, "feedback summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) chatMessage(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	sessionID, err := chatSession(c)
	if err != nil {
		s.internalError(c, "save chat session", err)
		return
	}
	reply := s.chat.Run(c.Request.Context(), sessionID, req.Message)
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (s *Server) resetChat(c *gin.Context) {
	sess := sessions.Default(c)
	sessionID, _ := sess.Get(chatSessionKey).(string)
	if sessionID == "" {
		c.Status(http.StatusNoContent)
		return
	}
	if err := s.chat.Reset(c.Request.Context(), sessionID); err != nil {
		s.internalError(c, "reset chat", err)
		return
	}
	sess.Delete(chatSessionKey)
	if err := sess.Save(); err != nil {
		s.internalError(c, "clear chat session", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) systemStatus(c *gin.Context) {
	ctx := c.Request.Context()

	database := "connected"
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("database ping failed")
		database = "unavailable"
	}

	model := "not configured"
	if s.probe != nil {
		model = "reachable"
		if err := s.probe(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("model probe failed")
			model = "unreachable"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"model":        s.modelName,
		"model_status": model,
		"driver":       s.store.Driver(),
		"database":     database,
	})
}

// chatSession returns the caller's chat session id, assigning one on first use.
func chatSession(c *gin.Context) (string, error) {
	sess := sessions.Default(c)
	if id, ok := sess.Get(chatSessionKey).(string); ok && id != "" {
		return id, nil
	}
	id := uuid.NewString()
	sess.Set(chatSessionKey, id)
	if err := sess.Save(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.logger.Error().Err(err).Str("op", op).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
