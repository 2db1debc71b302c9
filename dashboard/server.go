package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	storex "github.com/tanpawarit/order-desk-assistant/agent/store"
	logx "github.com/tanpawarit/order-desk-assistant/pkg/logger"
)

type Config struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	SessionSecret   string        `split_words:"true" default:"change-me"`
	SessionName     string        `split_words:"true" default:"order_desk"`
	Mode            string        `envconfig:"MODE" default:"release"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("http addr is required")
	}
	if strings.TrimSpace(c.SessionSecret) == "" {
		return errors.New("http session secret is required")
	}
	switch c.Mode {
	case gin.ReleaseMode, gin.DebugMode, gin.TestMode:
	default:
		return fmt.Errorf("unsupported gin mode %q", c.Mode)
	}
	return nil
}

// Store is the slice of the order store the dashboard reads and writes.
type Store interface {
	Driver() string
	Ping(ctx context.Context) error
	DashboardMetrics(ctx context.Context) (storex.Metrics, error)
	ListOrders(ctx context.Context) ([]storex.Order, error)
	StatusDistribution(ctx context.Context) ([]storex.StatusCount, error)
	RevenueByRestaurant(ctx context.Context) ([]storex.RestaurantRevenue, error)
	ListFeedback(ctx context.Context) ([]storex.FeedbackView, error)
	FeedbackSummary(ctx context.Context) (storex.FeedbackSummary, error)
	AddOrder(ctx context.Context, order *storex.Order) error
	AddMenuItem(ctx context.Context, item *storex.MenuItem) error
}

// Chat is the conversational entry point behind /api/chat.
type Chat interface {
	Run(ctx context.Context, sessionID string, text string) string
	Reset(ctx context.Context, sessionID string) error
}

// ModelProbe reports whether the language model is reachable.
type ModelProbe func(ctx context.Context) error

type Server struct {
	cfg       Config
	store     Store
	chat      Chat
	probe     ModelProbe
	modelName string
	logger    zerolog.Logger
}

func New(cfg Config, store Store, chat Chat, modelName string, probe ModelProbe) (*Server, error) {
	if store == nil {
		return nil, errors.New("order store is required")
	}
	if chat == nil {
		return nil, errors.New("chat is required")
	}
	return &Server{
		cfg:       cfg,
		store:     store,
		chat:      chat,
		probe:     probe,
		modelName: modelName,
		logger:    logx.Component("dashboard"),
	}, nil
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.Use(sessions.Sessions(s.cfg.SessionName, cookie.NewStore([]byte(s.cfg.SessionSecret))))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")
	{
		api.GET("/metrics", s.getMetrics)
		api.GET("/orders", s.listOrders)
		api.POST("/orders", s.createOrder)
		api.POST("/menu-items", s.createMenuItem)
		api.GET("/feedback", s.listFeedback)
		api.GET("/charts/status", s.statusChart)
		api.GET("/charts/revenue", s.revenueChart)
		api.GET("/charts/ratings", s.ratingsChart)
		api.POST("/chat", s.chatMessage)
		api.DELETE("/chat", s.resetChat)
		api.GET("/status", s.systemStatus)
	}
	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	gin.SetMode(s.cfg.Mode)
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("dashboard listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown dashboard: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
