package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/pulseguard/pulseguard/internal/services/checker"
	"github.com/pulseguard/pulseguard/internal/services/stats"
	"github.com/pulseguard/pulseguard/internal/services/stream"
)

// Config carries the HTTP surface knobs.
type Config struct {
	Addr            string
	GracefulTimeout time.Duration
	AuthSecret      []byte
	TriggerKeyHash  string
}

// Deps are the services the router exposes.
type Deps struct {
	Log     *zap.Logger
	Checker *checker.Usecase
	Emitter *stream.Emitter
	Hub     *stream.Hub
	Stats   *stats.Handler
}

// Server is the public API: manual trigger, resumable stream, websocket
// subscriptions and the stats endpoints.
type Server struct {
	log  *zap.Logger
	http *http.Server
	cfg  Config
}

func New(cfg Config, d Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(d.Log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.POST("/checks/run", APIKeyAuth(cfg.TriggerKeyHash), triggerHandler(d.Checker, d.Log))

	authed := api.Group("", BearerAuth(cfg.AuthSecret, false))
	authed.GET("/stream/status", d.Emitter.Handle)
	d.Stats.Register(authed.Group("/stats"))

	r.GET("/ws/status", BearerAuth(cfg.AuthSecret, true), func(c *gin.Context) {
		d.Hub.HandleWS(c.Writer, c.Request)
	})

	return &Server{
		log: d.Log.With(zap.String("component", "gateway")),
		cfg: cfg,
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           otelhttp.NewHandler(r, "api"),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *Server) Run() error {
	s.log.Info("http listening", zap.String("addr", s.cfg.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
