package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/pharmadesk/pharmadesk/internal/bill"
	"github.com/pharmadesk/pharmadesk/internal/config"
	"github.com/pharmadesk/pharmadesk/internal/customer"
	"github.com/pharmadesk/pharmadesk/internal/ingest"
	ingestdomain "github.com/pharmadesk/pharmadesk/internal/ingest/domain"
	"github.com/pharmadesk/pharmadesk/internal/ingest/progress"
	"github.com/pharmadesk/pharmadesk/internal/observability"
	obsmiddleware "github.com/pharmadesk/pharmadesk/internal/observability/logger"
	obsmetrics "github.com/pharmadesk/pharmadesk/internal/observability/metrics"
	obstracing "github.com/pharmadesk/pharmadesk/internal/observability/tracing"
	"github.com/pharmadesk/pharmadesk/internal/store"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	customer.Module,
	store.Module,
	bill.Module,
	ingest.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug: obsCfg.Debug(),
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine    *gin.Engine
	cfg       config.Config
	ingestSvc ingestdomain.Service
	events    *progress.Hub
}

type ServerParams struct {
	fx.In

	Gin       *gin.Engine
	Cfg       config.Config
	IngestSvc ingestdomain.Service
	Events    *progress.Hub `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:    p.Gin,
		cfg:       p.Cfg,
		ingestSvc: p.IngestSvc,
		events:    p.Events,
	}

	svc.registerIngestRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerIngestRoutes() {
	v1 := s.engine.Group("/v1/ingest")

	v1.POST("/receipts", s.SubmitReceipts)
	v1.POST("/statements", s.SubmitStatement)
	v1.GET("/jobs", s.ListJobs)
	v1.GET("/jobs/:id", s.GetJob)
	v1.GET("/jobs/:id/events", s.StreamJobEvents)
	v1.DELETE("/jobs/:id", s.DeleteJob)
}
