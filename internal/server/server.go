package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	accountdomain "github.com/spediralabs/spedira/internal/account/domain"
	auditdomain "github.com/spediralabs/spedira/internal/audit/domain"
	"github.com/spediralabs/spedira/internal/config"
	"github.com/spediralabs/spedira/internal/mastercache"
	"github.com/spediralabs/spedira/internal/observability"
	pricelistdomain "github.com/spediralabs/spedira/internal/pricelist/domain"
	ratedomain "github.com/spediralabs/spedira/internal/rate/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config       config.Config
	Log          *zap.Logger
	DB           *gorm.DB
	Accounts     accountdomain.Resolver
	PriceListSvc pricelistdomain.Service
	RateSvc      ratedomain.Service
	AuditSvc     auditdomain.Recorder
	AuditExport  auditdomain.ExportService
	Cache        mastercache.Cache
	Metrics      *observability.Metrics `optional:"true"`
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger
	db     *gorm.DB

	accounts     accountdomain.Resolver
	priceListSvc pricelistdomain.Service
	rateSvc      ratedomain.Service
	auditSvc     auditdomain.Recorder
	auditExport  auditdomain.ExportService
	cache        mastercache.Cache
	metrics      *observability.Metrics
}

func NewServer(p Params) *Server {
	if p.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine:       gin.New(),
		cfg:          p.Config,
		log:          p.Log.Named("server"),
		db:           p.DB,
		accounts:     p.Accounts,
		priceListSvc: p.PriceListSvc,
		rateSvc:      p.RateSvc,
		auditSvc:     p.AuditSvc,
		auditExport:  p.AuditExport,
		cache:        p.Cache,
		metrics:      p.Metrics,
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(s.requestLogger())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/ready", s.GetSystemReadiness)

	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(
			promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}),
		))
	}

	api := s.engine.Group("/api/v1", s.IdentityRequired())
	{
		api.POST("/quotes", s.CreateQuote)
		api.POST("/quotes/compare", s.CompareQuotes)

		api.GET("/price-lists", s.ListPriceLists)
		api.GET("/price-lists/resolve", s.ResolvePriceList)
		api.GET("/price-lists/:id", s.GetPriceList)
		api.GET("/price-lists/:id/entries", s.ListPriceListEntries)
		api.PUT("/price-lists/:id/entries", s.UpsertPriceListEntries)
		api.DELETE("/price-lists/:id/entries/:entry_id", s.DeletePriceListEntry)
		api.POST("/price-lists/:id/assignments", s.AssignPriceList)
		api.DELETE("/price-lists/:id/assignments/:account_id", s.RevokeAssignment)
		api.GET("/price-lists/:id/audit", s.ListAuditEvents)
	}

	admin := s.engine.Group("/api/v1/admin", s.AdminKeyRequired())
	{
		admin.POST("/price-lists/:id/clone", s.ClonePriceList)
		admin.GET("/audit/export", s.ExportAuditEvents)
		admin.POST("/cache/invalidate", s.InvalidateMasterCache)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			s.log.Error("request failed", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		s.log.Info("request", fields...)
	}
}

func RunHTTP(lc fx.Lifecycle, s *Server, log *zap.Logger) {
	addr := s.cfg.App.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)
