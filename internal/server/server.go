// Package server exposes the client action endpoint and the admin surface.
//
// The admin surface is unauthenticated and must be deployed behind a trusted
// network boundary.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	activitydomain "github.com/marianauyl-oss/amulet-backend-server/internal/activity/domain"
	apikeydomain "github.com/marianauyl-oss/amulet-backend-server/internal/apikey/domain"
	appconfigdomain "github.com/marianauyl-oss/amulet-backend-server/internal/appconfig/domain"
	"github.com/marianauyl-oss/amulet-backend-server/internal/config"
	licensedomain "github.com/marianauyl-oss/amulet-backend-server/internal/license/domain"
	obscontext "github.com/marianauyl-oss/amulet-backend-server/internal/observability/context"
	"github.com/marianauyl-oss/amulet-backend-server/internal/observability/logger"
	"github.com/marianauyl-oss/amulet-backend-server/internal/observability/metrics"
	voicedomain "github.com/marianauyl-oss/amulet-backend-server/internal/voice/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

type Params struct {
	fx.In

	Config       config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	Engine       *gin.Engine
	LicenseSvc   licensedomain.Service
	APIKeySvc    apikeydomain.Service
	VoiceSvc     voicedomain.Service
	AppConfigSvc appconfigdomain.Service
	ActivityRepo activitydomain.Repository
	HTTPMetrics  *metrics.HTTPMetrics `optional:"true"`
}

type Server struct {
	cfg    config.Config
	db     *gorm.DB
	log    *zap.Logger
	engine *gin.Engine

	licenseSvc   licensedomain.Service
	apikeySvc    apikeydomain.Service
	voiceSvc     voicedomain.Service
	appConfigSvc appconfigdomain.Service
	activityRepo activitydomain.Repository

	limiter *rateLimiter
}

// NewEngine builds the gin engine with the shared middleware stack.
func NewEngine(cfg config.Config, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.Use(metrics.GinMiddleware(httpMetrics))
	return engine
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:    p.Config,
		db:     p.DB,
		log:    p.Log.Named("server"),
		engine: p.Engine,

		licenseSvc:   p.LicenseSvc,
		apikeySvc:    p.APIKeySvc,
		voiceSvc:     p.VoiceSvc,
		appConfigSvc: p.AppConfigSvc,
		activityRepo: p.ActivityRepo,

		limiter: newRateLimiter(p.Config.API.RateLimit, p.Config.API.RateLimitWindow),
	}
}

func (s *Server) RegisterRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.POST("/api", s.RateLimited(), s.HandleAction)

	admin := s.engine.Group("/admin_api")
	{
		admin.GET("/licenses", s.AdminListLicenses)
		admin.POST("/licenses", s.AdminCreateLicense)
		admin.GET("/licenses/filter", s.AdminFilterLicenses)
		admin.PUT("/licenses/:id", s.AdminUpdateLicense)
		admin.DELETE("/licenses/:id", s.AdminDeleteLicense)

		admin.GET("/apikeys", s.AdminListAPIKeys)
		admin.POST("/apikeys", s.AdminCreateAPIKey)
		admin.DELETE("/apikeys/:id", s.AdminDeleteAPIKey)

		admin.GET("/voices", s.AdminListVoices)
		admin.POST("/voices", s.AdminCreateVoice)
		admin.POST("/voices/bulk", s.AdminBulkAddVoices)
		admin.DELETE("/voices/delete_all", s.AdminDeleteAllVoices)
		admin.DELETE("/voices/:id", s.AdminDeleteVoice)

		admin.GET("/logs", s.AdminListLogs)

		admin.GET("/config", s.AdminGetConfig)
		admin.PUT("/config", s.AdminUpdateConfig)

		admin.GET("/backup", s.AdminBackup)
		admin.GET("/backup/users", s.AdminBackupUsers)
	}
}

// RateLimited rejects clients that exceed the per-IP action budget.
func (s *Server) RateLimited() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter != nil && !s.limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"ok":  false,
				"msg": "Too many requests",
			})
			return
		}
		c.Next()
	}
}

// recovery converts any panic into the uniform failure envelope.
func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.FromContext(c.Request.Context()).Error("handler panic",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", obscontext.RequestIDFromGin(c)),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"ok":  false,
					"msg": fmt.Sprint(r),
				})
			}
		}()
		c.Next()
	}
}

// RunHTTP starts the HTTP listener on the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.Addr))
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
