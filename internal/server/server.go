package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Dev-Aaron27/fireboard/internal/config"
	"github.com/Dev-Aaron27/fireboard/internal/handler"
	"github.com/Dev-Aaron27/fireboard/internal/repository"
)

type Server struct {
	router *gin.Engine
	db     *sqlx.DB
	cfg    *config.Config
	logger *zap.Logger
}

func NewServer(db *sqlx.DB, cfg *config.Config, logger *zap.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router: router,
		db:     db,
		cfg:    cfg,
		logger: logger,
	}

	s.router.Use(corsMiddleware(cfg.Server.CORSOrigins))
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	adRepo := repository.NewAdRepository(s.db, s.logger)
	adHandler := handler.NewAdHandler(adRepo, s.logger)

	// Liveness probe, kept as plain text for the hosting platform's pinger.
	s.router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Fire Board backend is running!")
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.POST("/ads", adHandler.SubmitAd)
	s.router.GET("/ads", adHandler.ListAds)

	// The dashboard and the original bot talk to /api/ads.
	apiGroup := s.router.Group("/api")
	{
		apiGroup.POST("/ads", adHandler.SubmitAd)
		apiGroup.GET("/ads", adHandler.ListAds)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if _, ok := allowed[origin]; ok {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) Run(port string) {
	addr := ":" + port
	s.logger.Info("Server starting", zap.String("address", addr))
	if err := s.router.Run(addr); err != nil {
		s.logger.Fatal("Server failed to start", zap.Error(err))
	}
}
