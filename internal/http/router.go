package http

import (
	"codearena/internal/http/handlers"
	"codearena/internal/http/middleware"
	"codearena/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	Handler       *handlers.Handler
	WS            *ws.WSHandler
	Limiter       *middleware.RateLimiter // nil = без лимита
	AllowedOrigin string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.CORS(cfg.AllowedOrigin))

	h := cfg.Handler
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limited := r.Group("/")
	if cfg.Limiter != nil {
		limited.Use(cfg.Limiter.Middleware())
	}

	limited.GET("/ws", cfg.WS.HandleWS())

	api := limited.Group("/api")
	api.GET("/challenges", h.ListChallenges)
	api.GET("/challenges/:id", h.GetChallenge)
	api.GET("/challenge-pick", h.PickChallenge)
	api.GET("/matches/:id", h.GetMatch)
	api.GET("/players/:id/matches", h.PlayerMatches)

	return r
}
