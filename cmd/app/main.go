package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codearena/internal/bot"
	"codearena/internal/catalog"
	"codearena/internal/config"
	"codearena/internal/db"
	httpServer "codearena/internal/http"
	"codearena/internal/http/handlers"
	"codearena/internal/http/middleware"
	"codearena/internal/logger"
	"codearena/internal/repository"
	"codearena/internal/service"
	"codearena/internal/ws"

	"github.com/gin-gonic/gin"
)

// Version устанавливается при сборке
var Version = "dev"

func main() {
	cfg := config.Load()

	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Get()

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	service.InitJWT(cfg.JWTSecret)

	ctx := context.Background()
	cat := catalog.Seeded()

	var (
		history  handlers.HistoryReader
		profiles ws.ProfileSource
		opts     []ws.Option
	)

	// без базы арена работает на встроенном каталоге и без истории
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database connect failed", "error", err)
		}
		defer pool.Close()

		if err := db.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal("schema init failed", "error", err)
		}

		if n, err := cat.Load(ctx, repository.NewChallengeRepository(pool)); err != nil {
			log.Warn("challenge catalog not loaded, using built-in set", "error", err)
		} else {
			log.Info("challenge catalog loaded", "from_db", n, "total", cat.Len())
		}

		historyRepo := repository.NewMatchHistoryRepository(pool)
		history = historyRepo
		profiles = repository.NewProfileRepository(pool)
		opts = append(opts, ws.WithHistory(historyRepo))
	} else {
		log.Warn("DATABASE_URL not set - match history disabled")
	}

	hub := ws.NewHub(cfg.Match, cat, opts...)

	monitor := ws.NewMonitor(hub)
	if err := monitor.Start(); err != nil {
		logger.Fatal("liveness monitor failed", "error", err)
	}

	rdb := middleware.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis unavailable, rate limiter fails open", "error", err)
		}
		cancel()
	}
	limiter := middleware.NewRateLimiter(rdb, cfg.RateLimit, cfg.RateWindow)

	// бот стартует до HTTP, чтобы анонсы не потерялись
	var arenaBot *bot.ArenaBot
	if cfg.BotToken != "" {
		var err error
		arenaBot, err = bot.NewArenaBot(cfg.BotToken, hub, cfg.AdminTelegramIDs, cfg.AnnounceChatIDs)
		if err != nil {
			log.Error("failed to start bot", "error", err)
		} else {
			if len(cfg.AnnounceChatIDs) > 0 {
				hub.AddHistory(arenaBot)
			}
			arenaBot.Start()
			log.Info("bot started", "admin_ids", cfg.AdminTelegramIDs, "announce_chats", cfg.AnnounceChatIDs)
		}
	}

	r := httpServer.NewRouter(httpServer.RouterConfig{
		Handler:       handlers.NewHandler(hub, cat, history, Version),
		WS:            ws.NewWSHandler(hub, profiles, cfg.AllowedOrigin),
		Limiter:       limiter,
		AllowedOrigin: cfg.AllowedOrigin,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	if err := monitor.Stop(); err != nil {
		log.Warn("monitor stop", "error", err)
	}
	if arenaBot != nil {
		arenaBot.Stop()
	}
	// дописываем историю уже завершённых матчей
	hub.Wait()

	log.Info("server exited")
}
