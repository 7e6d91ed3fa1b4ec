package ws

import (
	"context"
	"net/http"
	"time"

	"codearena/internal/domain"
	"codearena/internal/logger"
	"codearena/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ProfileSource профиль игрока из identity-хранилища
type ProfileSource interface {
	GetProfile(ctx context.Context, playerID string) (*domain.Profile, error)
}

// WSHandler зависимости для апгрейда соединения
type WSHandler struct {
	Hub           *Hub
	Profiles      ProfileSource // nil = профиль берётся из findMatch
	AllowedOrigin string
}

func NewWSHandler(hub *Hub, profiles ProfileSource, allowedOrigin string) *WSHandler {
	return &WSHandler{Hub: hub, Profiles: profiles, AllowedOrigin: allowedOrigin}
}

func (h *WSHandler) HandleWS() gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if h.AllowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == h.AllowedOrigin
		},
	}

	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		playerID, err := service.ParseJWT(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		profile := h.loadProfile(c.Request.Context(), playerID)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade error", "player_id", playerID, "error", err)
			return
		}

		client := NewClient(playerID, profile, conn, h.Hub)
		go client.Run()
	}
}

// loadProfile ошибка хранилища не мешает игре, профиль тогда придёт в findMatch
func (h *WSHandler) loadProfile(ctx context.Context, playerID string) domain.Profile {
	if h.Profiles == nil {
		return domain.Profile{}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	p, err := h.Profiles.GetProfile(ctx, playerID)
	if err != nil {
		logger.Warn("profile lookup failed", "player_id", playerID, "error", err)
		return domain.Profile{}
	}
	if p == nil {
		return domain.Profile{}
	}
	return *p
}
