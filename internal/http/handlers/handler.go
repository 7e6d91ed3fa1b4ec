package handlers

import (
	"context"
	"net/http"

	"codearena/internal/catalog"
	"codearena/internal/domain"
	"codearena/internal/ws"

	"github.com/gin-gonic/gin"
)

// HistoryReader чтение истории матчей (postgres)
type HistoryReader interface {
	GetByID(ctx context.Context, matchID string) (*domain.MatchRecord, error)
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]*domain.MatchRecord, error)
}

type Handler struct {
	Hub     *ws.Hub
	Catalog *catalog.Catalog
	History HistoryReader // nil без базы
	Version string
}

func NewHandler(hub *ws.Hub, cat *catalog.Catalog, history HistoryReader, version string) *Handler {
	return &Handler{Hub: hub, Catalog: cat, History: history, Version: version}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"version":      h.Version,
		"connections":  h.Hub.Connections(),
		"waiting":      h.Hub.Waiting(),
		"live_matches": len(h.Hub.LiveRooms()),
		"challenges":   h.Catalog.Len(),
	})
}
