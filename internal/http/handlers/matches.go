package handlers

import (
	"net/http"
	"strconv"

	"codearena/internal/logger"

	"github.com/gin-gonic/gin"
)

const maxHistoryLimit = 100

// снимок матча: живой из хаба, завершённый и вычищенный из истории
func (h *Handler) GetMatch(c *gin.Context) {
	id := c.Param("id")
	if v, ok := h.Hub.MatchView(id); ok {
		c.JSON(http.StatusOK, gin.H{"live": true, "match": v})
		return
	}
	if h.History == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		return
	}

	rec, err := h.History.GetByID(c.Request.Context(), id)
	if err != nil {
		logger.Error("get match history", "match_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get match"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"live": false, "match": rec})
}

// последние матчи игрока
func (h *Handler) PlayerMatches(c *gin.Context) {
	if h.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history unavailable"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad limit"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	playerID := c.Param("id")
	recs, err := h.History.ListByPlayer(c.Request.Context(), playerID, limit)
	if err != nil {
		logger.Error("list player matches", "player_id", playerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get matches"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"player_id": playerID, "matches": recs})
}
