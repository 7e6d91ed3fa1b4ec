package handlers

import (
	"net/http"

	"codearena/internal/domain"

	"github.com/gin-gonic/gin"
)

func difficultyParam(c *gin.Context) (domain.Difficulty, bool) {
	d := domain.Difficulty(c.Query("difficulty"))
	if d != "" && !d.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown difficulty"})
		return "", false
	}
	return d, true
}

// список задач, ?difficulty= фильтрует
func (h *Handler) ListChallenges(c *gin.Context) {
	d, ok := difficultyParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": h.Catalog.List(d)})
}

func (h *Handler) GetChallenge(c *gin.Context) {
	ch, ok := h.Catalog.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "challenge not found"})
		return
	}
	c.JSON(http.StatusOK, ch)
}

// случайная задача: так клиент выбирает, что предложить в матче
func (h *Handler) PickChallenge(c *gin.Context) {
	d, ok := difficultyParam(c)
	if !ok {
		return
	}
	ch, ok := h.Catalog.Pick(d)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no challenges for difficulty"})
		return
	}
	c.JSON(http.StatusOK, ch)
}
