package handlers

import (
	"context"
	"net/http"
	"time"

	"chessroom/internal/domain"
	"chessroom/internal/logger"

	"github.com/gin-gonic/gin"
)

type matchQuery struct {
	ClientIdentity string `form:"clientIdentity" binding:"required,clientid"`
	Limit          int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type matchView struct {
	*domain.Match
	Outcome domain.MatchOutcome `json:"outcome"`
}

// ListMatches returns the archived games of one client identity, newest first.
func (h *Handler) ListMatches(c *gin.Context) {
	if h.Matches == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "match archive disabled"})
		return
	}

	var q matchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	matches, err := h.Matches.ListByClient(ctx, q.ClientIdentity, q.Limit)
	if err != nil {
		logger.Error("list matches failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load matches"})
		return
	}

	out := make([]matchView, 0, len(matches))
	for _, m := range matches {
		outcome, _ := m.OutcomeFor(q.ClientIdentity)
		out = append(out, matchView{Match: m, Outcome: outcome})
	}
	c.JSON(http.StatusOK, gin.H{"matches": out})
}

// MatchStats returns the win/loss/draw tally of one client identity.
func (h *Handler) MatchStats(c *gin.Context) {
	if h.Matches == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "match archive disabled"})
		return
	}

	var q matchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Matches.StatsForClient(ctx, q.ClientIdentity)
	if err != nil {
		logger.Error("match stats failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
