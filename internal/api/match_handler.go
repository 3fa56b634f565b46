package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/riclovato/furia-chatbot/internal/model"
	"github.com/riclovato/furia-chatbot/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type MatchHandler struct {
	syncService *service.SyncService
	messages    service.Messages
	logger      *logrus.Logger
}

func NewMatchHandler(syncService *service.SyncService, messages service.Messages, logger *logrus.Logger) *MatchHandler {
	return &MatchHandler{
		syncService: syncService,
		messages:    messages,
		logger:      logger,
	}
}

// ListMatches returns upcoming matches, refreshing them when the cache expired.
// GET /api/matches?force=false
func (h *MatchHandler) ListMatches(c *gin.Context) {
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))
	result, err := h.syncService.Sync(c.Request.Context(), service.SyncOptions{Force: force})
	if err != nil {
		h.logger.WithError(err).Warn("ListMatches served stale data")
	}
	c.JSON(http.StatusOK, h.render(result, err))
}

// RefreshMatches runs a sync cycle. force defaults to true here.
// POST /api/matches/refresh?force=true&clear=false
func (h *MatchHandler) RefreshMatches(c *gin.Context) {
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "true"))
	clearOnFailure, _ := strconv.ParseBool(c.DefaultQuery("clear", "false"))

	result, err := h.syncService.Sync(c.Request.Context(), service.SyncOptions{Force: force, ClearOnFailure: clearOnFailure})
	if err != nil {
		h.logger.WithError(err).Error("RefreshMatches failed")
		status := http.StatusBadGateway
		if errors.Is(err, model.ErrStorageIO) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, h.render(result, err))
		return
	}
	c.JSON(http.StatusOK, h.render(result, nil))
}

func (h *MatchHandler) render(result *service.SyncResult, err error) gin.H {
	if result == nil {
		result = &service.SyncResult{Matches: []model.Match{}, Stale: true, Empty: true}
	}
	body := gin.H{
		"matches":    result.Matches,
		"stale":      result.Stale,
		"from_cache": result.FromCache,
		"empty":      result.Empty,
		"message":    h.messages.MatchList(result.Matches, result.Stale),
	}
	if len(result.Rejections) > 0 {
		body["rejections"] = result.Rejections
	}
	if !result.FetchedAt.IsZero() {
		body["fetched_at"] = result.FetchedAt
	}
	if err != nil {
		body["error"] = err.Error()
	}
	if result.Stale && len(result.Matches) == 0 {
		body["fallback"] = service.FallbackLinks
	}
	return body
}
