package api

import (
	"net/http"
	"strings"

	"github.com/riclovato/furia-chatbot/internal/interfaces"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SubscriptionHandler manages the bot-wide alert subscriber list.
type SubscriptionHandler struct {
	store  interfaces.MatchStore
	logger *logrus.Logger
}

func NewSubscriptionHandler(store interfaces.MatchStore, logger *logrus.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{store: store, logger: logger}
}

type subscribeRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// ListSubscriptions GET /api/subscriptions
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	subs, err := h.store.Subscriptions(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("ListSubscriptions failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": subs, "total": len(subs)})
}

// Subscribe POST /api/subscriptions {"user_id": "..."}
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	userID := strings.TrimSpace(req.UserID)

	added, err := h.store.AddSubscription(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Subscribe failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !added {
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "message": "already subscribed"})
		return
	}
	h.logger.WithField("user_id", userID).Info("subscribed")
	c.JSON(http.StatusCreated, gin.H{"user_id": userID, "message": "subscribed"})
}

// Unsubscribe DELETE /api/subscriptions/:user_id
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	userID := c.Param("user_id")
	removed, err := h.store.RemoveSubscription(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Unsubscribe failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "not subscribed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "message": "unsubscribed"})
}
