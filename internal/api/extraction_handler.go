package api

import (
	"net/http"
	"strconv"

	"github.com/riclovato/furia-chatbot/internal/interfaces"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ExtractionHandler struct {
	runs   interfaces.ExtractionLog
	logger *logrus.Logger
}

// NewExtractionHandler exposes recent sync runs. runs may be nil (file backend).
func NewExtractionHandler(runs interfaces.ExtractionLog, logger *logrus.Logger) *ExtractionHandler {
	return &ExtractionHandler{runs: runs, logger: logger}
}

// ListRuns GET /api/extractions?limit=20
func (h *ExtractionHandler) ListRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "extraction history needs the gorm store backend"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.runs.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("ListRuns failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "total": len(runs)})
}
