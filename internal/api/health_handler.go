package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Banner GET /
func Banner(c *gin.Context) {
	c.String(http.StatusOK, "FURIA match bot is running")
}

// Health GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
