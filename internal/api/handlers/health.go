package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Root is the liveness endpoint the frontend pings on load.
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Server is running"})
}

type HealthHandler struct {
	models         []string
	allowedFormats []string
	maxPixels      int
}

func NewHealthHandler(models, allowedFormats []string, maxPixels int) *HealthHandler {
	return &HealthHandler{
		models:         models,
		allowedFormats: allowedFormats,
		maxPixels:      maxPixels,
	}
}

// Health reports the static configuration the server was started with.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"models":           h.models,
		"allowed_formats":  h.allowedFormats,
		"max_image_pixels": h.maxPixels,
	})
}
