package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/calculator/backend/internal/metrics"
	"github.com/codyseavey/calculator/backend/internal/middleware"
)

// LogError records an error report sent by the frontend. The body can be any
// JSON value; it is logged as-is.
func LogError(c *gin.Context) {
	reqID := middleware.GetRequestID(c)

	body, err := c.GetRawData()
	if err == nil {
		var report any
		if err = json.Unmarshal(body, &report); err == nil {
			compact, _ := json.Marshal(report)
			metrics.FrontendErrorsTotal.Inc()
			log.Printf("[%s] ERROR Frontend error: %s", reqID, compact)
			c.JSON(http.StatusOK, gin.H{"message": "Error logged"})
			return
		}
	}

	log.Printf("[%s] Failed to log frontend error: %v", reqID, err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Failed to log error: %v", err)})
}
