package handlers

import (
	"net/http"

	"wellness/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the last dependency snapshot. A store outage turns the probe red; Redis
// only degrades caching and async delivery.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Store {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
