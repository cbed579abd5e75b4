package handlers

import (
	"context"
	"net/http"
	"time"

	"meeting-analysis-api/utils"
	valkeystore "meeting-analysis-api/valkey"

	"github.com/gin-gonic/gin"
)

// HandleDependencyStatus pings the optional backends. Unconfigured ones are
// reported as disabled; the endpoint itself always answers 200.
func HandleDependencyStatus(cfg *utils.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		c.JSON(http.StatusOK, gin.H{
			"database": dependencyStatus(cfg.PostgresEnabled() && utils.DB != nil, func() error {
				return utils.DB.PingContext(ctx)
			}),
			"cache": dependencyStatus(cfg.ValkeyEnabled() && valkeystore.RawClient != nil, func() error {
				return valkeystore.Ping(ctx)
			}),
			"object_storage": gin.H{"enabled": cfg.S3Enabled() && utils.S3Client != nil},
		})
	}
}

func dependencyStatus(enabled bool, ping func() error) gin.H {
	if !enabled {
		return gin.H{"enabled": false}
	}
	if err := ping(); err != nil {
		return gin.H{"enabled": true, "connected": false, "error": err.Error()}
	}
	return gin.H{"enabled": true, "connected": true}
}
