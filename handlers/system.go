package handlers

import (
	"net/http"
	"os"
	"time"

	"meeting-analysis-api/analyzer"
	"meeting-analysis-api/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func timestamp() string {
	return time.Now().Format(time.RFC3339Nano)
}

func HandleRoot(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger.Debug("Root endpoint accessed")
		c.JSON(http.StatusOK, gin.H{
			"service": utils.ServiceName,
			"version": utils.ServiceVersion,
			"status":  "running",
			"endpoints": gin.H{
				"health":  "/health",
				"upload":  "/upload",
				"analyze": "/analyze",
			},
			"message": "VERTA backend is running successfully!",
		})
	}
}

// HandleHealth reports liveness and AI configuration. The API key itself is
// never included.
func HandleHealth(cfg *utils.Config, orch *analyzer.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":          "healthy",
			"service":         utils.ServiceName,
			"version":         utils.ServiceVersion,
			"timestamp":       timestamp(),
			"api_key_present": cfg.AIEnabled(),
			"ai_configured":   orch.AIAvailable(),
			"model":           orch.Model(),
			"environment":     cfg.Environment(),
		})
	}
}

func HandleDebug(cfg *utils.Config, orch *analyzer.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		policy := orch.Policy()
		c.JSON(http.StatusOK, gin.H{
			"environment_vars": gin.H{
				"RENDER":                os.Getenv("RENDER") != "",
				"PORT":                  cfg.Port,
				"GEMINI_API_KEY":        cfg.AIEnabled(),
				"GEMINI_API_KEY_LENGTH": len(cfg.AI.GeminiAPIKey),
			},
			"upload_folder":      cfg.Uploads.Folder,
			"max_file_size":      policy.MaxSize,
			"allowed_extensions": policy.Allowed,
			"ai_model":           orch.Model(),
			"timestamp":          timestamp(),
		})
	}
}

func HandleNotFound(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger.Warn("404 error", zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	}
}

func HandleMethodNotAllowed(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger.Warn("405 error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	}
}

// Recover is the gin.RecoveryFunc passed to ginzap.CustomRecoveryWithZap.
func Recover(c *gin.Context, _ any) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
