package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"meeting-analysis-api/analyzer"
	"meeting-analysis-api/media"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleAnalyze runs the analysis pipeline on the multipart field "file".
func HandleAnalyze(logger *zap.Logger, orch *analyzer.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		sugar := logger.Sugar()

		fh, verr := formFile(c, sugar, orch.Policy())
		if verr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
			return
		}

		src, err := fh.Open()
		if err != nil {
			sugar.Errorw("File processing failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Analysis failed: %v", err)})
			return
		}
		defer src.Close()

		out, err := orch.Analyze(c.Request.Context(), fh.Filename, fh.Size, src)
		if err != nil {
			var verr *media.ValidationError
			if errors.As(err, &verr) {
				sugar.Warnw("Analysis request rejected",
					"filename", fh.Filename,
					"reason", verr.Kind)
				c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
				return
			}
			sugar.Errorw("Analysis failed", "filename", fh.Filename, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Analysis failed: %v", err)})
			return
		}

		c.Header("X-Run-ID", out.RunID)
		c.JSON(http.StatusOK, out.Result)
	}
}
