package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"meeting-analysis-api/subscriber"
	"meeting-analysis-api/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const runListLimit = 200

// HandleListRuns returns the most recent run records from the database.
func HandleListRuns(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := utils.DB.QueryContext(c.Request.Context(), `
            SELECT run_id, file_name, size_bytes, mime_type, analysis_type, fallback_reason,
                   state_path, segment_count, engagement_score, duration_ms, finished_at
            FROM analysis_runs
            ORDER BY finished_at DESC
            LIMIT $1
        `, runListLimit)
		if err != nil {
			logger.Error("Database query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve analysis runs"})
			return
		}
		defer rows.Close()

		results := []gin.H{}
		for rows.Next() {
			var (
				runID, fileName, mimeType, analysisType, statePath string
				fallbackReason                                     sql.NullString
				sizeBytes, durationMs                              int64
				segmentCount, engagementScore                      int
				finishedAt                                         time.Time
			)
			if err := rows.Scan(&runID, &fileName, &sizeBytes, &mimeType, &analysisType, &fallbackReason,
				&statePath, &segmentCount, &engagementScore, &durationMs, &finishedAt); err != nil {
				logger.Error("Data scanning failed", zap.Error(err))
				continue
			}

			results = append(results, gin.H{
				"run_id":           runID,
				"file_name":        fileName,
				"size_bytes":       sizeBytes,
				"mime_type":        mimeType,
				"analysis_type":    analysisType,
				"fallback_reason":  fallbackReason.String,
				"state_path":       subscriber.SplitStatePath(statePath),
				"segment_count":    segmentCount,
				"engagement_score": engagementScore,
				"duration_ms":      durationMs,
				"finished_at":      finishedAt,
			})
		}
		if err := rows.Err(); err != nil {
			logger.Error("Database iteration failed", zap.Error(err))
		}

		c.JSON(http.StatusOK, results)
	}
}

// HandleGetRun returns one recent run record.
func HandleGetRun(logger *zap.Logger, runs subscriber.RunLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		sugar := logger.Sugar()
		id := c.Param("id")
		if id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
			return
		}

		rec, found, err := runs.Lookup(c.Request.Context(), id)
		if err != nil {
			sugar.Errorw("Run retrieval failed", "run_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve analysis run"})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Analysis run not found",
				"message": "Only recent runs are kept",
			})
			return
		}

		c.JSON(http.StatusOK, rec)
	}
}
