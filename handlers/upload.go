package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"meeting-analysis-api/media"
	"meeting-analysis-api/storage"
	"meeting-analysis-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HandleUpload validates the multipart field "file" and stages it in store.
func HandleUpload(logger *zap.Logger, policy media.Policy, store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sugar := logger.Sugar()

		fh, verr := formFile(c, sugar, policy)
		if verr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
			return
		}

		if err := policy.Check(fh.Filename, fh.Size); err != nil {
			var verr *media.ValidationError
			if errors.As(err, &verr) {
				utils.UploadRejectionsTotal.WithLabelValues(string(verr.Kind)).Inc()
			}
			sugar.Warnw("Upload rejected", "filename", fh.Filename, "size", fh.Size, "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		src, err := fh.Open()
		if err != nil {
			sugar.Errorw("File processing failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Upload failed: %v", err)})
			return
		}
		defer src.Close()

		filename := media.SecureFilename(fh.Filename)
		obj := storage.Object{
			ID:          uuid.NewString(),
			Filename:    filename,
			Size:        fh.Size,
			ContentType: media.MIMEType(media.Extension(filename)),
		}

		location, err := store.Put(c.Request.Context(), obj, src)
		if err != nil {
			utils.UploadsStagedTotal.WithLabelValues(store.Name(), "error").Inc()
			sugar.Errorw("File upload failed", "filename", filename, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Upload failed: %v", err)})
			return
		}
		utils.UploadsStagedTotal.WithLabelValues(store.Name(), "ok").Inc()

		sugar.Infow("File uploaded successfully",
			"file_id", obj.ID,
			"filename", filename,
			"location", location)

		c.JSON(http.StatusOK, gin.H{
			"file_id":  obj.ID,
			"filename": filename,
			"size":     fh.Size,
			"status":   "uploaded",
			"message":  "File uploaded successfully",
		})
	}
}
