package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"meeting-analysis-api/media"
	"meeting-analysis-api/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// formFile reads the multipart field "file" with the request body capped at
// policy.BodyLimit(). Errors are always *media.ValidationError.
func formFile(c *gin.Context, sugar *zap.SugaredLogger, policy media.Policy) (*multipart.FileHeader, *media.ValidationError) {
	limit := policy.BodyLimit()
	if c.Request.ContentLength > limit {
		utils.UploadRejectionsTotal.WithLabelValues(string(media.KindTooLarge)).Inc()
		sugar.Warnw("Request body too large", "content_length", c.Request.ContentLength, "limit", limit)
		return nil, policy.TooLarge()
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			utils.UploadRejectionsTotal.WithLabelValues(string(media.KindTooLarge)).Inc()
			sugar.Warnw("Request body too large", "limit", tooBig.Limit)
			return nil, policy.TooLarge()
		}
		sugar.Warnw("No file in request", "error", err)
		return nil, media.MissingFile()
	}
	return fh, nil
}
