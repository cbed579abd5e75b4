package testui

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed index.html
var indexHTML string

// RegisterRoutes serves the manual upload/analyze form at basePath.
func RegisterRoutes(r gin.IRoutes, basePath string) {
	if basePath == "" {
		basePath = "/"
	}
	r.GET(basePath, func(ctx *gin.Context) {
		ctx.Header("Content-Type", "text/html; charset=utf-8")
		ctx.String(http.StatusOK, indexHTML)
	})
}
