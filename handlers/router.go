package handlers

import (
	"net/http"
	"time"

	"meeting-analysis-api/analyzer"
	"meeting-analysis-api/storage"
	"meeting-analysis-api/subscriber"
	"meeting-analysis-api/testui"
	"meeting-analysis-api/utils"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the components the routes are built from.
type Deps struct {
	Config       *utils.Config
	Orchestrator *analyzer.Orchestrator
	Store        storage.Store
	// RunHistory enables GET /analyses (needs the database).
	RunHistory bool
	// Runs enables GET /analyses/:id when set.
	Runs subscriber.RunLookup
}

func NewRouter(logger *zap.Logger, deps Deps) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	r.Use(ginzap.CustomRecoveryWithZap(logger, true, Recover))
	r.Use(MetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:              []string{"Content-Type", "Authorization"},
		ExposeHeaders:             []string{"Content-Type"},
		OptionsResponseStatusCode: http.StatusOK,
		MaxAge:                    12 * time.Hour,
	}))

	r.GET("/", HandleRoot(logger))
	r.GET("/health", HandleHealth(deps.Config, deps.Orchestrator))
	r.GET("/health/deps", HandleDependencyStatus(deps.Config))
	r.GET("/debug", HandleDebug(deps.Config, deps.Orchestrator))
	r.GET("/metrics", HandleMetrics())

	r.POST("/upload", HandleUpload(logger, deps.Orchestrator.Policy(), deps.Store))
	r.POST("/analyze", HandleAnalyze(logger, deps.Orchestrator))
	r.OPTIONS("/upload", handlePreflight)
	r.OPTIONS("/analyze", handlePreflight)

	if deps.RunHistory {
		r.GET("/analyses", HandleListRuns(logger))
	}
	if deps.Runs != nil {
		r.GET("/analyses/:id", HandleGetRun(logger, deps.Runs))
	}

	testui.RegisterRoutes(r, "/testui")

	r.NoRoute(HandleNotFound(logger))
	r.NoMethod(HandleMethodNotAllowed(logger))
	return r
}

// handlePreflight answers OPTIONS requests that carry no Origin header; the
// CORS middleware handles the rest before this runs.
func handlePreflight(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{})
}
