package api

import (
	"net/http"
	"time"

	"QH_quranhabits/internal/middleware"
	"QH_quranhabits/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Dependencies struct {
	Challenges service.ChallengeServiceI
	Progress   service.ProgressServiceI
	Auth       service.AuthServiceI
	Content    ContentClient
	Sync       SyncStatusReader
	Session    *middleware.Session
	// Metrics, when set, is served at /metrics.
	Metrics http.Handler
}

func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Monitor())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	a := router.Group("/api/v1")
	a.Use(deps.Session.Middleware())
	NewAuthRoutes(a, deps.Auth)
	NewChallengeRoutes(a, deps.Challenges)
	NewProgressRoutes(a, deps.Progress)
	NewQuranRoutes(a, deps.Content)
	NewSyncRoutes(a, deps.Sync)

	return router
}
