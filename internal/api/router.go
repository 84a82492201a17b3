package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jaychia/coinmeme/internal/api/handler"
	"github.com/jaychia/coinmeme/internal/api/middleware"
	"github.com/jaychia/coinmeme/internal/catalog"
	"github.com/jaychia/coinmeme/internal/config"
	"github.com/jaychia/coinmeme/internal/domain"
	"github.com/jaychia/coinmeme/internal/render"
	"github.com/jaychia/coinmeme/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	cat *catalog.Catalog,
	topics []domain.Topic,
	captions *service.CaptionService,
	renderer *render.Renderer,
	serverCfg config.ServerConfig,
) *gin.Engine {
	// Set Gin mode
	switch serverCfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  serverCfg.CORS.AllowedOrigins,
		AllowAllOrigins: serverCfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	catalogHandler := handler.NewCatalogHandler(cat, topics)
	memeHandler := handler.NewMemeHandler(cat, topics, captions, renderer)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Selection lists
		v1.GET("/topics", catalogHandler.ListTopics)
		v1.GET("/templates", catalogHandler.ListTemplates)
		v1.GET("/templates/:name", catalogHandler.GetTemplate)

		// Generation
		v1.POST("/memes", memeHandler.Generate)
		v1.POST("/memes/preview", memeHandler.Preview)
	}

	return r
}
