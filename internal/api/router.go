package api

import (
	"github.com/gin-gonic/gin"

	"github.com/dseditor/AIStudioFloorPlan/internal/infra/logger"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/orchestrator"
)

// NewRouter wires the wizard endpoints. exportDir is served statically so the
// deck archive URLs returned by the export endpoint resolve.
func NewRouter(orch *orchestrator.Orchestrator, exportDir, exportURL string, log *logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))

	handler := NewHandler(orch, log)

	r.GET("/health", handler.Health)
	r.Static(exportURL, exportDir)

	v1 := r.Group("/v1")
	{
		v1.POST("/renders", handler.RenderPlan)
		v1.POST("/renders/edit", handler.EditPlan)

		v1.POST("/scenes", handler.GenerateScenes)
		v1.GET("/scenes", handler.ListScenes)
		v1.DELETE("/scenes", handler.ClearScenes)
		v1.PUT("/scenes/:index/camera", handler.UpdateSceneCamera)
		v1.POST("/scenes/:index/edit", handler.EditScene)
		v1.POST("/scenes/:index/restore", handler.RestoreScene)

		v1.POST("/presentation/text", handler.GeneratePresentationText)
		v1.PUT("/presentation/text", handler.UpdatePresentationText)
		v1.POST("/presentation/slides", handler.RenderSlides)
		v1.POST("/presentation/export", handler.ExportDeck)
	}

	return r
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log.Info("request started",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		c.Next()
		log.Info("request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}
