package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"kepler-congestion-go/docs"
	"kepler-congestion-go/internal/config"
)

// ConfigureSwagger points the served document at the configured host. Call it
// once before serving.
func ConfigureSwagger(cfg *config.Config) {
	docs.SwaggerInfo.Host = fmt.Sprintf("%s:%d", cfg.SwaggerHost, cfg.SwaggerPort)
	docs.SwaggerInfo.Version = cfg.Version
}

func (s *Server) setupSwagger() {
	s.router.GET("/api/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"title":       docs.SwaggerInfo.Title,
			"version":     s.config.Version,
			"description": docs.SwaggerInfo.Description,
			"swagger_ui":  "/docs/index.html",
			"endpoints": gin.H{
				"health":      "/health",
				"worker_info": "/",
				"system":      "/system/stats",
				"metrics":     "/metrics",
			},
			"subjects": gin.H{
				"samples":       s.config.SamplesSubject,
				"summaries":     s.config.SummariesSubject,
				"trend":         s.config.TrendSubject,
				"reports":       s.config.ReportsSubject,
				"alerts":        s.config.AlertsSubject + ".>",
				"alert_history": s.config.AlertHistorySubject,
			},
			"worker_id": s.config.WorkerID,
			"port":      s.config.Port,
		})
	})

	s.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
