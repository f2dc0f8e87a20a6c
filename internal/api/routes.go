package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.POST("/run", handler.RunPipeline)
		api.GET("/status", handler.GetStatus)
		api.GET("/data", handler.GetData)
		api.GET("/report/download", handler.DownloadReport)
		api.POST("/reset", handler.Reset)
		api.GET("/properties/:id/history", handler.GetPropertyHistory)
		api.GET("/districts.geojson", handler.GetDistricts)
	}
}
