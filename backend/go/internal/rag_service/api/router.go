package api

import (
	"DocQA/backend/go/pkg/httpmiddleware"
	"DocQA/backend/go/pkg/logger"
	"DocQA/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine. limiter may be nil to disable rate limiting.
func NewRouter(h *Handler, log *logger.Logger, limiter *ratelimiter.PerClient) *gin.Engine {
	router := gin.New()
	router.Use(httpmiddleware.Recovery(log), httpmiddleware.RequestLogger(log), httpmiddleware.CORS())
	RegisterRoutes(router, h, limiter)
	return router
}

// RegisterRoutes registers all the routes of the document QA API.
func RegisterRoutes(router *gin.Engine, h *Handler, limiter *ratelimiter.PerClient) {
	router.GET("/health", h.Health)

	api := router.Group("/")
	if limiter != nil {
		api.Use(httpmiddleware.RateLimit(limiter))
	}
	{
		api.POST("/folders", h.CreateFolder)
		api.GET("/folders", h.ListFolders)
		api.PUT("/folders/:folder_id", h.RenameFolder)
		api.DELETE("/folders/:folder_id", h.DeleteFolder)
		api.GET("/folders/:folder_id/documents", h.ListDocuments)

		api.POST("/upload/:folder_id", h.Upload)
		api.DELETE("/documents/:document_id", h.DeleteDocument)

		api.POST("/query", h.Query)
		api.POST("/admin/reconcile", h.Reconcile)
	}
}
