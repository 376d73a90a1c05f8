package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/linkhoard/linkhoard/internal/middleware"
)

type RouterDeps struct {
	Ingest    *IngestHandler
	Bookmarks *BookmarkHandler
	Files     *FileHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/bookmarks", deps.Ingest.IngestURL)
	authGroup.POST("/bookmarks/file", deps.Ingest.IngestFile)
	authGroup.POST("/bookmarks/extension", deps.Ingest.IngestExtension)
	authGroup.POST("/bookmarks/:id/reingest", deps.Ingest.Reingest)

	authGroup.GET("/bookmarks", deps.Bookmarks.List)
	authGroup.GET("/bookmarks/:id", deps.Bookmarks.Get)
	authGroup.DELETE("/bookmarks/:id", deps.Bookmarks.Delete)
	authGroup.GET("/ingest/:id", deps.Bookmarks.IngestState)

	api.GET("/files/*key", deps.Files.Get)
}
