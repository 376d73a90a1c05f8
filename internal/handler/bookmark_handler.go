package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/linkhoard/linkhoard/internal/pkg/response"
	"github.com/linkhoard/linkhoard/internal/repo"
	"github.com/linkhoard/linkhoard/internal/service"
)

type BookmarkHandler struct {
	bookmarks *service.BookmarkService
}

func NewBookmarkHandler(bookmarks *service.BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{bookmarks: bookmarks}
}

func (h *BookmarkHandler) List(c *gin.Context) {
	filter := repo.BookmarkFilter{
		Type:     c.Query("type"),
		Platform: c.Query("platform"),
		FolderID: c.Query("folder_id"),
	}
	if value := c.Query("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			filter.Limit = uint(parsed)
		}
	}
	items, err := h.bookmarks.List(c.Request.Context(), getUserID(c), filter)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"bookmarks": items})
}

func (h *BookmarkHandler) Get(c *gin.Context) {
	bm, err := h.bookmarks.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, bm)
}

func (h *BookmarkHandler) Delete(c *gin.Context) {
	if err := h.bookmarks.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// IngestState serves status polling while the pipeline runs.
func (h *BookmarkHandler) IngestState(c *gin.Context) {
	state, err := h.bookmarks.IngestState(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, state)
}
