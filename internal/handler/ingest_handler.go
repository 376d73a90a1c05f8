package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/linkhoard/linkhoard/internal/pkg/errcode"
	"github.com/linkhoard/linkhoard/internal/pkg/response"
	"github.com/linkhoard/linkhoard/internal/service"
)

type IngestHandler struct {
	ingest    *service.IngestService
	maxUpload int64
}

func NewIngestHandler(ingest *service.IngestService, maxUpload int64) *IngestHandler {
	return &IngestHandler{ingest: ingest, maxUpload: maxUpload}
}

type ingestURLRequest struct {
	URL      string `json:"url"`
	FolderID string `json:"folder_id"`
	Title    string `json:"title"`
}

func (h *IngestHandler) IngestURL(c *gin.Context) {
	var req ingestURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.URL == "" {
		response.Error(c, errcode.ErrInvalid, "url required")
		return
	}
	res, err := h.ingest.IngestFromURL(c.Request.Context(), getUserID(c), service.IngestURLInput{
		URL:      req.URL,
		FolderID: req.FolderID,
		Title:    req.Title,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

func (h *IngestHandler) IngestFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if h.maxUpload > 0 && file.Size > h.maxUpload {
		response.Error(c, errcode.ErrFileTooLarge, "file too large")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(opened)
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to read file")
		return
	}
	res, err := h.ingest.IngestFromFile(c.Request.Context(), getUserID(c), service.IngestFileInput{
		Filename: file.Filename,
		Data:     data,
		FolderID: c.PostForm("folder_id"),
		Title:    c.PostForm("title"),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

type ingestExtensionRequest struct {
	URL      string `json:"url"`
	HTML     string `json:"html"`
	FolderID string `json:"folder_id"`
	Title    string `json:"title"`
}

func (h *IngestHandler) IngestExtension(c *gin.Context) {
	var req ingestExtensionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.URL == "" || req.HTML == "" {
		response.Error(c, errcode.ErrInvalid, "url and html required")
		return
	}
	res, err := h.ingest.IngestFromExtension(c.Request.Context(), getUserID(c), service.IngestExtensionInput{
		URL:      req.URL,
		HTML:     req.HTML,
		FolderID: req.FolderID,
		Title:    req.Title,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

func (h *IngestHandler) Reingest(c *gin.Context) {
	res, err := h.ingest.Reingest(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}
