package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/media"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// MediaHandler uploads, lists and deletes product media
type MediaHandler struct {
	BaseHandler
	mediaService *media.MediaService
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(mediaService *media.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// UploadResponse carries the public URL of the stored file
type UploadResponse struct {
	URL         string `json:"url"`
	Pathname    string `json:"pathname"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// DeleteFileRequest names the blob to remove
type DeleteFileRequest struct {
	Pathname string `json:"pathname" binding:"required,max=1024"`
}

// ListFilesResponse lists stored media
type ListFilesResponse struct {
	Success bool             `json:"success"`
	Files   []media.FileInfo `json:"files"`
}

// Upload handles POST /upload
// Multipart upload of one image or video. key is the target pathname; a key ending in "/" is a folder.
func (h *MediaHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, media.ErrFileTooLarge.Message)
			return
		}
		h.HandleError(c, media.ErrMissingFile)
		return
	}
	if file.Size > h.mediaService.MaxSize() {
		h.HandleError(c, media.ErrFileTooLarge)
		return
	}

	body, err := file.Open()
	if err != nil {
		h.HandleError(c, media.ErrMissingFile)
		return
	}
	defer body.Close()

	result, err := h.mediaService.Upload(c.Request.Context(), media.UploadInput{
		Key:         c.PostForm("key"),
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
		Body:        body,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, UploadResponse{
		URL:         result.URL,
		Pathname:    result.Pathname,
		Size:        result.Size,
		ContentType: result.ContentType,
	})
}

// Delete handles DELETE /delete-file
func (h *MediaHandler) Delete(c *gin.Context) {
	var req DeleteFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.mediaService.Delete(c.Request.Context(), req.Pathname); err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c)
}

// List handles GET /files
func (h *MediaHandler) List(c *gin.Context) {
	files, err := h.mediaService.List(c.Request.Context(), c.Query("prefix"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ListFilesResponse{Success: true, Files: files})
}
