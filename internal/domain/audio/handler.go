package audio

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"audioserver/internal/pkg/response"
)

// Handler exposes the storage pipeline over HTTP. It trusts the owner id
// placed in the context by the auth middleware.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload accepts a multipart form with the file under "audio" plus optional
// "tags" (comma-separated) and "additional_info" fields.
func (h *Handler) Upload(c *gin.Context) {
	owner := mustOwnerID(c)
	if owner == "" {
		return
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "NO_FILE", ErrNoFile.Error())
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "NO_FILE", "could not read uploaded file")
		return
	}
	defer src.Close()

	record, err := h.service.Upload(c.Request.Context(), owner, UploadInput{
		OriginalName: fileHeader.Filename,
		DeclaredType: fileHeader.Header.Get("Content-Type"),
		DeclaredSize: fileHeader.Size,
		TagText:      c.PostForm("tags"),
		ExtraInfo:    c.PostForm("additional_info"),
		Body:         src,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNoFile):
			response.Error(c, http.StatusBadRequest, "NO_FILE", err.Error())
		case errors.Is(err, ErrTooLarge):
			response.Error(c, http.StatusRequestEntityTooLarge, "TOO_LARGE", err.Error())
		case errors.Is(err, ErrUnsupportedType):
			response.Error(c, http.StatusBadRequest, "UNSUPPORTED_TYPE", err.Error())
		case errors.Is(err, ErrPersistFailed):
			response.Error(c, http.StatusInternalServerError, "PERSIST_FAILED", "failed to save file metadata")
		default:
			response.Error(c, http.StatusInternalServerError, "WRITE_FAILED", "failed to save file")
		}
		return
	}

	response.Success(c, http.StatusCreated, fileView(record))
}

// List returns the owner's files, optionally narrowed by ?tag=.
func (h *Handler) List(c *gin.Context) {
	owner := mustOwnerID(c)
	if owner == "" {
		return
	}

	tag := c.Query("tag")
	files, err := h.service.List(c.Request.Context(), owner, tag)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "failed to list files")
		return
	}

	items := make([]gin.H, 0, len(files))
	for _, f := range files {
		items = append(items, fileView(f))
	}
	response.Success(c, http.StatusOK, gin.H{
		"owner":       owner,
		"total_count": len(items),
		"tag_filter":  tag,
		"files":       items,
	})
}

// Export streams all of the owner's files as a single zip attachment and
// releases the artifact once the response has been written.
func (h *Handler) Export(c *gin.Context) {
	owner := mustOwnerID(c)
	if owner == "" {
		return
	}

	path, err := h.service.Export(c.Request.Context(), owner)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoFiles):
			response.Error(c, http.StatusNotFound, "NO_FILES", err.Error())
		case errors.Is(err, ErrEmptyArchive):
			response.Error(c, http.StatusNotFound, "EMPTY_ARCHIVE", err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "EXPORT_FAILED", "failed to build export archive")
		}
		return
	}
	defer h.service.Release(path)

	downloadName := fmt.Sprintf("audio_files_%s_%s.zip", owner, time.Now().UTC().Format("20060102_150405"))
	c.FileAttachment(path, downloadName)
}

func fileView(f *AudioFile) gin.H {
	return gin.H{
		"id":            f.ID,
		"owner":         f.OwnerID,
		"original_name": f.OriginalName,
		"size_bytes":    f.SizeBytes,
		"media_type":    f.MediaType,
		"tags":          f.TagList(),
		"extra_info":    f.ExtraInfoMap(),
		"created_at":    f.CreatedAt,
	}
}

func mustOwnerID(c *gin.Context) string {
	owner := c.GetString("owner_id")
	if owner == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	}
	return owner
}
