package audio

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the file routes under the protected group.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	files := r.Group("/files")
	{
		files.POST("", h.Upload)
		files.GET("", h.List)
		files.GET("/export", h.Export)
	}
}
