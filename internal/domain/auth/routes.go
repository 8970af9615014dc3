package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the public auth routes.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	group := r.Group("/auth")
	{
		group.POST("/register", h.Register)
		group.POST("/login", h.Login)
	}
}
