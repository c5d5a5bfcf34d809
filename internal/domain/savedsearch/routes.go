package savedsearch

import "github.com/gin-gonic/gin"

func RegisterRoutes(protected *gin.RouterGroup, handler *Handler) {
	g := protected.Group("/saved-searches")
	{
		g.POST("", handler.Create)
		g.GET("/mine", handler.ListMine)
		g.DELETE("/:id", handler.Delete)
		g.GET("/:id/matches", handler.Matches)
	}
}

// RegisterInternalRoutes mounts the hook used by the listing service. The
// group must already be protected by the internal token middleware.
func RegisterInternalRoutes(internal *gin.RouterGroup, handler *Handler) {
	internal.POST("/listings/:id/activated", handler.ListingActivated)
}
