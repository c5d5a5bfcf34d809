package appointment

import "github.com/gin-gonic/gin"

func RegisterRoutes(protected *gin.RouterGroup, handler *Handler) {
	g := protected.Group("/appointments")
	{
		g.POST("", handler.Create)
		g.GET("/mine", handler.ListMine)
		g.GET("/pending-for-my-listings", handler.ListPendingForMyListings)
		g.GET("/for-my-listings", handler.ListForMyListings)
		g.GET("/:id", handler.GetByID)
		g.PUT("/:id/confirm", handler.Confirm())
		g.PUT("/:id/reject", handler.Reject())
		g.PUT("/:id/cancel", handler.Cancel())
	}
}
