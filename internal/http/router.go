package api

import (
	"log"
	stdhttp "net/http"

	intconfig "trainticket/internal/config"
	h "trainticket/internal/http/handlers"
	"trainticket/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.OPTIONS("/*path", func(c *gin.Context) { c.AbortWithStatus(stdhttp.StatusNoContent) })

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/routes", h.Routes)

		tickets := api.Group("/tickets")
		tickets.GET("/:bookingID", h.GetTicketSummary)
		tickets.POST("/:bookingID/pay", h.PayForTicket)
		tickets.GET("/:bookingID/document", h.DownloadTicketDocument)

		api.POST("/checkout/callback/:token", h.CheckoutCallback)
	}

	h.SetRouter(r)
	return r
}
