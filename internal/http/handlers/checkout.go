package handlers

import (
	"net/http"

	"trainticket/internal/http/middleware"
	"trainticket/internal/utils"

	"github.com/gin-gonic/gin"
)

// CheckoutCallback receives the hosted page's completion signal and hands it
// to the checkout waiting on the token.
func CheckoutCallback(c *gin.Context) {
	token := c.Param("token")
	d := getDeps()
	if !d.Hub.Complete(token) {
		RespondError(c, http.StatusNotFound, "unknown or already completed checkout", nil)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "checkout", "callback", "token accepted")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
