package handlers

import (
	"sync"

	"trainticket/internal/checkout"
	"trainticket/internal/config"
	"trainticket/internal/http/middleware"
	"trainticket/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the handlers need; main wires them once at
// startup.
type Deps struct {
	Env     config.Env
	Gateway services.Gateway
	Trains  *services.TrainCache
	Capture *services.CaptureService
	Hub     *checkout.Hub
	Widget  checkout.Widget
}

var (
	depsMu sync.RWMutex
	deps   Deps
)

func Configure(d Deps) {
	depsMu.Lock()
	deps = d
	depsMu.Unlock()
}

func getDeps() Deps {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return deps
}

// RespondError sends standard error payload with request_id included.
func RespondError(c *gin.Context, status int, message string, err error) {
	reqID := middleware.GetRequestID(c)
	payload := gin.H{
		"message":    message,
		"request_id": reqID,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	c.JSON(status, payload)
}
