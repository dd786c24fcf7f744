package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"trainticket/internal/http/middleware"
	"trainticket/internal/services"
	"trainticket/internal/utils"

	"github.com/gin-gonic/gin"
)

// One orchestrator per booking so a double-submit on the same booking hits
// the re-entry guard instead of racing.
var (
	checkoutMu sync.Mutex
	checkouts  = map[string]*services.CheckoutService{}
)

func checkoutFor(bookingID string) *services.CheckoutService {
	d := getDeps()
	checkoutMu.Lock()
	defer checkoutMu.Unlock()
	if svc, ok := checkouts[bookingID]; ok {
		return svc
	}
	svc := services.NewCheckoutService(
		d.Gateway,
		d.Widget,
		services.TicketService{Gateway: d.Gateway, Trains: d.Trains},
		d.Capture,
		&services.DocsService{Saver: services.DirSaver{Dir: d.Env.DownloadDir}},
		d.Env.ListingRoute,
	)
	svc.VerifyBeforeSettle = d.Env.VerifyBeforeSettle
	checkouts[bookingID] = svc
	return svc
}

// GetTicketSummary serves the purchase screen data. Lookup failures degrade
// to an unpopulated summary rather than an error response.
func GetTicketSummary(c *gin.Context) {
	d := getDeps()
	svc := services.TicketService{
		Gateway:   d.Gateway,
		Trains:    d.Trains,
		RequestID: middleware.GetRequestID(c),
	}
	c.JSON(http.StatusOK, svc.Summary(c.Request.Context(), c.Param("bookingID")))
}

// PayForTicket is the pay action: it runs the checkout workflow and, on
// settlement, returns the redirect target and document availability.
func PayForTicket(c *gin.Context) {
	bookingID := c.Param("bookingID")
	reqID := middleware.GetRequestID(c)

	svc := checkoutFor(bookingID)
	res, err := svc.Pay(c.Request.Context(), reqID, bookingID)
	if err != nil {
		// A failed attempt starts over from scratch anyway, so its
		// orchestrator need not stay around. Settled entries stay: they are
		// the guard against paying the same booking twice.
		if svc.State() == services.StateErrored {
			checkoutMu.Lock()
			delete(checkouts, bookingID)
			checkoutMu.Unlock()
		}
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(reqID, "ticket", "paid", "booking_id="+bookingID+" order_id="+res.OrderID)
	c.JSON(http.StatusOK, gin.H{
		"order_id":   res.OrderID,
		"redirect":   res.Redirect,
		"document":   res.Document,
		"request_id": reqID,
	})
}

// DownloadTicketDocument serves the staged ticket under its fixed name.
func DownloadTicketDocument(c *gin.Context) {
	d := getDeps()
	path := filepath.Join(d.Env.DownloadDir, services.DocumentFilename)
	if _, err := os.Stat(path); err != nil {
		RespondError(c, http.StatusNotFound, "no ticket document staged", nil)
		return
	}
	c.FileAttachment(path, services.DocumentFilename)
}
