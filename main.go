package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trainticket/internal/checkout"
	intconfig "trainticket/internal/config"
	"trainticket/internal/gateway"
	router "trainticket/internal/http"
	"trainticket/internal/http/handlers"
	"trainticket/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	gw := gateway.New(env.BookingAPIBase)
	hub := checkout.NewHub()

	var widget checkout.Widget
	if env.CheckoutMode == "stub" {
		widget = checkout.StubWidget{}
	} else {
		widget = &checkout.HostedWidget{
			Mode: env.CheckoutMode,
			Hub:  hub,
			OnOpen: func(url string) {
				log.Printf("[CHECKOUT] overlay opened url=%s", url)
			},
		}
	}

	handlers.Configure(handlers.Deps{
		Env:     env,
		Gateway: gw,
		Trains:  services.NewTrainCache(),
		Capture: services.NewCaptureService(),
		Hub:     hub,
		Widget:  widget,
	})

	// Router (Gin engine)
	r := router.NewRouter(env)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		// pay requests stay open until the hosted page calls back
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server running at http://localhost%s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped cleanly.")
}
