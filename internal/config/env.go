package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr            string
	GinMode            string
	BookingAPIBase     string
	CheckoutMode       string
	VerifyBeforeSettle bool
	ListingRoute       string
	DownloadDir        string
	CORSAllowedOrigins []string
}

func LoadEnv() Env {
	// .env is optional; deployments set variables directly.
	_ = godotenv.Load()

	appAddr := strings.TrimSpace(os.Getenv("APP_ADDR"))
	if appAddr == "" {
		appAddr = ":8080"
	}

	base := strings.TrimSpace(os.Getenv("BOOKING_API_BASE"))
	if base == "" {
		base = "http://localhost:5000"
	}

	mode := strings.TrimSpace(os.Getenv("CHECKOUT_MODE"))
	if mode == "" {
		mode = "sandbox"
	}

	listing := strings.TrimSpace(os.Getenv("LISTING_ROUTE"))
	if listing == "" {
		listing = "/filter-train"
	}

	downloadDir := strings.TrimSpace(os.Getenv("DOWNLOAD_DIR"))
	if downloadDir == "" {
		downloadDir = os.TempDir()
	}

	var corsOrigins []string
	for _, o := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}

	return Env{
		AppAddr:            appAddr,
		GinMode:            strings.TrimSpace(os.Getenv("GIN_MODE")),
		BookingAPIBase:     base,
		CheckoutMode:       mode,
		VerifyBeforeSettle: parseBool(os.Getenv("CHECKOUT_VERIFY_BEFORE_SETTLE")),
		ListingRoute:       listing,
		DownloadDir:        downloadDir,
		CORSAllowedOrigins: corsOrigins,
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
