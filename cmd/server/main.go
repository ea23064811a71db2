package main

import (
	"crypto/tls"
	"net/http"
	"os"

	"presentation-coach/internal/config"
	"presentation-coach/internal/db"
	"presentation-coach/internal/handlers"
	"presentation-coach/internal/llm"
	"presentation-coach/internal/services"

	"github.com/charmbracelet/log"
)

func main() {
	cfg := config.Load()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	// Activity database
	if err := db.InitDatabase(cfg.Data.DBPath); err != nil {
		logger.Fatal("failed to initialize database", "err", err)
	}
	defer db.Close()

	// Services
	store, err := services.NewPresentationStore(cfg.Data.Dir, logger)
	if err != nil {
		logger.Fatal("failed to initialize presentation store", "err", err)
	}
	activity := services.NewActivityService(db.DB, logger)
	analyzer := llm.NewClient(cfg.AzureOpenAI, logger)

	registry := services.NewSessionRegistry(services.NewMemorySessionStore())
	hub := services.NewWebSocketService(registry, activity, logger)
	go hub.Run()

	// Handlers
	presHandler := handlers.NewPresentationHandler(store, analyzer, activity, logger)
	wsHandler := handlers.NewWebSocketHandler(hub, logger)
	staticHandler := handlers.NewStaticHandler(cfg.Data.StaticDir)

	router := handlers.SetupRoutes(presHandler, wsHandler, staticHandler)

	server := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: router,
	}

	if cfg.TLS.Enabled {
		server.TLSConfig = &tls.Config{
			MinVersion: getTLSVersion(cfg.TLS.MinVersion),
		}

		logger.Info("starting HTTPS server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		logger.Fatal(server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile))
	} else {
		logger.Info("starting HTTP server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		logger.Fatal(server.ListenAndServe())
	}
}

// getTLSVersion converts string version to tls.Version constant
func getTLSVersion(version string) uint16 {
	switch version {
	case "1.0":
		return tls.VersionTLS10
	case "1.1":
		return tls.VersionTLS11
	case "1.2":
		return tls.VersionTLS12
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}
