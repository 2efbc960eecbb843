package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pbxgate/pbxgate/internal/cache"
	"github.com/pbxgate/pbxgate/internal/config"
	"github.com/pbxgate/pbxgate/internal/database"
	"github.com/pbxgate/pbxgate/internal/dialplan"
	"github.com/pbxgate/pbxgate/internal/email"
	"github.com/pbxgate/pbxgate/internal/firewall"
	"github.com/pbxgate/pbxgate/internal/httapi"
	"github.com/pbxgate/pbxgate/internal/metrics"
	"github.com/pbxgate/pbxgate/internal/switchcmd"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Configure structured logging.
	logger := slog.New(cfg.SlogHandler(os.Stdout))
	slog.SetDefault(logger)

	slog.Info("starting pbxgate",
		"http_port", cfg.HTTPPort,
		"data_dir", cfg.DataDir,
	)

	// Open database and run migrations.
	db, err := database.Open(cfg.DataDir)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Repositories.
	domains := database.NewDomainRepository(db)
	settings := database.NewDomainSettingRepository(db)
	extensions := database.NewExtensionRepository(db)
	ringGroups := database.NewRingGroupRepository(db)
	callFlows := database.NewCallFlowRepository(db)
	callBlocks := database.NewCallBlockRepository(db)
	recordings := database.NewRecordingRepository(db)
	centres := database.NewConferenceCentreRepository(db)
	rooms := database.NewConferenceRoomRepository(db)
	confSessions := database.NewConferenceSessionRepository(db)
	ipRegisters := database.NewIPRegisterRepository(db)
	templates := database.NewEmailTemplateRepository(db)
	callSessions := database.NewCallSessionRepository(db)

	// Shared lookup cache for domain settings and derived artifacts.
	lookupCache := cache.New(time.Duration(cfg.SettingsTTL) * time.Second)

	// Outbound adapters.
	presence := switchcmd.NewClient(cfg.ESLAddr, cfg.ESLPassword, logger)
	fw := firewall.NewScriptRunner(cfg.FwIPv4Script, cfg.FwIPv6Script, logger)
	mailer := email.NewMailer(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		From:     cfg.SMTPFrom,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		TLS:      cfg.SMTPTLS,
	}, templates, logger)
	dialplanGen := dialplan.NewGenerator()

	// Metrics.
	collector := metrics.NewCollector(confSessions, time.Now())
	registry := prometheus.NewRegistry()
	registry.MustRegister(collector)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	resolver := httapi.NewResolver(domains, settings, lookupCache, cfg.RecordingsDir)
	server := httapi.NewServer(callSessions, resolver, collector, metricsHandler, logger)

	server.Register(httapi.NewTestHandler())
	server.Register(httapi.NewFollowMeToggleHandler(extensions, lookupCache))
	server.Register(httapi.NewFollowMeHandler(extensions))
	server.Register(httapi.NewFailureHandler())
	server.Register(httapi.NewHangupHandler(mailer))
	server.Register(httapi.NewRegisterHandler(ipRegisters, fw))
	server.Register(httapi.NewRingGroupHandler(ringGroups))
	server.Register(httapi.NewRecordingsHandler(recordings, cfg.RecordingsDir))
	server.Register(httapi.NewCallFlowToggleHandler(callFlows, dialplanGen, lookupCache, presence))
	server.Register(httapi.NewCallBlockHandler(callBlocks))
	server.Register(httapi.NewConferenceHandler(centres, rooms, confSessions, cfg.TempDir))

	// Collect call sessions whose exiting event never arrived.
	retention := time.Duration(cfg.SessionHours) * time.Hour
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			if n, err := callSessions.Prune(context.Background(), retention); err != nil {
				slog.Error("session prune failed", "error", err)
			} else if n > 0 {
				slog.Info("pruned stale call sessions", "count", n)
			}
			<-ticker.C
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      server,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt or server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		slog.Error("http server error", "error", err)
	}

	// Graceful shutdown with timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutting down server")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown error", "error", err)
		os.Exit(1)
	}

	slog.Info("pbxgate stopped")
}
