package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"listing-insights-go/internal/api"
	"listing-insights-go/internal/config"
	"listing-insights-go/internal/insurance"
	"listing-insights-go/internal/logger"
	"listing-insights-go/internal/normalizer"
	"listing-insights-go/internal/pipeline"
)

func main() {
	cfg := config.Load() // loads .env

	log := logger.New()
	log.WithField("service", "listing-insights-go").Info("starting service")

	tables, err := cfg.RiskTables()
	if err != nil {
		log.WithError(err).Fatal("failed to load risk tables")
	}
	log.WithField("reference_year", tables.ReferenceYear).
		WithField("infer_state_from_zip", tables.InferStateFromZip).
		Info("risk tables loaded")

	n := normalizer.New(cfg.NewRater(log), insurance.NewEstimator(tables), log,
		normalizer.WithRatingConcurrency(cfg.RatingConcurrency))
	handler := api.NewHandler(pipeline.New(n, log), log)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown failed")
		}
	}()

	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server terminated")
	}
	log.Info("server stopped")
}
