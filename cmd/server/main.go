package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pledgetrack/backend/internal/config"
	"github.com/pledgetrack/backend/internal/db"
	"github.com/pledgetrack/backend/internal/geocode"
	httpapi "github.com/pledgetrack/backend/internal/http"
	"github.com/pledgetrack/backend/internal/photo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "pledgetrack-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	var uploader photo.Uploader
	if cfg.S3Bucket == "" {
		uploader = photo.NewLocalUploader(cfg.LocalUploadDir, cfg.PhotoBaseURL)
		logger.Info().Str("dir", cfg.LocalUploadDir).Msg("using local photo storage")
	} else {
		uploader, err = photo.NewS3Uploader(ctx, photo.S3Config{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			PublicBaseURL:   cfg.PhotoBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init photo storage")
		}
	}

	geocoder := &geocode.NominatimGeocoder{BaseURL: cfg.GeocodeURL}

	router := httpapi.Router(cfg, store, uploader, geocoder, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
