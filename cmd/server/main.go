package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/anadime/invoicer/internal/config"
	"github.com/anadime/invoicer/internal/db"
	"github.com/anadime/invoicer/internal/logger"
	"github.com/anadime/invoicer/internal/notify"
	"github.com/anadime/invoicer/internal/server"
	pdfgen "github.com/anadime/invoicer/pdf"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()
	logger.Setup()
	cfg := config.Load()

	conn, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if *migrateOnlyFlag {
		log.Info().Msg("migrations completed; exiting as requested")
		return
	}

	renderer := pdfgen.NewRenderer(cfg.BillDir, filepath.Join("static", "logo.png"),
		cfg.MerchantVPA, cfg.MerchantName, logger.WithComponent("pdf"))
	mailer := notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailAddress, cfg.EmailPassword,
		cfg.SMTPTimeout, logger.WithComponent("mailer"))

	handler := server.New(server.Deps{DB: conn, Renderer: renderer, Mailer: mailer})
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: handler}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server stopped")
}
