package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/diewo77/impacttracker/internal/auth"
	"github.com/diewo77/impacttracker/internal/config"
	"github.com/diewo77/impacttracker/internal/db"
	"github.com/diewo77/impacttracker/internal/mailer"
	"github.com/diewo77/impacttracker/internal/server"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()
	cfg := config.Load()

	var handler slog.Handler
	if cfg.Env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	log := slog.New(handler)
	slog.SetDefault(log)

	dbConn, err := db.ConnectAndMigrate(cfg, log)
	if err != nil {
		log.Error("erreur connexion DB", "error", err)
		os.Exit(1)
	}
	if *migrateOnlyFlag {
		log.Info("migrations completed; exiting as requested")
		return
	}

	var sender mailer.Sender = mailer.Discard{}
	if cfg.SMTPAddr != "" {
		sender = mailer.NewSMTPSender(cfg.SMTPAddr, cfg.SMTPFrom, log)
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	log.Info("starting server", "env", cfg.Env, "port", cfg.Port)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: server.New(server.Deps{
			DB:     dbConn,
			Tokens: tokens,
			Mailer: sender,
			Log:    log,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	log.Info("server gracefully stopped")
}
