package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riclovato/furia-chatbot/internal/api"
	"github.com/riclovato/furia-chatbot/internal/bootstrap"
	"github.com/riclovato/furia-chatbot/internal/config"
	"github.com/riclovato/furia-chatbot/internal/notifier"
	"github.com/riclovato/furia-chatbot/internal/scheduler"
	"github.com/riclovato/furia-chatbot/internal/service"
	"github.com/riclovato/furia-chatbot/internal/utils/logger"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// 2. logger
	logrusLogger := logger.New(cfg.Log)
	logrusLogger.WithFields(logrus.Fields{
		"store":    cfg.Store.Backend,
		"fetcher":  cfg.Scraper.Fetcher,
		"notifier": cfg.Notifier.Kind,
	}).Info("config loaded")

	// 3. store and extraction pipeline
	app, err := bootstrap.New(cfg, logrusLogger)
	if err != nil {
		logrusLogger.Fatalf("bootstrap: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logrusLogger.WithError(err).Warn("close store")
		}
	}()

	// 4. notifications
	n, err := notifier.New(cfg.Notifier, logrusLogger)
	if err != nil {
		logrusLogger.Fatalf("notifier: %v", err)
	}
	notifications := service.NewNotificationService(app.Store, n, app.Messages, cfg.Scheduler, logrusLogger, app.Clock)
	runner, err := scheduler.New(cfg.Scheduler, cfg.Location(), notifications, app.Sync, logrusLogger)
	if err != nil {
		logrusLogger.Fatalf("scheduler: %v", err)
	}

	// 5. http
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Server.Pprof {
		pprof.Register(r)
	}
	api.RegisterRoutes(r,
		api.NewMatchHandler(app.Sync, app.Messages, logrusLogger),
		api.NewSubscriptionHandler(app.Store, logrusLogger),
		api.NewExtractionHandler(app.Runs, logrusLogger),
	)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. run until signalled
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Run(gctx)
	})
	g.Go(func() error {
		logrusLogger.Infof("http server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logrusLogger.WithError(err).Error("shutdown with error")
		return
	}
	logrusLogger.Info("bye")
}
