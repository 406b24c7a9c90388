package main

import (
	"Recall_1.0/backend/go/internal/bootstrap"
	"Recall_1.0/backend/go/internal/config"
	"Recall_1.0/backend/go/internal/discovery/etcd"
	"Recall_1.0/backend/go/internal/memory/api"
	"Recall_1.0/backend/go/internal/models"
	relapi "Recall_1.0/backend/go/internal/relationship/api"
	httpx "Recall_1.0/backend/go/pkg/http"
	"Recall_1.0/backend/go/pkg/logger"
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("memory_service", "", "")

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	components, err := bootstrap.Build(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer components.Close(context.Background())

	router := api.NewRouter(api.NewAPI(components.Memory, appLogger), api.RouterOptions{
		Tokens:          components.Tokens,
		AllowTokenIssue: cfg.Auth.AllowTokenIssue,
		Relationships:   relapi.NewHandler(components.Relationships, components.Graph),
		Health:          components.Health,
		Logger:          appLogger,
	})

	srv, err := httpx.NewServer(cfg, httpx.WithLogger(appLogger))
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	srv.Handle("/", router)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("listen: " + err.Error())
		}
	}()

	// Register with etcd when a registry is configured
	var registration *etcd.Registration
	if etcdCfg := cfg.Databases.Etcd; len(etcdCfg.Endpoints) > 0 {
		sd, err := etcd.NewServiceDiscovery(etcdCfg)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		defer sd.Close()

		name := etcdCfg.ServiceName
		if name == "" {
			name = "recall-memory"
		}
		addr := srv.Addr()
		if strings.HasPrefix(addr, ":") {
			host, _ := os.Hostname()
			addr = host + addr
		}
		if registration, err = sd.Register(ctx, name, addr, etcdCfg.LeaseTTL); err != nil {
			appLogger.Fatal(err.Error())
		}
	}

	appLogger.Info("Memory service started")

	// Wait for termination signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down memory service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if registration != nil {
		if err := registration.Revoke(shutdownCtx); err != nil {
			appLogger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("failed to deregister")
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Server forced to shutdown")
	}

	appLogger.Info("Memory service stopped")
}
