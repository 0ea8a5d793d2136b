package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/fxfiles/fxshare/config"
	"github.com/fxfiles/fxshare/crypto"
	"github.com/fxfiles/fxshare/handlers"
	"github.com/fxfiles/fxshare/logging"
	"github.com/fxfiles/fxshare/mirror"
	"github.com/fxfiles/fxshare/monitoring"
	"github.com/fxfiles/fxshare/sharing"
	"github.com/fxfiles/fxshare/storage"
	"github.com/fxfiles/fxshare/store"
)

// version is stamped at build time via -ldflags "-X main.version=..."
var version = "dev"

func logLevel(name string) logging.LogLevel {
	switch name {
	case "debug":
		return logging.DEBUG
	case "warning":
		return logging.WARNING
	case "error":
		return logging.ERROR
	default:
		return logging.INFO
	}
}

// newObjectStore picks the storage backend for the configured provider.
// Self-hosted MinIO clusters get the native client; everything else goes
// through the AWS SDK.
func newObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	if storage.Provider(cfg.Storage.Provider) == storage.ProviderMinio {
		return storage.NewMinioStore(storage.MinioOptions{
			Endpoint:  cfg.Storage.Endpoint,
			Region:    cfg.Storage.Region,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
		})
	}

	return storage.NewS3Store(ctx, storage.S3Options{
		Provider:       storage.Provider(cfg.Storage.Provider),
		Endpoint:       cfg.Storage.Endpoint,
		Region:         cfg.Storage.Region,
		AccessKey:      cfg.Storage.AccessKey,
		SecretKey:      cfg.Storage.SecretKey,
		ForcePathStyle: cfg.Storage.ForcePathStyle,
	})
}

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.InitLogging(&logging.LogConfig{
		LogDir:     cfg.Logging.Directory,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		LogLevel:   logLevel(cfg.Server.LogLevel),
	}); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	// Account identity: the X25519 keypair shares are addressed to. Created
	// on first run, sealed on disk under the account secret after that.
	identity, err := crypto.LoadOrCreateIdentity(cfg.Identity.KeyFile, cfg.Security.AccountSecret)
	if err != nil {
		logging.ErrorLogger.Printf("Failed to load identity: %v", err)
		os.Exit(1)
	}
	logging.InfoLogger.Printf("Identity loaded: %s", identity.ShareID())

	storeKey, err := crypto.DeriveStoreKey(identity.ContentKey)
	if err != nil {
		logging.ErrorLogger.Printf("Failed to derive store key: %v", err)
		os.Exit(1)
	}
	sealer, err := crypto.NewStoreCrypto(storeKey)
	if err != nil {
		logging.ErrorLogger.Printf("Failed to initialize store crypto: %v", err)
		os.Exit(1)
	}

	st, err := store.Open(ctx, cfg.Database.Path, sealer)
	if err != nil {
		logging.ErrorLogger.Printf("Failed to open share store: %v", err)
		os.Exit(1)
	}
	defer st.Close()

	objects, err := newObjectStore(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Printf("Failed to initialize object storage: %v", err)
		os.Exit(1)
	}

	var m *mirror.Mirror
	if cfg.Mirror.Enabled {
		m = mirror.New(objects, cfg.Mirror.Bucket, cfg.Mirror.Prefix, identity.ShareID())
	} else {
		logging.InfoLogger.Printf("Cloud mirror disabled, shares will be local only")
	}

	service := sharing.NewService(st, m, objects, identity, sharing.Options{
		LinkScheme: cfg.Server.LinkScheme,
		WebBaseURL: cfg.Server.BaseURL,
	})
	if err := service.Initialize(ctx); err != nil {
		logging.ErrorLogger.Printf("Failed to initialize sharing service: %v", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	handlers.RegisterRoutes(e, handlers.NewHandler(service))

	monitor := monitoring.NewHealthMonitor(st, cfg, identity, version)
	monitor.RegisterRoutes(e)

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Printf("Failed to start server: %v", err)
			os.Exit(1)
		}
	}()
	logging.InfoLogger.Printf("fxshared %s listening on %s", version, addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logging.InfoLogger.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Printf("Server shutdown failed: %v", err)
	}
}
