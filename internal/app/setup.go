// Package app contains the application setup for the catalog service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/abgdnv/catalog/internal/config"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/internal/store"
	grpcImpl "github.com/abgdnv/catalog/internal/transport/grpc"
	"github.com/abgdnv/catalog/internal/transport/rest"
	"github.com/abgdnv/catalog/pkg/bootstrap"
	pkgconfig "github.com/abgdnv/catalog/pkg/config"
	"github.com/abgdnv/catalog/pkg/server"
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const defaultPingTimeout = 2 * time.Second

type Dependencies struct {
	CatalogService service.CatalogService
	Store          store.ProductStore
	Logger         *slog.Logger
}

// SetupDependencies builds the service on top of the given store.
func SetupDependencies(productStore store.ProductStore, logger *slog.Logger) *Dependencies {
	return &Dependencies{
		CatalogService: service.NewService(productStore),
		Store:          productStore,
		Logger:         logger,
	}
}

// OpenStore connects the store selected by cfg.Driver and applies migrations when configured.
// The returned func releases the underlying connections.
func OpenStore(ctx context.Context, cfg pkgconfig.DatabaseConfig, logger *slog.Logger) (store.ProductStore, func(), error) {
	if cfg.Driver == pkgconfig.DriverMemory {
		logger.Warn("Using in-memory product store, data is not persisted")
		return store.NewInMemoryStore(), func() {}, nil
	}

	if cfg.Migrations != "" {
		if err := bootstrap.RunMigrations(cfg.Migrations, cfg.URL); err != nil {
			return nil, nil, err
		}
		logger.Info("Database migrations applied", slog.String("dir", cfg.Migrations))
	}

	switch cfg.Driver {
	case pkgconfig.DriverGorm:
		db, err := bootstrap.NewGormDB(ctx, cfg.URL, cfg.Timeout, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return store.NewGormStore(db), closeFn, nil
	case pkgconfig.DriverPgx, "":
		dbPool, err := bootstrap.NewDbPool(ctx, cfg.URL, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		return store.NewPgStore(dbPool), dbPool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// SetupHttpHandler initializes the router and routes for the catalog.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	catalogHandler := rest.NewHandler(deps.CatalogService, deps.Logger)
	catalogHandler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for the catalog.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}

// SetupGrpcServer initializes the gRPC server exposing the health service.
func SetupGrpcServer(deps *Dependencies, cfg *config.Config) *grpc.Server {
	pingTimeout := cfg.Database.Timeout
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}
	healthRegisterFunc := func(s *grpc.Server) {
		healthpb.RegisterHealthServer(s, grpcImpl.NewHealthServer(deps.Store, pingTimeout, deps.Logger))
	}
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(grpcImpl.LoggingInterceptor(deps.Logger)),
	}
	return server.NewGRPCServer(cfg.GRPC.ReflectionEnabled, opts, healthRegisterFunc)
}
