package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sales-dialer/internal/appointments"
	"sales-dialer/internal/auth"
	"sales-dialer/internal/calls"
	"sales-dialer/internal/config"
	"sales-dialer/internal/httpapi"
	"sales-dialer/internal/importer"
	"sales-dialer/internal/leads"
	"sales-dialer/internal/locks"
	"sales-dialer/internal/reporting"
	"sales-dialer/internal/store"
	"sales-dialer/internal/telephony"
	"sales-dialer/pkg/logger"
	"sales-dialer/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	backend := openStorage(rootCtx, cfg, log)
	locker, closeLocker := openLocker(rootCtx, cfg, log)
	defer closeLocker()

	var authManager *auth.Manager
	if cfg.AuthEnabled() {
		authManager, err = auth.NewManager(cfg.Auth)
		if err != nil {
			log.Error("auth init failed", "err", err)
			os.Exit(1)
		}
	}

	provider := telephony.NewVapiClient(cfg.Vapi, nil, log)
	leadSvc := leads.NewService(backend.Leads(), log)
	apptSvc := appointments.NewService(backend.Appointments(), backend.Leads(), appointments.Defaults{
		PropertyName:    cfg.Company.Project,
		PropertyAddress: cfg.Company.Address,
	}, log)
	callMgr := calls.NewManager(calls.Deps{
		Calls:    backend.Calls(),
		Leads:    backend.Leads(),
		Provider: provider,
		Locker:   locker,
		Booker:   apptSvc,
		Log:      log,
	})

	h := httpapi.Handlers{
		Leads:          leadSvc,
		Calls:          callMgr,
		Appointments:   apptSvc,
		Reporting:      reporting.NewService(backend.Leads(), backend.Calls()),
		Importer:       importer.New(backend.Leads(), log),
		Auth:           authManager,
		Storage:        backend,
		Env:            cfg.App.Env,
		UploadMaxBytes: cfg.HTTP.UploadMaxBytes,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.HTTP.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	webhook := telephony.WebhookHandler{Reconciler: callMgr}
	registerRoutes(r, h, webhook, authManager)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(rootCtx)
	g.Go(func() error {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "storage", backend.Mode())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return backend.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("api stopped with error", "err", err)
		os.Exit(1)
	}
}

// openStorage prefers Postgres. A durable store that is not configured or
// not reachable at startup leaves the process on the volatile store.
func openStorage(ctx context.Context, cfg config.Config, log *slog.Logger) *store.Failover {
	volatile := store.NewMemory()
	if !cfg.DurableStoreEnabled() {
		return store.NewFailover(nil, volatile, cfg.Store.PingInterval, log)
	}

	pg, err := store.OpenPostgres(ctx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres unavailable", "err", err)
		return store.NewFailover(nil, volatile, cfg.Store.PingInterval, log)
	}
	log.Info("postgres connected", "host", cfg.DB.Host, "db", cfg.DB.Name)
	return store.NewFailover(pg, volatile, cfg.Store.PingInterval, log)
}

// openLocker returns the redis lock when REDIS_HOST is set and reachable,
// the in-process lock otherwise.
func openLocker(ctx context.Context, cfg config.Config, log *slog.Logger) (locks.Locker, func()) {
	if !cfg.RedisEnabled() {
		return locks.NewLocal(), func() {}
	}
	rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Warn("redis unavailable; using in-process call locks", "err", err)
		return locks.NewLocal(), func() {}
	}
	return locks.NewRedis(rdb, locks.RedisConfig{}, log), func() { _ = rdb.Close() }
}
