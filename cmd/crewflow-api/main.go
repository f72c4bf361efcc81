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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/crewflow-hq/crewflow-api/internal/handler"
	"github.com/crewflow-hq/crewflow-api/internal/middleware"
	"github.com/crewflow-hq/crewflow-api/internal/repository"
	"github.com/crewflow-hq/crewflow-api/internal/service"
	"github.com/crewflow-hq/crewflow-api/internal/token"
	"github.com/crewflow-hq/crewflow-api/pkg/cache"
	"github.com/crewflow-hq/crewflow-api/pkg/config"
	"github.com/crewflow-hq/crewflow-api/pkg/database"
	"github.com/crewflow-hq/crewflow-api/pkg/jobs"
	"github.com/crewflow-hq/crewflow-api/pkg/logger"
	corsmiddleware "github.com/crewflow-hq/crewflow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/crewflow-hq/crewflow-api/pkg/middleware/requestid"
	"github.com/crewflow-hq/crewflow-api/pkg/password"
	"github.com/crewflow-hq/crewflow-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	files, err := storage.NewLocalStorage(cfg.Payroll.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSigner(cfg.Payroll.SignedURLSecret, cfg.Payroll.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	timecardRepo := repository.NewTimecardRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	payrollRepo := repository.NewPayrollRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient, cfg.Redis.OpTimeout)

	codec := token.NewCodec(token.Config{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
		Issuer:        cfg.Auth.Issuer,
	})
	hasher := password.NewHasher(cfg.Auth.BcryptCost)

	authSvc := service.NewAuthService(userRepo, sessionRepo, codec, hasher, auditRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, hasher, validate, logr)
	projectSvc := service.NewProjectService(projectRepo, validate, logr)
	timecardSvc := service.NewTimecardService(timecardRepo, projectRepo, userRepo, companyRepo, validate, logr)
	companySvc := service.NewCompanyService(companyRepo, validate, logr)
	payrollSvc := service.NewPayrollService(payrollRepo, timecardRepo, files, signer, jobs.QueueConfig{
		Workers:    cfg.Payroll.WorkerConcurrency,
		MaxRetries: cfg.Payroll.WorkerRetries,
		Logger:     logr,
	}, validate, logr)
	metricsSvc := service.NewMetricsService()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	payrollSvc.Start(rootCtx)
	defer payrollSvc.Stop()

	go cleanupLoop(rootCtx, files, cfg.Payroll.CleanupInterval, cfg.Payroll.SignedURLTTL, logr.Sugar())

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.RouterDeps{
		Auth:        handler.NewAuthHandler(authSvc, userSvc),
		Users:       handler.NewUserHandler(userSvc),
		Projects:    handler.NewProjectHandler(projectSvc),
		Timecards:   handler.NewTimecardHandler(timecardSvc),
		Company:     handler.NewCompanyHandler(companySvc),
		Payroll:     handler.NewPayrollHandler(payrollSvc),
		Metrics:     handler.NewMetricsHandler(metricsSvc),
		AuthService: authSvc,
		AuditRepo:   auditRepo,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

// cleanupLoop deletes export files past the signed URL TTL. Expired links
// cannot be used anyway, so the files only waste disk.
func cleanupLoop(ctx context.Context, files *storage.LocalStorage, interval, ttl time.Duration, logr *zap.SugaredLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := files.CleanupOlderThan(ttl)
			if err != nil {
				logr.Warnw("export cleanup failed", "error", err)
				continue
			}
			if len(deleted) > 0 {
				logr.Infow("export files cleaned", "count", len(deleted))
			}
		}
	}
}
