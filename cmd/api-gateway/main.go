package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/obratech/procurement-api/api/swagger"
	"github.com/obratech/procurement-api/internal/handler"
	"github.com/obratech/procurement-api/internal/models"
	"github.com/obratech/procurement-api/internal/repository"
	"github.com/obratech/procurement-api/internal/service"
	"github.com/obratech/procurement-api/pkg/cache"
	"github.com/obratech/procurement-api/pkg/config"
	"github.com/obratech/procurement-api/pkg/database"
	"github.com/obratech/procurement-api/pkg/export"
	"github.com/obratech/procurement-api/pkg/logger"
)

// @title Procurement API
// @version 1.0
// @description Purchase request, quotation and requisition workflow for construction sites.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The dashboard degrades to direct reads without Redis.
		log.Warn("connect redis failed, caching disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer func() { _ = redisClient.Close() }()
	}

	requestRepo := repository.NewRequestRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	requisitionRepo := repository.NewRequisitionRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	siteRepo := repository.NewSiteRepository(db)
	sequenceRepo := repository.NewSequenceRepository(cfg.Sequence.LockTimeout)

	headers := make(map[models.HeaderProfile]export.CompanyHeader, len(export.Headers))
	for profile, header := range export.Headers {
		headers[models.HeaderProfile(profile)] = header
	}

	requestSvc := service.NewRequestService(requestRepo, sequenceRepo, auditRepo, log)
	quotationSvc := service.NewQuotationService(requestRepo, quotationRepo, requisitionRepo, supplierRepo,
		sequenceRepo, auditRepo, models.HeaderProfile(cfg.Requisition.DefaultHeader), log)
	requisitionSvc := service.NewRequisitionService(requestRepo, requisitionRepo, quotationRepo, supplierRepo,
		userRepo, auditRepo, export.NewRequisitionRenderer(), headers, log)
	receiptSvc := service.NewReceiptService(requestRepo, receiptRepo, auditRepo, log)
	masterSvc := service.NewMasterService(supplierRepo, catalogRepo, siteRepo, log)
	classificationSvc := service.NewClassificationService(cfg.Advisory, catalogRepo, log)
	dashboardSvc := service.NewDashboardService(requestRepo, redisClient, cfg.Dashboard.CacheTTL, log)

	router := handler.NewRouter(cfg, log, handler.Handlers{
		Requests:       handler.NewRequestHandler(requestSvc),
		Quotations:     handler.NewQuotationHandler(quotationSvc),
		Requisitions:   handler.NewRequisitionHandler(requisitionSvc),
		Receipts:       handler.NewReceiptHandler(receiptSvc),
		Master:         handler.NewMasterHandler(masterSvc),
		Classification: handler.NewClassificationHandler(classificationSvc),
		Dashboard:      handler.NewDashboardHandler(dashboardSvc),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.Int("port", cfg.Port), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
