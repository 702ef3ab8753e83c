package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sangkips/pharmadesk/internal/application/service"
	"github.com/sangkips/pharmadesk/internal/config"
	"github.com/sangkips/pharmadesk/internal/domain/entity"
	domainRepo "github.com/sangkips/pharmadesk/internal/domain/repository"
	"github.com/sangkips/pharmadesk/internal/infrastructure/database"
	"github.com/sangkips/pharmadesk/internal/infrastructure/pharmacyapi"
	"github.com/sangkips/pharmadesk/internal/infrastructure/repository"
	"github.com/sangkips/pharmadesk/internal/presentation/http/handler"
	"github.com/sangkips/pharmadesk/internal/presentation/http/middleware"
	"github.com/sangkips/pharmadesk/internal/presentation/http/routes"
	"github.com/sangkips/pharmadesk/internal/receipt"
	"github.com/sangkips/pharmadesk/pkg/email"
	"github.com/sangkips/pharmadesk/pkg/money"
	"github.com/sangkips/pharmadesk/pkg/phone"
	"github.com/sangkips/pharmadesk/pkg/printer"
	"github.com/sirupsen/logrus"
)

const (
	janitorInterval   = time.Minute
	idempotencySweep  = time.Hour
	shutdownGracetime = 15 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := config.NewLogger(cfg.App.LogLevel, os.Stdout)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Local persistence: idempotency keys and the session token
	var (
		idempotencyRepo domainRepo.IdempotencyRepository
		tokenRepo       domainRepo.TokenRepository
	)
	switch cfg.Store.Driver {
	case "postgres":
		db, err := database.NewPostgresDB(&cfg.Database, log)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to database")
		}
		if err := database.AutoMigrate(db, log); err != nil {
			log.WithError(err).Fatal("failed to run migrations")
		}
		idempotencyRepo = repository.NewIdempotencyRepository(db)
		tokenRepo = repository.NewTokenRepository(db)
	default:
		idempotencyRepo = repository.NewMemoryIdempotencyRepository()
		tokenRepo = repository.NewMemoryTokenRepository()
	}

	// Pharmacy API session and repositories
	session := pharmacyapi.NewSession(cfg.Session.TokenName, tokenRepo, log)
	if err := session.Init(ctx); err != nil {
		config.LogWarn(log, "main", "main", "restore session token", nil, err)
	}
	client := pharmacyapi.NewClient(pharmacyapi.Options{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
		RPS:     cfg.Upstream.RPS,
		Burst:   cfg.Upstream.Burst,
	}, session, log)
	customerRepo := pharmacyapi.NewCustomerRepository(client)
	catalogRepo := pharmacyapi.NewCatalogRepository(client)
	billRepo := pharmacyapi.NewBillRepository(client)
	settingsRepo := pharmacyapi.NewSettingsRepository(client)
	reportRepo := pharmacyapi.NewReportRepository(client)

	v := validator.New()
	if err := phone.RegisterValidation(v, cfg.Billing.PhoneRegion); err != nil {
		log.WithError(err).Fatal("failed to register phone validation")
	}

	// Receipt output
	location, _ := time.LoadLocation(cfg.Billing.Timezone)
	renderer := receipt.NewRenderer(money.NewFormatter(cfg.Billing.Locale, cfg.Billing.Currency), location)

	var pdf *receipt.PDFRenderer
	var pdfRenderer service.PDFRenderer
	if cfg.PDF.Enabled {
		pdf = receipt.NewPDFRenderer(receipt.PDFOptions{
			Bin:        cfg.PDF.ChromeBin,
			ControlURL: cfg.PDF.ControlURL,
			Timeout:    cfg.PDF.Timeout,
		}, log)
		pdfRenderer = pdf
	}

	thermalPrinter, err := printer.NewPrinterFromConfig(cfg.Printer.Type, cfg.Printer.USBPath, cfg.Printer.Address)
	if err != nil {
		config.LogWarn(log, "main", "main", "initialize printer", cfg.Printer, err)
		thermalPrinter = printer.NewNullPrinter()
	}

	emailService := email.NewEmailService(email.EmailConfig{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUsername: cfg.Email.SMTPUsername,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromName:     cfg.Email.FromName,
		FromEmail:    cfg.Email.FromEmail,
	})

	fallback := entity.StoreProfile{
		Name:     cfg.Profile.Name,
		Subtitle: cfg.Profile.Subtitle,
		Phone:    cfg.Profile.Phone,
		Address:  cfg.Profile.Address,
		GSTIN:    cfg.Profile.GSTIN,
	}

	// Initialize services
	customerService := service.NewCustomerService(customerRepo, v, cfg.Billing.PhoneRegion, cfg.Billing.WalkInName, log)
	receiptService := service.NewReceiptService(billRepo, settingsRepo, fallback, renderer, pdfRenderer,
		thermalPrinter, cfg.Printer.Width, emailService, log)
	catalogService := service.NewCatalogService(catalogRepo, log)
	billService := service.NewBillService(billRepo, log)
	reportService := service.NewReportService(catalogService, receiptService, reportRepo, log)
	billingService := service.NewBillingService(catalogRepo, billRepo, customerService, receiptService,
		cfg.Billing.SearchQuiet, cfg.Billing.SessionTTL, log)

	go billingService.RunJanitor(ctx, janitorInterval)
	go sweepIdempotencyKeys(ctx, idempotencyRepo, log)

	rateLimiter := middleware.NewClientRateLimiter(middleware.RateLimiterConfigFrom(cfg.RateLimit))
	defer rateLimiter.Stop()

	handlers := &routes.Handlers{
		Health:   handler.NewHealthHandler(cfg.App.Name, session),
		Session:  handler.NewSessionHandler(session),
		Catalog:  handler.NewCatalogHandler(catalogService),
		Customer: handler.NewCustomerHandler(customerService),
		Billing:  handler.NewBillingHandler(billingService),
		Bill:     handler.NewBillHandler(billService, receiptService),
		Report:   handler.NewReportHandler(reportService),
		Settings: handler.NewSettingsHandler(receiptService),
		Printer:  handler.NewPrinterHandler(receiptService),
	}

	router := routes.Setup(handlers, &routes.Deps{
		Cfg:             cfg,
		Logger:          log,
		Tokens:          session,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"service":  cfg.App.Name,
			"port":     cfg.App.Port,
			"env":      cfg.App.Env,
			"upstream": cfg.Upstream.BaseURL,
			"store":    cfg.Store.Driver,
		}).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracetime)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server did not drain in time")
	}
	// receipt emails queued after a submit
	billingService.Wait()
	if pdf != nil {
		if err := pdf.Close(); err != nil {
			log.WithError(err).Warn("failed to close pdf browser")
		}
	}
}

// sweepIdempotencyKeys drops expired idempotency keys until ctx ends
func sweepIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository, log logrus.FieldLogger) {
	ticker := time.NewTicker(idempotencySweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.DeleteExpired(ctx); err != nil {
				log.WithError(err).Warn("failed to delete expired idempotency keys")
			}
		}
	}
}
