package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jehnsen/coopledger/internal/application/usecase"
	"github.com/jehnsen/coopledger/internal/config"
	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/port"
	"github.com/jehnsen/coopledger/internal/domain/service"
	"github.com/jehnsen/coopledger/internal/domain/valueobject"
	"github.com/jehnsen/coopledger/internal/infrastructure/clock"
	infraKafka "github.com/jehnsen/coopledger/internal/infrastructure/kafka"
	"github.com/jehnsen/coopledger/internal/infrastructure/memory"
	infraPG "github.com/jehnsen/coopledger/internal/infrastructure/postgres"
	"github.com/jehnsen/coopledger/internal/infrastructure/postgres/migrations"
	infraRedis "github.com/jehnsen/coopledger/internal/infrastructure/redis"
	"github.com/jehnsen/coopledger/internal/infrastructure/telemetry"
	grpcPresentation "github.com/jehnsen/coopledger/internal/presentation/grpc"
	"github.com/jehnsen/coopledger/internal/presentation/rest"
	"github.com/jehnsen/coopledger/pkg/auth"
	"github.com/jehnsen/coopledger/pkg/events"
	pkgkafka "github.com/jehnsen/coopledger/pkg/kafka"
	"github.com/jehnsen/coopledger/pkg/money"
	"github.com/jehnsen/coopledger/pkg/observability"
	pgpkg "github.com/jehnsen/coopledger/pkg/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("lendingd exited", "error", err)
		os.Exit(1)
	}
}

// backend is the persistence wiring selected by STORE_BACKEND.
type backend struct {
	store    port.LedgerStore
	products port.LoanProductRepository
	members  interface {
		port.MemberDirectory
		infraKafka.MemberStore
	}
	outbox events.OutboxRepository
	ready  map[string]rest.ReadinessCheck
	close  func()
}

func run(ctx context.Context) error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := observability.InitLogger(cfg.Log)
	logger.Info("starting lendingd",
		"store", cfg.Store,
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
	)

	// Initialize tracing and metrics.
	if cfg.Tracing.Endpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: cfg.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			Insecure:    cfg.Tracing.Insecure,
			SampleRatio: cfg.Tracing.SampleRatio,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }() //nolint:errcheck // best-effort tracer shutdown
		}
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: cfg.ServiceName})
	if err != nil {
		return err
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }() //nolint:errcheck
	instruments, err := telemetry.NewLedgerInstruments(meterProvider)
	if err != nil {
		return err
	}

	// Persistence.
	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.close()

	// Idempotency guard is optional.
	var guard port.IdempotencyGuard
	if cfg.Redis.Addr != "" {
		client, err := infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		guard = infraRedis.NewIdempotencyGuard(client, cfg.Redis)
		be.ready["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		logger.Info("payment idempotency enabled", "addr", cfg.Redis.Addr)
	}

	// Wire use cases.
	clk := clock.System{}
	uc := grpcPresentation.UseCases{
		PreviewSchedule:  usecase.NewPreviewScheduleUseCase(),
		ApplyForLoan:     usecase.NewApplyForLoanUseCase(be.store, be.products, be.members, clk, instruments, logger),
		SubmitForReview:  usecase.NewSubmitForReviewUseCase(be.store, clk, logger),
		ApproveLoan:      usecase.NewApproveLoanUseCase(be.store, clk, logger),
		RejectLoan:       usecase.NewRejectLoanUseCase(be.store, clk, logger),
		DisburseLoan:     usecase.NewDisburseLoanUseCase(be.store, clk, instruments, logger),
		RecordPayment:    usecase.NewRecordPaymentUseCase(be.store, service.NewPaymentAllocator(), guard, clk, instruments, logger),
		ReversePayment:   usecase.NewReversePaymentUseCase(be.store, service.NewReversalEngine(), clk, instruments, logger),
		ComputePenalties: usecase.NewComputePenaltiesUseCase(be.store, service.NewPenaltyEngine(), clk, instruments, logger, cfg.Lending.DefaultPenaltyRate),
		WaivePenalty:     usecase.NewWaivePenaltyUseCase(be.store, clk, logger),
		GetLoan:          usecase.NewGetLoanUseCase(be.store),
	}

	errCh := make(chan error, 4)

	// Kafka: outbox relay and membership projection.
	if cfg.Kafka.Enabled {
		producer, err := pkgkafka.NewProducer(cfg.Kafka.Config)
		if err != nil {
			return err
		}
		defer producer.Close()

		relay := infraKafka.NewOutboxRelay(be.outbox, producer, clk, logger,
			cfg.Kafka.LoanTopic, cfg.Lending.OutboxBatchSize, cfg.Lending.OutboxInterval)
		go func() {
			if err := relay.Run(ctx); err != nil {
				errCh <- fmt.Errorf("outbox relay: %w", err)
			}
		}()

		memberHandler := infraKafka.NewMemberEventHandler(be.members, clk, logger)
		consumer, err := pkgkafka.NewConsumer(cfg.Kafka.Config, cfg.Kafka.MemberTopic, memberHandler.Handle, logger)
		if err != nil {
			return err
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("member consumer: %w", err)
			}
		}()
	} else {
		logger.Warn("kafka disabled: events stay in the outbox and the member directory is not refreshed")
	}

	// gRPC server.
	jwtSvc, err := auth.NewJWTService(cfg.JWT)
	if err != nil {
		return fmt.Errorf("jwt: %w", err)
	}
	handler := grpcPresentation.NewLendingHandler(uc, logger)
	grpcServer, err := grpcPresentation.NewServer(grpcPresentation.ServerConfig{
		TLSCertFile: cfg.GRPC.TLSCertFile,
		TLSKeyFile:  cfg.GRPC.TLSKeyFile,
		Reflection:  cfg.GRPC.Reflection,
	}, handler, logger, jwtSvc)
	if err != nil {
		return err
	}

	// HTTP server (health checks + metrics).
	mux := http.NewServeMux()
	rest.NewHealthHandler(logger, be.ready, metricsHandler).RegisterRoutes(mux)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start servers.
	go func() {
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	go func() {
		logger.Info("HTTP server starting", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for shutdown signal.
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server error", "error", runErr)
	}

	// Graceful shutdown.
	grpcServer.GracefulStop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("lendingd stopped")
	return runErr
}

func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backend, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using in-memory ledger store; data is lost on exit")
		if len(cfg.Lending.SeedMembers) == 0 && !cfg.Kafka.Enabled {
			logger.Warn("no SEED_MEMBERS and kafka disabled: every loan application will be refused as ineligible")
		}
		store := memory.NewLedgerStore()
		return &backend{
			store:    store,
			products: memory.NewProductCatalog(regularLoan()),
			members:  memory.NewMemberDirectory(cfg.Lending.SeedMembers...),
			outbox:   store,
			ready:    map[string]rest.ReadinessCheck{},
			close:    func() {},
		}, nil
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()
	pool, err := pgpkg.NewPool(dbCtx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("connected to database", "host", cfg.DB.Host, "database", cfg.DB.Database)

	if err := pgpkg.RunMigrations(cfg.DB.DSN(), migrations.FS, migrations.Dir); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &backend{
		store:    infraPG.NewLedgerStore(pool),
		products: infraPG.NewProductRepo(pool),
		members:  infraPG.NewMemberDirectory(pool),
		outbox:   infraPG.NewOutboxRepo(pool),
		ready: map[string]rest.ReadinessCheck{
			"postgres": func(ctx context.Context) error { return pgpkg.HealthCheck(ctx, pool) },
		},
		close: pool.Close,
	}, nil
}

// regularLoan is the product offered when running without a database.
func regularLoan() model.LoanProduct {
	return model.LoanProduct{
		ID:                "regular",
		Code:              "RL",
		Name:              "Regular Loan",
		MonthlyRate:       decimal.RequireFromString("0.015"),
		ProcessingFeeRate: decimal.RequireFromString("0.02"),
		PenaltyRate:       model.DefaultPenaltyRate,
		ServiceFee:        money.FromPesos(100),
		MinPrincipal:      money.FromPesos(1_000),
		MaxPrincipal:      money.FromPesos(500_000),
		MaxTermMonths:     36,
		Intervals: []valueobject.PaymentInterval{
			valueobject.PaymentIntervalMonthly,
			valueobject.PaymentIntervalSemiMonthly,
			valueobject.PaymentIntervalWeekly,
		},
		IsActive: true,
	}
}
