// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	router "rewardvault/internal/api"
	"rewardvault/internal/api/handler"
	"rewardvault/internal/api/middleware"
	"rewardvault/internal/config"
	"rewardvault/internal/repository"
	"rewardvault/internal/repository/postgres"
	"rewardvault/internal/scheduler"
	"rewardvault/internal/service"
	"rewardvault/internal/util"
	"rewardvault/pkg/cache"
	"rewardvault/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	// Repositories
	UserRepository              repository.UserRepository
	DeviceRepository            repository.DeviceRepository
	LedgerRepository            repository.LedgerRepository
	IncomeRepository            repository.IncomeRepository
	RechargeRepository          repository.RechargeRepository
	WithdrawRepository          repository.WithdrawRepository
	WithdrawalAccountRepository repository.WithdrawalAccountRepository

	// Services
	BalanceService    service.BalanceService
	AccrualService    service.AccrualService
	DeviceService     service.DeviceService
	WithdrawalService service.WithdrawalService
	RechargeService   service.RechargeService
	UserService       service.UserService

	Authenticator *middleware.Authenticator
	Scheduler     *scheduler.Scheduler

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	// 4. Connect to Redis when a lease backend is configured
	var lease scheduler.Lease = scheduler.NoopLease{}
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(ctx, cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			// The lease only deduplicates sweep work; run without it.
			app.Logger.Warn("Redis unavailable, sweep lease disabled", "error", err)
		} else {
			app.Redis = rdb
			lease = scheduler.NewRedisLease(rdb, scheduler.LeaseKey, cfg.Sweep.LockTTL)
			app.Logger.Info("Redis connection established.")
		}
	}

	// 5. Initialize Repositories
	app.UserRepository = postgres.NewUserRepository()
	app.DeviceRepository = postgres.NewDeviceRepository()
	app.LedgerRepository = postgres.NewLedgerRepository()
	app.IncomeRepository = postgres.NewIncomeRepository()
	app.RechargeRepository = postgres.NewRechargeRepository()
	app.WithdrawRepository = postgres.NewWithdrawRepository()
	app.WithdrawalAccountRepository = postgres.NewWithdrawalAccountRepository()
	app.Logger.Info("Repositories initialized.")

	// 6. Initialize Services
	// Pass the concrete db.BeginTx, db.CommitTx, db.RollbackTx functions from pkg/db
	tx := service.NewTxRunner(app.DB, db.BeginTx, db.CommitTx, db.RollbackTx, 0, app.Logger)
	app.BalanceService = service.NewBalanceService(app.DB, tx, app.UserRepository, app.LedgerRepository)
	app.AccrualService = service.NewAccrualService(
		app.DB, tx, app.BalanceService,
		app.DeviceRepository, app.IncomeRepository,
		cfg.Sweep.BatchSize, nil, app.Logger,
	)
	app.DeviceService = service.NewDeviceService(
		app.DB, tx, app.BalanceService,
		app.UserRepository, app.DeviceRepository, app.IncomeRepository,
		cfg.SignupBonus, nil, app.Logger,
	)
	app.WithdrawalService = service.NewWithdrawalService(
		app.DB, tx, app.BalanceService,
		app.UserRepository, app.WithdrawRepository, app.WithdrawalAccountRepository,
		service.WithdrawalPolicy{Minimum: cfg.MinWithdrawal, FeeRate: cfg.WithdrawalFeeRate},
		app.Logger,
	)
	app.RechargeService = service.NewRechargeService(
		app.DB, tx, app.BalanceService,
		app.UserRepository, app.RechargeRepository,
		nil, app.Logger,
	)
	app.UserService = service.NewUserService(
		app.DB, tx, app.BalanceService, app.UserRepository,
		service.UserConfig{SignupBonus: cfg.SignupBonus, CheckinBonus: cfg.CheckinBonus},
		nil, app.Logger,
	)
	app.Logger.Info("Services initialized.")

	// 7. Initialize the sweep scheduler. It is started by the caller.
	app.Scheduler = scheduler.New(app.AccrualService, lease, cfg.Sweep.Schedule, cfg.Sweep.LockTTL, app.Logger)

	// 8. Initialize HTTP Handlers and Router
	app.Authenticator = middleware.NewAuthenticator(cfg.JWTSecret, app.UserService, app.Logger)
	handlers := router.Handlers{
		Users:       handler.NewUserHandler(app.UserService, app.BalanceService, app.Logger),
		Devices:     handler.NewDeviceHandler(app.DeviceService, app.AccrualService, app.Logger),
		Recharges:   handler.NewRechargeHandler(app.RechargeService, app.Logger),
		Withdrawals: handler.NewWithdrawalHandler(app.WithdrawalService, app.Logger),
		Admin: handler.NewAdminHandler(
			app.UserService, app.RechargeService, app.WithdrawalService, app.Scheduler, app.Logger,
		),
	}
	app.HTTPHandler = router.NewRouter(handlers, app.Authenticator, router.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Error("Failed to close Redis connection", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
