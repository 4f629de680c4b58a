package botapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cobrrraa/predlozhka/internal/config"
	"github.com/cobrrraa/predlozhka/internal/infra/spool"
	tginfra "github.com/cobrrraa/predlozhka/internal/infra/telegram"
	pgrepo "github.com/cobrrraa/predlozhka/internal/repo/postgres"
	redrepo "github.com/cobrrraa/predlozhka/internal/repo/redis"
	ratesvc "github.com/cobrrraa/predlozhka/internal/services/rate"
	resolvesvc "github.com/cobrrraa/predlozhka/internal/services/resolve"
	setupsvc "github.com/cobrrraa/predlozhka/internal/services/setup"
	submitsvc "github.com/cobrrraa/predlozhka/internal/services/submit"
	"github.com/cobrrraa/predlozhka/internal/transport/ops"
)

type App struct {
	cfg      config.Config
	logger   *zap.Logger
	postgres *pgxpool.Pool
	redis    *goredis.Client
	bot      *tginfra.Bot
	spool    *spool.Spool

	userRepo     *pgrepo.UserRepo
	settingsRepo *pgrepo.SettingsRepo

	submitService  *submitsvc.Service
	resolveService *resolvesvc.Service
	setupService   *setupsvc.Service
	limiter        *ratesvc.Limiter
	opsServer      *ops.Server
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pgrepo.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	userRepo := pgrepo.NewUserRepo(pool)
	postRepo := pgrepo.NewPostRepo(pool)
	settingsRepo := pgrepo.NewSettingsRepo(pool)
	if err := settingsRepo.EnsureRow(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	fileSpool := spool.New(cfg.Bot.SpoolDir)
	if err := fileSpool.EnsureDir(); err != nil {
		pool.Close()
		return nil, err
	}

	bot, err := tginfra.NewBot(cfg.Bot.Token)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	txManager := pgrepo.NewTxManager(pool)

	var (
		redisClient *goredis.Client
		limiter     *ratesvc.Limiter
	)
	if cfg.Redis.Addr != "" {
		redisClient = redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		limiter = ratesvc.NewLimiter(redrepo.NewRateRepo(redisClient), cfg.Limits.SubmitPerMinute, cfg.Limits.SubmitPer10Sec)
	} else {
		logger.Info("redis is not configured, submission limiter disabled")
	}

	var opsServer *ops.Server
	if cfg.Ops.Addr != "" {
		opsServer = ops.NewServer(ops.Config{
			Addr:         cfg.Ops.Addr,
			ReadTimeout:  cfg.Ops.ReadTimeout,
			WriteTimeout: cfg.Ops.WriteTimeout,
		}, pool, logger)
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		postgres:       pool,
		redis:          redisClient,
		bot:            bot,
		spool:          fileSpool,
		userRepo:       userRepo,
		settingsRepo:   settingsRepo,
		submitService:  submitsvc.NewService(userRepo, postRepo, bot, logger),
		resolveService: resolvesvc.NewService(userRepo, postRepo, settingsRepo, txManager, bot, fileSpool, logger),
		setupService:   setupsvc.NewService(settingsRepo, userRepo, txManager, logger),
		limiter:        limiter,
		opsServer:      opsServer,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("bot app started")
	a.reportStartupState(ctx)

	errCh := make(chan error, 2)

	if a.opsServer != nil {
		go func() {
			errCh <- a.opsServer.Run(ctx)
		}()
	}

	go func() {
		errCh <- a.bot.Listen(ctx, tginfra.Handlers{
			OnCommand:  a.handleCommand,
			OnPhoto:    a.handlePhoto,
			OnCallback: a.handleCallback,
		})
	}()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("bot app stopped")
			return nil
		case err := <-errCh:
			if err == nil || errors.Is(err, context.Canceled) {
				continue
			}
			return err
		}
	}
}

// reportStartupState mirrors settings onto the log at boot and warns the
// initializer when the deployment somehow ended up initialized without a
// target channel.
func (a *App) reportStartupState(ctx context.Context) {
	settings, err := a.settingsRepo.Get(ctx)
	if err != nil {
		a.logger.Error("failed to read settings at startup", zap.Error(err))
		return
	}

	if !settings.Initialized {
		a.logger.Warn("bot is not initialized, waiting for /init command")
		return
	}

	if settings.TargetChannel != "" {
		a.logger.Info("settings ok", zap.String("target_channel", settings.TargetChannel))
		return
	}

	a.logger.Warn("initialized without target channel")
	if settings.InitializerID > 0 {
		if err := a.bot.SendText(ctx, settings.InitializerID, noTargetWarningText); err != nil {
			a.logger.Warn("failed to warn initializer", zap.Error(err))
		}
	}
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
