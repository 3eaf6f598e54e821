package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/Kamron201111/telegram-stars-bot/internal/archive"
	"github.com/Kamron201111/telegram-stars-bot/internal/bot"
	"github.com/Kamron201111/telegram-stars-bot/internal/catalog"
	"github.com/Kamron201111/telegram-stars-bot/internal/health"
	"github.com/Kamron201111/telegram-stars-bot/internal/i18n"
	"github.com/Kamron201111/telegram-stars-bot/internal/idempotency"
	"github.com/Kamron201111/telegram-stars-bot/internal/identity"
	"github.com/Kamron201111/telegram-stars-bot/internal/lifecycle"
	"github.com/Kamron201111/telegram-stars-bot/internal/middleware"
	"github.com/Kamron201111/telegram-stars-bot/internal/notify"
	"github.com/Kamron201111/telegram-stars-bot/internal/purchase"
	"github.com/Kamron201111/telegram-stars-bot/internal/ratelimit"
	"github.com/Kamron201111/telegram-stars-bot/internal/repository"
	"github.com/Kamron201111/telegram-stars-bot/internal/security"
	"github.com/Kamron201111/telegram-stars-bot/internal/state"
	"github.com/Kamron201111/telegram-stars-bot/pkg/config"
	"github.com/Kamron201111/telegram-stars-bot/pkg/graceful"
	"github.com/Kamron201111/telegram-stars-bot/pkg/logger"
	"github.com/Kamron201111/telegram-stars-bot/pkg/metrics"
	appredis "github.com/Kamron201111/telegram-stars-bot/pkg/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)

	if err := run(ctx, cfg, v, log); err != nil {
		log.Error("bot stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, v *viper.Viper, log *slog.Logger) error {
	log.Info("starting stars bot",
		slog.String("mode", cfg.Bot.Mode),
		slog.String("http_port", cfg.Server.Port),
		slog.String("log_level", cfg.Logger.Level),
	)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			log.Warn("sentry disabled", slog.Any("error", err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	watchLogLevel(v, log)

	redisClient := connectRedis(ctx, cfg.Redis, log)

	var db *sql.DB
	if cfg.Database.Enabled() {
		var err error
		db, err = archive.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return err
		}
		if err := archive.NewMigrator(db, log).Apply(ctx, cfg.Database.MigrationsDir); err != nil {
			_ = db.Close()
			return fmt.Errorf("apply migrations: %w", err)
		}
		log.Info("order archive ready")
	}

	messages, err := loadMessages(cfg.I18n)
	if err != nil {
		return err
	}
	tr := messages.Translator(cfg.I18n.DefaultLanguage)

	cat := catalog.Default()
	roles := identity.NewResolver(cfg.Admin.ChatID)

	var kv repository.KeyValue
	if redisClient != nil {
		kv = appredis.NewMetricsClient(redisClient)
	}
	profiles := repository.NewProfileStore(kv, roles, repository.NewBreaker(), log)
	orders := repository.NewOrderStore(kv, repository.NewBreaker(), log)

	storage, locker := conversationBackend(cfg.Conversation, redisClient, log)
	machine := state.NewMachine(storage, locker, log)

	tb, err := bot.NewTelebot(cfg.Bot, log)
	if err != nil {
		return err
	}

	listeners := []purchase.OrderListener{notify.NewAdminNotifier(tb, cfg.Admin.ChatID, tr, log)}
	if db != nil {
		listeners = append(listeners, archive.NewStore(db, log))
	}
	flow := purchase.NewFlow(machine, cat, orders, security.NewInputValidator(), log, listeners...)

	idemStore, idemMemory := idempotencyBackend(redisClient, log)

	deps := bot.Deps{
		Catalog:       cat,
		Roles:         roles,
		Profiles:      profiles,
		Orders:        orders,
		Flow:          flow,
		Conversations: storage,
		Translator:    tr,
		Idempotency:   idempotency.NewManager(idemStore, log),
	}

	var limiterMemory *ratelimit.MemoryLimiter
	var limiterMaxAge time.Duration
	if cfg.RateLimit.Enabled {
		rules, err := ratelimit.NewRules(cfg.RateLimit, cfg.Admin.ChatID)
		if err != nil {
			return fmt.Errorf("rate limit rules: %w", err)
		}
		_, limiterMaxAge = rules.PerUser()

		limiterMemory = ratelimit.NewMemoryLimiter()
		var limiter ratelimit.Limiter = limiterMemory
		if redisClient != nil {
			limiter = ratelimit.NewAdaptiveLimiter(ratelimit.NewRedisLimiter(redisClient, log), limiterMemory, log)
		}
		deps.RateLimit = middleware.NewRateLimitMiddleware(limiter, rules, tr, log)
	}

	telegramBot := bot.New(tb, *cfg, deps, log)

	checker := health.NewChecker(log)
	checker.AddCheck("telegram", health.NewTelegramChecker(tb), true)
	if redisClient != nil {
		checker.AddCheck("redis", health.NewRedisChecker(redisClient), false)
	}
	if db != nil {
		checker.AddCheck("archive", health.NewDBChecker(db), false)
	}
	probes := lifecycle.NewProbes(checker, log)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	probes.Register(mux)

	server := graceful.NewServer(log, ":"+cfg.Server.Port, logger.Middleware(middleware.New(log)(mux)), cfg.Server.ShutdownTimeout)

	workers, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	go metrics.NewStateCollector(storage).Run(workers)
	go idempotency.NewCleaner(idemMemory, log, 10*time.Minute).Run(workers)
	if limiterMemory != nil {
		go ratelimit.NewCleaner(limiterMemory, log, time.Minute, limiterMaxAge).Run(workers)
	}
	if cfg.Conversation.TTL > 0 {
		go state.NewCleaner(machine, log, cfg.Conversation.TTL, cfg.Conversation.CleanInterval).Run(workers)
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.ListenAndServe(ctx)
	}()

	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		defer func() {
			if r := recover(); r != nil {
				log.Error("telegram bot panicked", slog.Any("panic", r))
			}
		}()
		telegramBot.Start()
	}()

	log.Info("stars bot started")

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serverDone:
		runErr = err
		serverDone <- err
	}

	probes.Drain()
	cancelWorkers()

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("telegram", func(context.Context) error {
		telegramBot.Stop()
		<-botDone
		return nil
	})
	shutdown.Register("http", func(shutdownCtx context.Context) error {
		select {
		case err := <-serverDone:
			return err
		case <-shutdownCtx.Done():
			return shutdownCtx.Err()
		}
	})
	if db != nil {
		shutdown.Register("archive", func(context.Context) error {
			return db.Close()
		})
	}
	if redisClient != nil {
		shutdown.Register("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout+5*time.Second)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}

	log.Info("stars bot stopped")
	return runErr
}

// watchLogLevel re-reads logger.level whenever the config file changes.
func watchLogLevel(v *viper.Viper, log *slog.Logger) {
	if v == nil || v.ConfigFileUsed() == "" {
		return
	}
	if _, err := os.Stat(v.ConfigFileUsed()); err != nil {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		level := v.GetString("logger.level")
		logger.SetLevel(level)
		log.Info("config changed", slog.String("file", e.Name), slog.String("log_level", level))
	})
	v.WatchConfig()
}

// connectRedis returns nil when the client cannot be built. An unreachable server is only
// logged: the stores degrade until it comes back.
func connectRedis(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) *appredis.Client {
	client, err := appredis.New(appredis.Config{
		URL:          cfg.URL,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err != nil {
		log.Warn("redis disabled", slog.Any("error", err))
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		log.Warn("redis unreachable, running degraded", slog.Any("error", err))
	}
	return client
}

func loadMessages(cfg config.I18nConfig) (*i18n.Manager, error) {
	if cfg.Dir != "" {
		return i18n.LoadFromDir(cfg.Dir, cfg.DefaultLanguage)
	}
	return i18n.Load(cfg.DefaultLanguage)
}

// conversationBackend keeps conversations in process unless Redis is configured and reachable.
func conversationBackend(cfg config.ConversationConfig, client *appredis.Client, log *slog.Logger) (state.Storage, state.Locker) {
	if cfg.Backend != "redis" {
		return state.NewMemoryStorage(), state.NewKeyedMutex()
	}
	if client == nil {
		log.Warn("redis conversation backend unavailable, using memory")
		return state.NewMemoryStorage(), state.NewKeyedMutex()
	}
	return state.NewRedisStorage(client, log, cfg.TTL), state.NewRedisLocker(client, log)
}

func idempotencyBackend(client *appredis.Client, log *slog.Logger) (idempotency.Store, *idempotency.MemoryStore) {
	if client == nil {
		memory := idempotency.NewMemoryStore()
		return memory, memory
	}
	return idempotency.NewRedisStore(client, log), nil
}
