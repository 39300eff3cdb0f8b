package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"hozur/internal/bot"
	"hozur/internal/config"
	"hozur/internal/database"
	"hozur/internal/dialog"
	"hozur/internal/i18n"
	"hozur/internal/metrics"
	"hozur/internal/scheduler"
	"hozur/internal/shifts"
	"hozur/internal/workflow"
	"hozur/shared/access"
	"hozur/shared/notify"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg("no .env file, using process environment")
	}

	cfg, err := config.Load(os.Getenv("HOZUR_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if err := i18n.Init(cfg.Locale); err != nil {
		logger.Fatal().Err(err).Msg("failed to load translations")
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid timezone")
	}
	catalog, err := shifts.NewCatalog(cfg.ShiftTable(), loc)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid shift table")
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}

	roles := access.NewRegistry(cfg.Roles.Managers, cfg.Roles.SuperAdmins, logger)

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram auth error")
	}
	api.Debug = cfg.Telegram.Debug

	dispatcher := notify.NewDispatcher(bot.NewSender(api), notify.Config{
		RatePerSecond: cfg.Notifications.RatePerSecond,
		Burst:         cfg.Notifications.Burst,
	}, logger)

	svc := workflow.New(db, roles, catalog, dispatcher, logger, workflow.Options{
		NotesRequireAssignment: cfg.NotesRequireAssignment(),
		AttachXLSX:             cfg.Schedule.AttachXLSX,
	})

	var (
		store dialog.Store = dialog.NewMemoryStore()
		guard scheduler.Guard
	)
	if rdb != nil {
		store = dialog.NewFailoverStore(dialog.NewRedisStore(rdb), store, logger)
		guard = scheduler.NewRedisGuard(rdb)
	}
	dialogs := dialog.NewMachine(store, cfg.DialogTimeout(), logger)

	b, err := bot.New(api, svc, dialogs, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("create bot error")
	}

	sched := scheduler.New(svc, catalog, scheduler.Config{
		ReminderBefore:       cfg.ReminderBefore(),
		LateAlertAfter:       cfg.LateAlertAfter(),
		NightlyReportAt:      cfg.NightlyReportOffset(),
		DisableReminders:     cfg.Schedule.DisableShiftReminders,
		DisableLateAlerts:    cfg.Schedule.DisableLateAlerts,
		DisableNightlyReport: cfg.Schedule.DisableNightlyReport,
	}, guard, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.Backup.Enabled {
		go startBackupLoop(ctx, db, cfg, &logger)
	}

	sched.Start(ctx)
	defer sched.Stop()

	logger.Info().
		Int("shifts", len(catalog.IDs())).
		Str("timezone", loc.String()).
		Msg("attendance bot started")
	b.Start(ctx)
}

func startBackupLoop(ctx context.Context, db *database.DB, cfg *config.Config, logger *zerolog.Logger) {
	if cfg.Backup.Path == "" {
		cfg.Backup.Path = "backups"
	}
	if cfg.Backup.IntervalHours <= 0 {
		cfg.Backup.IntervalHours = 24
	}
	if cfg.Backup.RetentionDays <= 0 {
		cfg.Backup.RetentionDays = 14
	}

	if err := os.MkdirAll(cfg.Backup.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("failed to create backup directory")
		return
	}

	interval := time.Duration(cfg.Backup.IntervalHours) * time.Hour
	retention := time.Duration(cfg.Backup.RetentionDays) * 24 * time.Hour

	// Run first backup after a short delay
	select {
	case <-time.After(1 * time.Minute):
		runBackupTask(ctx, db, cfg.Backup.Path, retention, logger)
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runBackupTask(ctx, db, cfg.Backup.Path, retention, logger)
		case <-ctx.Done():
			return
		}
	}
}

func runBackupTask(ctx context.Context, db *database.DB, dir string, retention time.Duration, logger *zerolog.Logger) {
	dest := filepath.Join(dir, database.BackupName(time.Now()))

	logger.Info().Str("path", dest).Msg("starting database backup")
	if err := db.Backup(ctx, dest); err != nil {
		logger.Error().Err(err).Msg("backup failed")
	} else {
		logger.Info().Msg("backup completed successfully")
	}

	deleted, err := db.CleanupBackups(dir, retention)
	if err != nil {
		logger.Error().Err(err).Msg("backup cleanup failed")
	} else if deleted > 0 {
		logger.Info().Int("deleted", deleted).Msg("cleaned up old backups")
	}
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	live := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
	mux.HandleFunc("/health", live)
	mux.HandleFunc("/healthz", live)
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
