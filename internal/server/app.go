package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/dbh-bot/dbh/config"
	"github.com/dbh-bot/dbh/internal/auth"
	"github.com/dbh-bot/dbh/internal/db"
	"github.com/dbh-bot/dbh/internal/mq"
	"github.com/dbh-bot/dbh/internal/services"
	"github.com/dbh-bot/dbh/internal/store"
)

// App holds the caches and their persistence, shared by the HTTP server and
// the one-shot commands.
type App struct {
	Users     *services.UserService
	Guilds    *services.GuildService
	Redirects *services.RedirectService
	Accounts  *services.AccountService
	Scheduler *services.Scheduler

	db  *sql.DB
	mq  *mq.MQ
	log *slog.Logger
}

// NewApp opens the database and, when configured, the flush report queue.
func NewApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := services.Options{WriteThrough: cfg.WriteThrough(), Logger: log}
	codec := auth.NewCodec(cfg.JWTSecret, cfg.TokenTTL, nil)

	app := &App{
		Users:     services.NewUserService(store.NewUserRepository(dbConn), opts),
		Guilds:    services.NewGuildService(store.NewGuildRepository(dbConn), cfg.DefaultPrefix, opts),
		Redirects: services.NewRedirectService(store.NewRedirectRepository(dbConn), opts),
		Accounts:  services.NewAccountService(store.NewAccountRepository(dbConn), codec, opts),
		db:        dbConn,
		log:       log,
	}
	app.Scheduler = services.NewScheduler(cfg.FlushInterval, app.Accounts, opts,
		app.Users, app.Guilds, app.Redirects, app.Accounts)

	if cfg.RabbitMQ.URL != "" {
		backend, err := mq.DialRabbitMQ(cfg.RabbitMQ)
		if err != nil {
			_ = dbConn.Close()
			return nil, err
		}
		app.mq = mq.New(backend)
		app.Scheduler.PublishTo(app.mq, cfg.RabbitMQ.FlushQueue)
	}

	log.Info("app ready", "write_mode", cfg.WriteMode, "flush_interval", cfg.FlushInterval, "reports", app.mq != nil)
	return app, nil
}

// Close releases the queue connection and the database pool.
func (a *App) Close() error {
	var errs []error
	if a.mq != nil {
		errs = append(errs, a.mq.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
