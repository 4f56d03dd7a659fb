package bootstrap

import (
	"context"
	"log/slog"
	"strings"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"changectl/internal/bootstrap/config"
	"changectl/internal/bootstrap/database"
	"changectl/internal/bootstrap/logging"
	"changectl/internal/infrastructure/kvstore"
	"changectl/internal/infrastructure/notify/amqpnotify"
	"changectl/internal/infrastructure/notify/natsnotify"
	sqliterepo "changectl/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "changectl/internal/infrastructure/persistence/sqlite/uow"
	"changectl/internal/infrastructure/sync/httplist"
	"changectl/internal/ports"
	"changectl/internal/usecase/request"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewRequestRepository,
			fx.As(new(ports.RequestRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			kvstore.NewSQLiteKV,
			fx.As(new(ports.KV)),
		),
	),
	fx.Provide(provideDirectorySync),
	fx.Provide(provideNotifier),
	fx.Provide(provideService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

// provideDirectorySync returns nil when sync is disabled; the service treats
// a nil collaborator as "no sync configured".
func provideDirectorySync(cfg config.Config, kv ports.KV) (ports.DirectorySync, error) {
	switch strings.ToLower(cfg.Sync.Kind) {
	case "", "none":
		return nil, nil
	case "http":
		return httplist.New(httplist.Config{
			BaseURL:  cfg.Sync.BaseURL,
			ListName: cfg.Sync.ListName,
			Token:    cfg.Sync.Token,
		}, kv)
	default:
		return nil, nil
	}
}

func provideNotifier(lc fx.Lifecycle, cfg config.Config) (ports.Notifier, error) {
	switch strings.ToLower(cfg.Notify.Kind) {
	case "", "none":
		return nil, nil
	case "nats":
		publisher, err := natsnotify.New(cfg.Notify.URL, cfg.Notify.Subject)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				publisher.Close()
				return nil
			},
		})
		return publisher, nil
	case "amqp":
		publisher, err := amqpnotify.New(cfg.Notify.URL, cfg.Notify.Subject)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				publisher.Close()
				return nil
			},
		})
		return publisher, nil
	default:
		return nil, nil
	}
}

func provideService(
	lc fx.Lifecycle,
	repo ports.RequestRepository,
	uow ports.UnitOfWork,
	sync ports.DirectorySync,
	notifier ports.Notifier,
	cfg config.Config,
) (*request.Service, error) {
	service, err := request.NewService(repo, uow, request.Options{
		Sync:                sync,
		Notifier:            notifier,
		NotifyRecipient:     cfg.Notify.Recipient,
		SideEffectQueueSize: cfg.SideEffects.QueueSize,
		SideEffectTimeout:   cfg.SideEffects.Timeout,
		ExportBOM:           cfg.Export.BOM,
		ExportLayoutFile:    cfg.Export.LayoutFile,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			service.Close()
			return nil
		},
	})

	return service, nil
}
