package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"changectl/internal/bootstrap/logging"
	"changectl/internal/errs"
)

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Database    DatabaseConfig    `mapstructure:"database"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Sync        SyncConfig        `mapstructure:"sync"`
	Notify      NotifyConfig      `mapstructure:"notify"`
	SideEffects SideEffectsConfig `mapstructure:"side_effects"`
	Export      ExportConfig      `mapstructure:"export"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// SyncConfig selects the directory/list sync collaborator. Kind "none"
// disables sync; "http" talks to a REST list service.
type SyncConfig struct {
	Kind     string `mapstructure:"kind"`
	BaseURL  string `mapstructure:"base_url"`
	ListName string `mapstructure:"list_name"`
	Token    string `mapstructure:"token"`
}

// NotifyConfig selects the notification transport: none, nats or amqp.
type NotifyConfig struct {
	Kind      string `mapstructure:"kind"`
	URL       string `mapstructure:"url"`
	Subject   string `mapstructure:"subject"`
	Recipient string `mapstructure:"recipient"`
}

type SideEffectsConfig struct {
	QueueSize int           `mapstructure:"queue_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type ExportConfig struct {
	BOM        bool   `mapstructure:"bom"`
	LayoutFile string `mapstructure:"layout_file"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(logCtx, v)

	v.SetEnvPrefix("CC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if err := validateKinds(cfg); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("sync_kind", cfg.Sync.Kind),
		slog.String("notify_kind", cfg.Notify.Kind),
	)

	return cfg, nil
}

func validateKinds(cfg Config) error {
	switch strings.ToLower(cfg.Sync.Kind) {
	case "", "none":
	case "http":
		if strings.TrimSpace(cfg.Sync.BaseURL) == "" {
			return errors.New("sync.base_url is required when sync.kind is http")
		}
	default:
		return errors.New("sync.kind must be none or http")
	}

	switch strings.ToLower(cfg.Notify.Kind) {
	case "", "none":
	case "nats", "amqp":
		if strings.TrimSpace(cfg.Notify.URL) == "" {
			return errors.New("notify.url is required when notify.kind is " + cfg.Notify.Kind)
		}
	default:
		return errors.New("notify.kind must be none, nats or amqp")
	}

	return nil
}

func setDefaults(ctx context.Context, v *viper.Viper) {
	if ctx == nil {
		return
	}

	v.SetDefault("app.name", "changectl")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/requests.sqlite")
	v.SetDefault("http.addr", ":3000")
	v.SetDefault("sync.kind", "none")
	v.SetDefault("sync.list_name", "ISV Change Requests")
	v.SetDefault("notify.kind", "none")
	v.SetDefault("notify.subject", "change-requests.notifications")
	v.SetDefault("side_effects.queue_size", 64)
	v.SetDefault("side_effects.timeout", 5*time.Second)
	v.SetDefault("export.bom", true)
}
