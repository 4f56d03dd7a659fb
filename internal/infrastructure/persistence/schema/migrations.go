package schema

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"changectl/internal/bootstrap/logging"
	"changectl/internal/errs"
	"changectl/internal/infrastructure/persistence/sqlite/model"
)

type SchemaMigration struct {
	Version   int    `gorm:"column:version;primaryKey"`
	Name      string `gorm:"column:name;type:text;not null"`
	AppliedAt string `gorm:"column:applied_at;type:text;not null"`
}

func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

type migration struct {
	version int
	name    string
	apply   func(db *gorm.DB) error
}

// migrations is the ordered, additive-only schema history. Each step is
// idempotent: it probes before it creates, so a fresh database and a legacy
// one converge on the same shape. Columns are never dropped or renamed.
var migrations = []migration{
	{
		version: 1,
		name:    "create requests table",
		apply: func(db *gorm.DB) error {
			if db.Migrator().HasTable(&model.Request{}) {
				return nil
			}
			return db.Migrator().CreateTable(&model.Request{})
		},
	},
	{
		version: 2,
		name:    "add extended request metadata columns",
		apply: func(db *gorm.DB) error {
			fields := []string{
				"Initiator",
				"RequestedBy",
				"DateRequested",
				"SystemName",
				"PolicyFormComplete",
				"SopTrainingComplete",
				"BriefDescription",
			}
			for _, field := range fields {
				if db.Migrator().HasColumn(&model.Request{}, field) {
					continue
				}
				if err := db.Migrator().AddColumn(&model.Request{}, field); err != nil {
					return errs.Wrapf(err, "add column for field %s", field)
				}
			}
			return nil
		},
	},
	{
		version: 3,
		name:    "create sync kv table",
		apply: func(db *gorm.DB) error {
			if db.Migrator().HasTable(&model.SyncKV{}) {
				return nil
			}
			return db.Migrator().CreateTable(&model.SyncKV{})
		},
	},
}

// Apply runs every unapplied migration in version order and records it.
func Apply(ctx context.Context, db *gorm.DB) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if db == nil {
		return errors.New("db is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "persistence.schema"))

	scoped := db.WithContext(ctx)
	if err := scoped.AutoMigrate(&SchemaMigration{}); err != nil {
		return errs.Wrap(err, "migrate schema_migrations table")
	}

	applied := make(map[int]struct{})
	var rows []SchemaMigration
	if err := scoped.Find(&rows).Error; err != nil {
		return errs.Wrap(err, "load applied migrations")
	}
	for _, row := range rows {
		applied[row.Version] = struct{}{}
	}

	for _, m := range migrations {
		if _, ok := applied[m.version]; ok {
			continue
		}

		if err := m.apply(scoped); err != nil {
			return errs.Wrapf(err, "apply migration v%d (%s)", m.version, m.name)
		}
		if err := scoped.Create(&SchemaMigration{
			Version:   m.version,
			Name:      m.name,
			AppliedAt: time.Now().UTC().Format(time.RFC3339Nano),
		}).Error; err != nil {
			return errs.Wrapf(err, "record migration v%d", m.version)
		}

		logging.Info(logCtx, "migration applied", slog.Int("version", m.version), slog.String("name", m.name))
	}

	return nil
}

// Reset drops the request data wholesale. This is the only destructive
// operation the system supports and is reachable solely from init-db.
func Reset(ctx context.Context, db *gorm.DB) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if db == nil {
		return errors.New("db is required")
	}

	scoped := db.WithContext(ctx)
	for _, table := range []any{&model.Request{}, &model.SyncKV{}, &SchemaMigration{}} {
		if !scoped.Migrator().HasTable(table) {
			continue
		}
		if err := scoped.Migrator().DropTable(table); err != nil {
			return errs.Wrap(err, "drop table")
		}
	}

	logging.Warn(logging.WithAttrs(ctx, slog.String("component", "persistence.schema")), "store reset: all tables dropped")
	return nil
}
