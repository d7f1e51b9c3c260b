package app

import (
	"context"
	"fmt"
	"log/slog"

	"tracker-service/common/metrics"
	"tracker-service/internal/config"
	"tracker-service/internal/db"
	"tracker-service/internal/invite"
	"tracker-service/internal/link"
	"tracker-service/internal/memstore"
	"tracker-service/internal/notification"
	"tracker-service/internal/subject"
	"tracker-service/internal/task"
	"tracker-service/internal/user"

	"github.com/uptrace/bun"
)

// stores is every repository behind one driver.
type stores struct {
	users         user.Repository
	subjects      subject.Repository
	links         link.Repository
	tasks         task.Repository
	invites       invite.Repository
	notifications notification.Repository
	tx            db.TxRunner
	ping          func(ctx context.Context) error
	close         func()
}

// models lists every table, in dependency order.
var models = []interface{}{
	(*user.User)(nil),
	(*subject.Subject)(nil),
	(*link.Edge)(nil),
	(*task.Project)(nil),
	(*task.Record)(nil),
	(*invite.Invite)(nil),
	(*notification.Notification)(nil),
}

func openStores(ctx context.Context, cfg config.DatabaseConfig, m *metrics.Metrics, logger *slog.Logger) (*stores, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return memoryStores(memstore.New()), nil
	case config.DriverPostgres:
		database, err := db.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.RunMigrations(ctx, database, models...); err != nil {
			db.Close(database)
			return nil, err
		}
		if err := m.Database.RegisterDB(database.DB, m.Meter()); err != nil {
			logger.Warn("failed to register database pool metrics", "error", err)
		}
		return postgresStores(database, m), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func postgresStores(database *bun.DB, m *metrics.Metrics) *stores {
	return &stores{
		users:         user.NewRepository(database, m),
		subjects:      subject.NewRepository(database, m),
		links:         link.NewRepository(database, m),
		tasks:         task.NewRepository(database, m),
		invites:       invite.NewRepository(database, m),
		notifications: notification.NewRepository(database, m),
		tx:            db.NewTxRunner(database, m),
		ping:          database.PingContext,
		close:         func() { db.Close(database) },
	}
}

func memoryStores(s *memstore.Store) *stores {
	return &stores{
		users:         s.Users(),
		subjects:      s.Subjects(),
		links:         s.Links(),
		tasks:         s.Tasks(),
		invites:       s.Invites(),
		notifications: s.Notifications(),
		tx:            s,
		ping:          s.PingContext,
		close:         func() {},
	}
}
