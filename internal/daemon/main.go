// Package daemon wires the database, storage and web service together.
package daemon

import (
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	mysqlstorage "github.com/gofiber/storage/mysql/v2"
	pgstorage "github.com/gofiber/storage/postgres/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/auth"
	"github.com/configurator-admin/configurator-admin/internal/config"
	"github.com/configurator-admin/configurator-admin/internal/db/dsn"
	"github.com/configurator-admin/configurator-admin/internal/db/models"
	"github.com/configurator-admin/configurator-admin/internal/db/store"
	"github.com/configurator-admin/configurator-admin/internal/events"
	"github.com/configurator-admin/configurator-admin/internal/logger/adapter/stdlogger"
	"github.com/configurator-admin/configurator-admin/internal/modelconfig"
	"github.com/configurator-admin/configurator-admin/internal/web"
	"github.com/configurator-admin/configurator-admin/internal/web/handler"
)

const (
	storageTable = "fiber_storage"
	gcInterval   = 10 * time.Minute
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	storage    fiber.Storage
	auth       *auth.Service
	webService *web.Service
}

// Run serves HTTP until a termination signal arrives, then releases the
// storage and database connections.
func (d *Daemon) Run() error {
	go func() {
		if err := d.webService.Start(web.Addr(d.cfg)); err != nil {
			log.Error().Err(err).Msg("web service stopped")
		}
	}()

	d.webService.WaitShutdown()

	return d.Close()
}

// Close releases the storage and database connections.
func (d *Daemon) Close() error {
	if err := d.storage.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close storage")
	}

	sqlDB, err := d.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get database handle")
	}

	return sqlDB.Close()
}

// New connects and migrates the database, seeds the first account and
// builds the web service.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	if err = Migrate(db); err != nil {
		return nil, err
	}

	storage, err := newStorage(cfg, db)
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(db, auth.Options{
		Secret:      cfg.Webserver.JWTSecret,
		TTL:         cfg.Webserver.Session.ExpiryTime,
		Issuer:      cfg.Title,
		Revocations: storage,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create auth service")
	}

	if err = seed(cfg, authService); err != nil {
		return nil, err
	}

	deps := &handler.Deps{
		Cfg:  cfg,
		DB:   db,
		Auth: authService,
		Resolver: modelconfig.NewResolver(modelconfig.FetcherConfig{
			Origin:    cfg.Webserver.URL,
			Timeout:   cfg.Models.ConfigFetchTimeout,
			CacheSize: cfg.Models.ConfigCacheSize,
			CacheTTL:  cfg.Models.ConfigCacheTTL,
			LookupDir: cfg.Models.ConfigLookupDir,
		}),
		Events:    events.NewBroker(0),
		Validator: validator.New(),
		Storage:   storage,
	}

	return &Daemon{
		cfg:        cfg,
		db:         db,
		storage:    storage,
		auth:       authService,
		webService: web.New(deps),
	}, nil
}

// Open connects to the database selected by DB.GormEngine.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		dialector = gormmysql.Open(dsn.MySQL(cfg))
	case config.EnginePostgres:
		dialector = postgres.Open(dsn.Postgres(cfg))
	case config.EngineSQLite, "":
		dialector = sqlite.Open(dsn.SQLite(cfg))
	default:
		return nil, errors.Wrap(config.ErrUnknownGormEngine, cfg.DB.GormEngine)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: stdlogger.NewGormLogger(cfg.Log.GormLevel),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	log.Info().Str("engine", cfg.DB.GormEngine).Msg("database connected")

	return db, nil
}

// Migrate creates or updates the application tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Model{},
		&models.ActivityLog{},
		&models.SavedConfig{},
		&models.Setting{},
	); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}

	return nil
}

// newStorage returns the key/value storage used for token revocation and
// login rate limiting. MySQL and Postgres get their gofiber drivers, SQLite
// the gorm-backed store.
func newStorage(cfg *config.Config, db *gorm.DB) (fiber.Storage, error) {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return mysqlstorage.New(mysqlstorage.Config{
			ConnectionURI: dsn.MySQL(cfg),
			Table:         storageTable,
			GCInterval:    gcInterval,
		}), nil
	case config.EnginePostgres:
		return pgstorage.New(pgstorage.Config{
			ConnectionURI: dsn.Postgres(cfg),
			Table:         storageTable,
			GCInterval:    gcInterval,
		}), nil
	default:
		s, err := store.New(db, gcInterval)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create storage")
		}

		return s, nil
	}
}
