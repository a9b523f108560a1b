package cli

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/ipms/placement-hub/config"
	"github.com/ipms/placement-hub/internal/application/command"
	"github.com/ipms/placement-hub/internal/application/query"
	"github.com/ipms/placement-hub/internal/infrastructure/importer"
	"github.com/ipms/placement-hub/internal/infrastructure/persistence/csvfile"
	"github.com/ipms/placement-hub/internal/infrastructure/persistence/memory"
	"github.com/ipms/placement-hub/internal/infrastructure/persistence/postgres"
	"github.com/ipms/placement-hub/internal/infrastructure/persistence/records"
	"github.com/ipms/placement-hub/internal/infrastructure/persistence/redis"
	"github.com/ipms/placement-hub/pkg/logger"
	"github.com/ipms/placement-hub/pkg/password"
	"github.com/ipms/placement-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTAINER
// Builds the record store, repositories, handlers and the session store
// for one process.
// ══════════════════════════════════════════════════════════════════════════════

// Container holds everything a command needs.
type Container struct {
	Config *config.Config
	Logger *logger.Logger
	Clock  timeutil.Clock

	Store    records.Store
	Sessions SessionStore

	Users         *memory.UserRepository
	Opportunities *memory.OpportunityRepository
	Applications  *memory.ApplicationRepository
	Withdrawals   *memory.WithdrawalRepository
	Registrations *memory.RegistrationRepository

	Commands command.Deps
	Queries  query.Deps
	Importer *importer.Importer

	closers []func() error
}

// ContainerOptions overrides collaborators, mostly for tests.
type ContainerOptions struct {
	Clock  timeutil.Clock
	Hasher *password.Hasher
}

// NewContainer connects the configured backend and loads every collection.
func NewContainer(ctx context.Context, cfg *config.Config, log *logger.Logger, opts ContainerOptions) (*Container, error) {
	if log == nil {
		log = logger.Discard()
	}
	c := &Container{Config: cfg, Logger: log, Clock: opts.Clock}
	if c.Clock == nil {
		c.Clock = timeutil.NewSystemClock(cfg.App.Location)
	}

	var cache *redis.Cache
	store, err := c.openStore(ctx, &cache)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Store = store

	sessions, err := c.openSessions(ctx, cache)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Sessions = sessions

	repoOpts := memory.Options{Store: store, Logger: log, Location: cfg.App.Location}
	c.Users = memory.NewUserRepository(repoOpts)
	c.Opportunities = memory.NewOpportunityRepository(repoOpts)
	c.Applications = memory.NewApplicationRepository(repoOpts)
	c.Withdrawals = memory.NewWithdrawalRepository(repoOpts)
	c.Registrations = memory.NewRegistrationRepository(repoOpts)

	for _, r := range []interface{ Reload(context.Context) error }{
		c.Users, c.Opportunities, c.Applications, c.Withdrawals, c.Registrations,
	} {
		if err := r.Reload(ctx); err != nil {
			log.Warn("starting with partial state", logger.Err(err))
		}
	}

	hasher := password.NewHasher(bcrypt.DefaultCost)
	if opts.Hasher != nil {
		hasher = *opts.Hasher
	}
	policy := command.Policy{
		MaxPendingApplications: cfg.Policy.MaxPendingApplications,
		MaxSlots:               cfg.Policy.MaxSlots,
		DefaultPassword:        cfg.Policy.DefaultPassword,
	}

	c.Commands = command.Deps{
		Users:         c.Users,
		Opportunities: c.Opportunities,
		Applications:  c.Applications,
		Withdrawals:   c.Withdrawals,
		Registrations: c.Registrations,
		Clock:         c.Clock,
		Hasher:        hasher,
		Policy:        policy,
		Logger:        log,
	}
	c.Queries = query.Deps{
		Users:         c.Users,
		Opportunities: c.Opportunities,
		Applications:  c.Applications,
		Withdrawals:   c.Withdrawals,
		Registrations: c.Registrations,
		Clock:         c.Clock,
		Logger:        log,
	}
	c.Importer = &importer.Importer{
		Users:           c.Users,
		Registrations:   c.Registrations,
		Hasher:          hasher,
		Clock:           c.Clock,
		DefaultPassword: policy.DefaultPassword,
		Logger:          log,
	}

	log.Debug("container ready", logger.String("storage", cfg.Storage.Driver))
	return c, nil
}

func (c *Container) openStore(ctx context.Context, cache **redis.Cache) (records.Store, error) {
	cfg := c.Config
	switch cfg.Storage.Driver {
	case config.StorageFile:
		if err := os.MkdirAll(cfg.App.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		store, err := csvfile.New(cfg.App.DataDir, cfg.Storage.Files.ByCollection())
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, store.Close)
		return store, nil

	case config.StoragePostgres:
		pgCfg := postgres.DefaultConfig()
		pgCfg.URL = cfg.Storage.Database.URL
		pgCfg.MaxConns = int32(cfg.Storage.Database.MaxConns)
		pgCfg.MinConns = int32(cfg.Storage.Database.MinConns)
		pgCfg.MaxConnLifetime = cfg.Storage.Database.ConnMaxLifetime
		pgCfg.QueryTimeout = cfg.Storage.Database.QueryTimeout

		conn, err := postgres.NewConnection(ctx, pgCfg, c.Logger.With(logger.Component("postgres")))
		if err != nil {
			return nil, err
		}
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		store := postgres.NewStore(conn, pgCfg.QueryTimeout)
		c.closers = append(c.closers, store.Close)
		return store, nil

	case config.StorageRedis:
		rc, err := c.redisCache(ctx)
		if err != nil {
			return nil, err
		}
		*cache = rc
		return redis.NewStore(rc), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func (c *Container) openSessions(ctx context.Context, cache *redis.Cache) (SessionStore, error) {
	cfg := c.Config
	if cfg.Session.Driver != config.StorageRedis {
		return NewFileSessionStore(cfg.DataPath(cfg.Session.File), cfg.Session.TTL, c.Clock), nil
	}
	if cache == nil {
		rc, err := c.redisCache(ctx)
		if err != nil {
			return nil, err
		}
		cache = rc
	}
	return NewRedisSessionStore(redis.NewSessionCache(cache, cfg.Session.TTL)), nil
}

func (c *Container) redisCache(ctx context.Context) (*redis.Cache, error) {
	rc := c.Config.Storage.Redis
	rcfg := redis.DefaultConfig()
	rcfg.Addr = rc.Addr
	rcfg.Password = rc.Password
	rcfg.DB = rc.DB
	if rc.KeyPrefix != "" {
		rcfg.KeyPrefix = rc.KeyPrefix
	}
	if rc.Timeout > 0 {
		rcfg.Timeout = rc.Timeout
	}
	cache, err := redis.NewCache(ctx, rcfg, c.Logger.With(logger.Component("redis")))
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, cache.Close)
	return cache, nil
}

// Close releases backend connections.
func (c *Container) Close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}
