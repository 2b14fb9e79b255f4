package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbridge/internal/config"
	"github.com/kailas-cloud/searchbridge/internal/db/elastic"
	dbRedis "github.com/kailas-cloud/searchbridge/internal/db/redis"
	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/schema"
	"github.com/kailas-cloud/searchbridge/internal/metrics"
	documentrepo "github.com/kailas-cloud/searchbridge/internal/repository/document"
	indexrepo "github.com/kailas-cloud/searchbridge/internal/repository/index"
	ledgerrepo "github.com/kailas-cloud/searchbridge/internal/repository/ledger"
	recordrepo "github.com/kailas-cloud/searchbridge/internal/repository/record"
	searchrepo "github.com/kailas-cloud/searchbridge/internal/repository/search"
	documentuc "github.com/kailas-cloud/searchbridge/internal/usecase/document"
	healthuc "github.com/kailas-cloud/searchbridge/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/searchbridge/internal/usecase/indexing"
	mappinguc "github.com/kailas-cloud/searchbridge/internal/usecase/mapping"
	reconcileuc "github.com/kailas-cloud/searchbridge/internal/usecase/reconcile"
	reindexuc "github.com/kailas-cloud/searchbridge/internal/usecase/reindex"
	searchuc "github.com/kailas-cloud/searchbridge/internal/usecase/search"
)

// app is the composition root shared by every command.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	registry *schema.Registry
	catalog  *domidx.Catalog

	engine  *elastic.Engine
	records recordrepo.Source
	cache   *recordrepo.Cached
	sqlDB   *sql.DB
	ledger  *dbRedis.Store

	indexing  *indexinguc.Service
	search    *searchuc.Service
	mapping   *mappinguc.Service
	reindex   *reindexuc.Service
	reconcile *reconcileuc.Service
	health    *healthuc.Service
}

func buildApp(ctx context.Context, cfg config.Config, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	catalog, err := cfg.Catalog(registry)
	if err != nil {
		return nil, err
	}
	a.registry, a.catalog = registry, catalog

	a.engine, err = elastic.New(elastic.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
		APIKey:    cfg.Elastic.APIKey,
		CloudID:   cfg.Elastic.CloudID,
	})
	if err != nil {
		return nil, fmt.Errorf("create engine client: %w", err)
	}

	if err := a.openRecords(ctx); err != nil {
		return nil, err
	}
	if cfg.Ledger.Enabled {
		if err := a.openLedger(ctx); err != nil {
			return nil, err
		}
	}

	metrics.RegisterSearchMetrics()
	a.wire()

	log.Info("Application ready",
		zap.Strings("indexes", catalog.Names()),
		zap.Int("classes", len(registry.Classes())),
		zap.String("records_driver", cfg.Records.Driver),
		zap.Bool("ledger", a.ledger != nil),
		zap.String("pipeline", cfg.IngestPipeline()),
	)
	ok = true
	return a, nil
}

func (a *app) openRecords(ctx context.Context) error {
	var src recordrepo.Source
	switch a.cfg.Records.Driver {
	case config.DriverPostgres:
		db, err := recordrepo.Open(ctx, a.cfg.Records.DatabaseURL, recordrepo.PoolConfig{
			MaxOpenConns:    a.cfg.Records.MaxOpenConns,
			MaxIdleConns:    a.cfg.Records.MaxIdleConns,
			ConnMaxLifetime: time.Duration(a.cfg.Records.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(a.cfg.Records.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("records: %w", err)
		}
		a.sqlDB = db
		src = recordrepo.NewPostgres(db)
	case config.DriverMemory:
		if a.cfg.Records.FixturePath == "" {
			src = recordrepo.NewMemory()
			break
		}
		mem, err := recordrepo.LoadFixture(a.cfg.Records.FixturePath)
		if err != nil {
			return fmt.Errorf("records: %w", err)
		}
		src = mem
	default:
		return fmt.Errorf("unknown records driver %q", a.cfg.Records.Driver)
	}

	if a.cfg.Records.CacheSize > 0 {
		a.cache = recordrepo.NewCached(src, a.cfg.Records.CacheSize,
			time.Duration(a.cfg.Records.CacheTTL)*time.Second)
		src = a.cache
	}
	a.records = src
	a.log.Info("Record source opened", zap.String("driver", a.cfg.Records.Driver))
	return nil
}

func (a *app) openLedger(ctx context.Context) error {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:       a.cfg.Ledger.Addrs,
		Username:    a.cfg.Ledger.Username,
		Password:    a.cfg.Ledger.Password,
		DB:          a.cfg.Ledger.DB,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	a.ledger = store
	if err := store.WaitForReady(ctx, time.Duration(a.cfg.Ledger.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("ledger not ready: %w", err)
	}
	a.log.Info("Connected to ledger", zap.Strings("addrs", a.cfg.Ledger.Addrs))
	return nil
}

// wire creates repositories and use cases.
func (a *app) wire() {
	resolver := schema.NewResolver(a.registry)

	docRepo := documentrepo.New(a.engine)
	builder := searchrepo.NewBuilder(resolver, a.cfg.Search.RowMultiplier)
	mapper := searchrepo.NewMapper(a.records, a.registry)

	factory := documentuc.New(resolver, a.registry)
	a.indexing = indexinguc.New(factory, docRepo, a.records, a.cfg.IngestPipeline())
	a.search = searchuc.New(searchrepo.New(a.engine, builder, mapper), a.catalog).
		WithSpellcheckRetry(a.cfg.Search.SpellcheckRetry)
	a.mapping = mappinguc.New(resolver, indexrepo.New(a.engine), a.cfg.Types())

	if a.cache != nil {
		a.indexing.WithInvalidator(a.cache)
	}

	// Pass nil interfaces, not typed nil pointers, when the ledger is disabled.
	var failures reindexuc.FailureRecorder
	if a.ledger != nil {
		a.reconcile = reconcileuc.New(ledgerrepo.New(a.ledger, a.cfg.Ledger.KeyPrefix), a.catalog, a.records, a.indexing)
		if a.cache != nil {
			a.reconcile.WithInvalidator(a.cache)
		}
		a.indexing.WithFailureRecorder(a.reconcile)
		failures = a.reconcile
	}
	a.reindex = reindexuc.New(a.records, a.indexing, a.registry, failures)

	var recordsPinger, ledgerPinger healthuc.Pinger
	if a.sqlDB != nil {
		recordsPinger = recordrepo.NewPostgres(a.sqlDB)
	}
	if a.ledger != nil {
		ledgerPinger = a.ledger
	}
	a.health = healthuc.New(a.engine, recordsPinger, ledgerPinger)
}

// indexes returns the named index, or every index when name is empty.
func (a *app) indexes(name string) ([]*domidx.Descriptor, error) {
	if name == "" {
		return a.catalog.All(), nil
	}
	idx, err := a.catalog.Get(name)
	if err != nil {
		return nil, err
	}
	return []*domidx.Descriptor{idx}, nil
}

// Close releases every connection.
func (a *app) Close() {
	if a.ledger != nil {
		a.ledger.Close()
	}
	if a.sqlDB != nil {
		if err := a.sqlDB.Close(); err != nil {
			a.log.Warn("Failed to close record database", zap.Error(err))
		}
	}
}
