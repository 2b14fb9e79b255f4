package searchbridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/searchbridge/internal/config"
	"github.com/kailas-cloud/searchbridge/internal/db/elastic"
	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/schema"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/query"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
	documentrepo "github.com/kailas-cloud/searchbridge/internal/repository/document"
	recordrepo "github.com/kailas-cloud/searchbridge/internal/repository/record"
	searchrepo "github.com/kailas-cloud/searchbridge/internal/repository/search"
	documentuc "github.com/kailas-cloud/searchbridge/internal/usecase/document"
	healthuc "github.com/kailas-cloud/searchbridge/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/searchbridge/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/searchbridge/internal/usecase/search"
)

// Internal interfaces for substitution in tests.
type searchUseCase interface {
	Search(ctx context.Context, index string, q *query.Query) (*result.Response, error)
}

type indexingUseCase interface {
	SyncRecords(ctx context.Context, idx *domidx.Descriptor, class string, ids []int64) (indexinguc.SyncResult, error)
	Remove(ctx context.Context, idx *domidx.Descriptor, identity string) error
}

type indexCatalog interface {
	Get(name string) (*domidx.Descriptor, error)
}

// Client is the searchbridge SDK entry point.
type Client struct {
	catalog     indexCatalog
	searchSvc   searchUseCase
	indexingSvc indexingUseCase
	healthSvc   healthUseCase
	defaultRows int
	obs         *observer
	closers     []func() error
}

// New creates a Client from a searchbridge config file. The engine is not
// contacted until the first call; a postgres record source is pinged here.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.configPath == "" {
		return nil, errors.New("searchbridge: config file required (use WithConfigFile)")
	}

	conf, err := config.LoadFile(cfg.configPath)
	if err != nil {
		return nil, fmt.Errorf("searchbridge: %w", err)
	}
	if len(cfg.addrs) > 0 {
		conf.Elastic.Addresses = cfg.addrs
	}
	if cfg.fixture != "" {
		conf.Records.Driver = config.DriverMemory
		conf.Records.FixturePath = cfg.fixture
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	c := &Client{obs: obs, defaultRows: conf.Search.DefaultRows}
	if err := c.wire(ctx, conf, cfg); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) wire(ctx context.Context, conf config.Config, cfg *clientConfig) error {
	registry, err := conf.Registry()
	if err != nil {
		return fmt.Errorf("searchbridge: %w", err)
	}
	catalog, err := conf.Catalog(registry)
	if err != nil {
		return fmt.Errorf("searchbridge: %w", err)
	}

	engine, err := elastic.New(elastic.Config{
		Addresses: conf.Elastic.Addresses,
		Username:  conf.Elastic.Username,
		Password:  conf.Elastic.Password,
		APIKey:    conf.Elastic.APIKey,
		CloudID:   conf.Elastic.CloudID,
		Transport: cfg.transport,
	})
	if err != nil {
		return fmt.Errorf("searchbridge: create engine client: %w", err)
	}

	records, recordsPinger, err := c.openRecords(ctx, conf.Records)
	if err != nil {
		return err
	}

	resolver := schema.NewResolver(registry)
	builder := searchrepo.NewBuilder(resolver, conf.Search.RowMultiplier)
	mapper := searchrepo.NewMapper(records, registry)

	c.catalog = catalog
	c.searchSvc = searchuc.New(searchrepo.New(engine, builder, mapper), catalog).
		WithSpellcheckRetry(conf.Search.SpellcheckRetry)
	indexing := indexinguc.New(documentuc.New(resolver, registry), documentrepo.New(engine), records, conf.IngestPipeline())
	if cached, ok := records.(*recordrepo.Cached); ok {
		indexing.WithInvalidator(cached)
	}
	c.indexingSvc = indexing
	c.healthSvc = healthuc.New(engine, recordsPinger, nil)
	return nil
}

func (c *Client) openRecords(ctx context.Context, rc config.RecordsConfig) (recordrepo.Source, healthuc.Pinger, error) {
	var (
		src    recordrepo.Source
		pinger healthuc.Pinger
	)
	switch rc.Driver {
	case config.DriverPostgres:
		db, err := recordrepo.Open(ctx, rc.DatabaseURL, recordrepo.PoolConfig{
			MaxOpenConns:    rc.MaxOpenConns,
			MaxIdleConns:    rc.MaxIdleConns,
			ConnMaxLifetime: time.Duration(rc.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(rc.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("searchbridge: records: %w", err)
		}
		c.closers = append(c.closers, db.Close)
		pg := recordrepo.NewPostgres(db)
		src, pinger = pg, pg
	case config.DriverMemory:
		if rc.FixturePath == "" {
			src = recordrepo.NewMemory()
			break
		}
		mem, err := recordrepo.LoadFixture(rc.FixturePath)
		if err != nil {
			return nil, nil, fmt.Errorf("searchbridge: records: %w", err)
		}
		src = mem
	default:
		return nil, nil, fmt.Errorf("searchbridge: unknown records driver %q", rc.Driver)
	}

	if rc.CacheSize > 0 {
		src = recordrepo.NewCached(src, rc.CacheSize, time.Duration(rc.CacheTTL)*time.Second)
	}
	return src, pinger, nil
}

// Close releases the record database, if any.
func (c *Client) Close() error {
	var errs []error
	for _, fn := range c.closers {
		errs = append(errs, fn())
	}
	c.closers = nil
	return errors.Join(errs...)
}

// Search starts a query against the named index.
func (c *Client) Search(index string) *SearchBuilder {
	return newSearchBuilder(index, c.searchSvc, c.obs, c.defaultRows)
}

// Records returns the record sync service for the named index.
func (c *Client) Records(index string) *RecordService {
	return &RecordService{index: index, catalog: c.catalog, svc: c.indexingSvc, obs: c.obs}
}
