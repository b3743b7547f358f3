package setup

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-sod/mixknn/internal/cache"
	"github.com/go-sod/mixknn/internal/database"
	"github.com/go-sod/mixknn/internal/dataset"
	recordDb "github.com/go-sod/mixknn/internal/dataset/database"
	"github.com/go-sod/mixknn/internal/dispatcher"
	"github.com/go-sod/mixknn/internal/logging"
	"github.com/go-sod/mixknn/internal/predictor"
	"github.com/go-sod/mixknn/internal/srvenv"
	"github.com/go-sod/mixknn/pkg/record"
	"github.com/kelseyhightower/envconfig"
)

type PredictorConfigProvider interface {
	PredictConfig() *predictor.Config
}

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

type CacheConfigProvider interface {
	CacheConfig() *cache.Config
}

type DispatcherConfigProvider interface {
	DispatcherConfig() *dispatcher.Config
}

type DatasetConfigProvider interface {
	DatasetConfig() *dataset.Config
}

// Setup fills config from the environment and builds every component its
// provider interfaces ask for.
func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}
	logger.Debugf("configuration: %s", spew.Sdump(config))

	var (
		db                 *database.DB
		predictorProvideFn predictor.ProvideFn
		resultCache        *cache.Redis
	)

	if predictConfigProvider, ok := config.(PredictorConfigProvider); ok {
		logger.Info("Configuring predictor")
		cfg := predictConfigProvider.PredictConfig()
		if _, err := predictor.New(cfg); err != nil {
			return nil, fmt.Errorf("unable create predictor provide function: %w", err)
		}
		predictorProvideFn = predictor.ProvideFor(cfg)
		serverEnvOpts = append(serverEnvOpts, srvenv.WithPredictor(predictorProvideFn))
	}

	if datasetConfigProvider, ok := config.(DatasetConfigProvider); ok {
		logger.Info("Configuring dataset")
		records, err := dataset.Load(datasetConfigProvider.DatasetConfig().File)
		if err != nil {
			return nil, fmt.Errorf("unable load dataset: %w", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDataset(records))
	}

	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		logger.Info("Configuring db")
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}

	if cacheConfigProvider, ok := config.(CacheConfigProvider); ok && cacheConfigProvider.CacheConfig().Enabled() {
		logger.Info("Configuring cache")
		c, err := cache.New(ctx, cacheConfigProvider.CacheConfig())
		if err != nil {
			closeOnErr(ctx, db)
			return nil, fmt.Errorf("unable to connect to cache: %w", err)
		}
		resultCache = c
		serverEnvOpts = append(serverEnvOpts, srvenv.WithCache(resultCache))
	}

	if dispatcherConfigProvider, ok := config.(DispatcherConfigProvider); ok && db != nil {
		logger.Info("Configuring dispatcher")
		provideFn, err := ProvideDispatcherFor(dispatcherConfigProvider, predictorProvideFn, db, resultCache)
		if err != nil {
			closeOnErr(ctx, db)
			return nil, fmt.Errorf("unable create dispatcher provide function: %w", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDispatcher(provideFn))
	}

	return srvenv.New(serverEnvOpts...), nil
}

func closeOnErr(ctx context.Context, db *database.DB) {
	if db == nil {
		return
	}
	if err := db.Close(ctx); err != nil {
		logging.FromContext(ctx).Errorf("unable close database: %v", err)
	}
}

func ProvideDispatcherFor(
	provider DispatcherConfigProvider,
	providePredictFn predictor.ProvideFn,
	db *database.DB,
	resultCache *cache.Redis,
) (dispatcher.ProvideFn, error) {
	if providePredictFn == nil {
		return nil, fmt.Errorf("predictor is not configured")
	}
	cfg := provider.DispatcherConfig()
	opts := []dispatcher.Option{dispatcher.WithMaxItemsStored(cfg.MaxItemsStored)}
	if resultCache != nil {
		opts = append(opts, dispatcher.WithCache(resultCache))
	}
	return func() (dispatcher.Manager, error) {
		return dispatcher.New(recordDb.New(db), providePredictFn, opts...)
	}, nil
}

// Seed stores records through m when its training set is empty.
func Seed(ctx context.Context, m dispatcher.Manager, records []record.Record) error {
	if m.Len() > 0 || len(records) == 0 {
		return nil
	}
	logging.FromContext(ctx).Infof("seeding empty training set with %d records", len(records))
	if err := m.Collect(ctx, records...); err != nil {
		return fmt.Errorf("unable seed training set: %w", err)
	}
	return nil
}
