package config

import (
	"github.com/go-sod/mixknn/internal/cache"
	"github.com/go-sod/mixknn/internal/classify"
	"github.com/go-sod/mixknn/internal/collect"
	"github.com/go-sod/mixknn/internal/database"
	"github.com/go-sod/mixknn/internal/dataset"
	"github.com/go-sod/mixknn/internal/dispatcher"
	"github.com/go-sod/mixknn/internal/predictor"
	"github.com/go-sod/mixknn/internal/setup"
)

var (
	_ setup.PredictorConfigProvider  = (*Config)(nil)
	_ setup.DatabaseConfigProvider   = (*Config)(nil)
	_ setup.CacheConfigProvider      = (*Config)(nil)
	_ setup.DispatcherConfigProvider = (*Config)(nil)
	_ setup.DatasetConfigProvider    = (*Config)(nil)
	_ setup.PredictorConfigProvider  = (*DemoConfig)(nil)
	_ setup.DatasetConfigProvider    = (*DemoConfig)(nil)
)

// Config is the environment of the classification service.
type Config struct {
	SrvAddr    string `envconfig:"KNN_ADDR" default:":8787"`
	MaxConns   int    `envconfig:"KNN_MAX_CONNS" default:"256"`
	Dispatcher dispatcher.Config
	Classify   classify.Config
	Collect    collect.Config
	Database   database.Config
	Predictor  predictor.Config
	Cache      cache.Config
	Dataset    dataset.Config
}

func (c *Config) DispatcherConfig() *dispatcher.Config {
	return &c.Dispatcher
}

func (c *Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c *Config) CacheConfig() *cache.Config {
	return &c.Cache
}

func (c *Config) PredictConfig() *predictor.Config {
	return &c.Predictor
}

func (c *Config) DatasetConfig() *dataset.Config {
	return &c.Dataset
}

// DemoConfig is the environment of the command line demonstration.
type DemoConfig struct {
	Proportion float64 `envconfig:"KNN_SPLIT_PROPORTION" default:"0.75"`
	Seed       uint32  `envconfig:"KNN_SPLIT_SEED" default:"0"`
	Predictor  predictor.Config
	Dataset    dataset.Config
}

func (c *DemoConfig) PredictConfig() *predictor.Config {
	return &c.Predictor
}

func (c *DemoConfig) DatasetConfig() *dataset.Config {
	return &c.Dataset
}
