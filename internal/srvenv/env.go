package srvenv

import (
	"context"
	"fmt"

	"github.com/go-sod/mixknn/internal/cache"
	"github.com/go-sod/mixknn/internal/database"
	"github.com/go-sod/mixknn/internal/dispatcher"
	"github.com/go-sod/mixknn/internal/predictor"
	"github.com/go-sod/mixknn/pkg/record"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database   *database.DB
	cache      *cache.Redis
	predictor  predictor.ProvideFn
	dispatcher dispatcher.ProvideFn
	dataset    []record.Record
}

func (s *SrvEnv) ProvideDispatcher() dispatcher.ProvideFn {
	return s.dispatcher
}

func (s *SrvEnv) ProvidePredictor() predictor.ProvideFn {
	return s.predictor
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

// Dataset returns the records loaded from the configured dataset file or the built-in sample.
func (s *SrvEnv) Dataset() []record.Record {
	return s.dataset
}

func WithDispatcher(fn dispatcher.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.dispatcher = fn
		return s
	}
}

func WithPredictor(fn predictor.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.predictor = fn
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func WithCache(c *cache.Redis) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.cache = c
		return s
	}
}

func WithDataset(records []record.Record) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.dataset = records
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var firstErr error
	if s.cache != nil {
		if err := s.cache.Close(ctx); err != nil {
			firstErr = fmt.Errorf("unable close cache: %w", err)
		}
	}
	if s.database != nil {
		if err := s.database.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
