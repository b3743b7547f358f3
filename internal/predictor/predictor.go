// Package predictor builds classifiers from environment configuration.
package predictor

import (
	"fmt"

	"github.com/go-sod/mixknn/pkg/classifier"
	"github.com/go-sod/mixknn/pkg/geom"
	"github.com/go-sod/mixknn/pkg/record"
)

type ProvideFn func() (Predictor, error)

// Predictor is the part of classifier.Classifier the service depends on.
type Predictor interface {
	K() int
	Weighted() bool
	Classify(query record.Record, training []record.Record) (string, error)
	Evaluate(validation, training []record.Record) (classifier.Report, error)
	// Fingerprint identifies every setting that changes a prediction.
	Fingerprint() string
}

var _ Predictor = (*configured)(nil)

type configured struct {
	*classifier.Classifier
	fingerprint string
}

func (c *configured) Fingerprint() string {
	return c.fingerprint
}

func New(cfg *Config) (*classifier.Classifier, error) {
	if cfg.KNum <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", classifier.ErrInvalidInput, cfg.KNum)
	}
	distFunc, err := geom.NumericFuncFor(cfg.MetricFuncType)
	if err != nil {
		return nil, fmt.Errorf("unable provide distance function: %v", err)
	}
	return classifier.New(
		classifier.WithK(cfg.KNum),
		classifier.WithWeighted(cfg.Weighted),
		classifier.WithWeights(cfg.NumericWeight, cfg.CategoricalWeight),
		classifier.WithNumericDistance(distFunc),
		classifier.WithWorkers(cfg.Workers),
		classifier.WithStrictArity(cfg.StrictArity),
	), nil
}

func ProvideFor(cfg *Config) ProvideFn {
	return func() (Predictor, error) {
		c, err := New(cfg)
		if err != nil {
			return nil, fmt.Errorf("unable create classifier instance: %w", err)
		}
		return &configured{Classifier: c, fingerprint: cfg.Fingerprint()}, nil
	}
}
