package predictor

import (
	"fmt"

	"github.com/go-sod/mixknn/pkg/geom"
)

type Config struct {
	KNum              int             `envconfig:"KNN_K_NUM" default:"3"`
	Weighted          bool            `envconfig:"KNN_WEIGHTED" default:"false"`
	NumericWeight     float64         `envconfig:"KNN_NUMERIC_WEIGHT" default:"1.0"`
	CategoricalWeight float64         `envconfig:"KNN_CATEGORICAL_WEIGHT" default:"1.0"`
	MetricFuncType    geom.MetricType `envconfig:"KNN_DISTANCE_FUNC" default:"EUCLIDEAN"`
	Workers           int             `envconfig:"KNN_WORKERS" default:"1"`
	StrictArity       bool            `envconfig:"KNN_STRICT_ARITY" default:"false"`
}

// Fingerprint renders the settings that affect a prediction. Workers only
// change how distances are computed and are left out.
func (c *Config) Fingerprint() string {
	return fmt.Sprintf("k=%d,weighted=%t,num=%g,cat=%g,metric=%s,strict=%t",
		c.KNum, c.Weighted, c.NumericWeight, c.CategoricalWeight, c.MetricFuncType, c.StrictArity)
}
