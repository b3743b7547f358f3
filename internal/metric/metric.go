// Package metric records classification statistics with OpenCensus and
// exposes them in the Prometheus format.
package metric

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

const namespace = "knn"

var (
	ClassifyLatencyMs = stats.Float64("knn/classify_latency", "Latency of a single classification", stats.UnitMilliseconds)
	Classified        = stats.Int64("knn/classified", "Number of classified records", stats.UnitDimensionless)
	CacheHits         = stats.Int64("knn/cache_hits", "Number of classifications served from cache", stats.UnitDimensionless)
	TrainingSetSize   = stats.Int64("knn/training_set_size", "Number of records in the training set", stats.UnitDimensionless)

	KeyClass  tag.Key
	KeyResult tag.Key
)

var (
	registerOnce sync.Once
	registerErr  error
)

func init() {
	var err error
	if KeyClass, err = tag.NewKey("class"); err != nil {
		panic(err)
	}
	if KeyResult, err = tag.NewKey("result"); err != nil {
		panic(err)
	}
}

func Views() []*view.View {
	return []*view.View{
		{
			Name:        "knn/classify_latency",
			Measure:     ClassifyLatencyMs,
			Description: "Distribution of classification latency",
			Aggregation: view.Distribution(0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000),
		},
		{
			Name:        "knn/classified_count",
			Measure:     Classified,
			Description: "Classified records by predicted class and result",
			Aggregation: view.Count(),
			TagKeys:     []tag.Key{KeyClass, KeyResult},
		},
		{
			Name:        "knn/cache_hits_count",
			Measure:     CacheHits,
			Description: "Classifications served from cache",
			Aggregation: view.Count(),
		},
		{
			Name:        "knn/training_set_size",
			Measure:     TrainingSetSize,
			Description: "Current training set size",
			Aggregation: view.LastValue(),
		},
	}
}

// Register registers Views once per process.
func Register() error {
	registerOnce.Do(func() {
		registerErr = view.Register(Views()...)
	})
	return registerErr
}

// Handler returns the Prometheus scrape endpoint.
func Handler() (http.Handler, error) {
	if err := Register(); err != nil {
		return nil, fmt.Errorf("unable register views: %w", err)
	}
	exporter, err := prometheus.NewExporter(prometheus.Options{Namespace: namespace})
	if err != nil {
		return nil, fmt.Errorf("unable create prometheus exporter: %w", err)
	}
	return exporter, nil
}

// RecordClassify records one classification outcome. result is "ok", "cached" or "error".
// class is a tag value, so the number of series grows with the number of
// distinct labels. A label the tag package rejects (non printable or longer
// than 255 bytes) is dropped and the outcome is recorded without it.
func RecordClassify(ctx context.Context, class, result string, elapsed time.Duration) {
	tagged, err := tag.New(ctx, tag.Upsert(KeyClass, class), tag.Upsert(KeyResult, result))
	if err != nil {
		if tagged, err = tag.New(ctx, tag.Upsert(KeyResult, result)); err != nil {
			tagged = ctx
		}
	}
	stats.Record(tagged,
		Classified.M(1),
		ClassifyLatencyMs.M(float64(elapsed)/float64(time.Millisecond)),
	)
	if result == "cached" {
		stats.Record(tagged, CacheHits.M(1))
	}
}

func RecordTrainingSetSize(ctx context.Context, n int) {
	stats.Record(ctx, TrainingSetSize.M(int64(n)))
}
