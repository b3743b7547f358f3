package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-sod/mixknn/internal/buildinfo"
	knn "github.com/go-sod/mixknn/internal/config"
	"github.com/go-sod/mixknn/internal/logging"
	"github.com/go-sod/mixknn/internal/setup"
	"github.com/go-sod/mixknn/internal/shutdown"
	"github.com/go-sod/mixknn/pkg/record"
	"github.com/go-sod/mixknn/pkg/split"
)

func main() {
	_, _ = fmt.Fprintln(os.Stderr, buildinfo.Info.String())

	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	if err := run(ctx, os.Stdout); err != nil {
		logger.Fatal(err)
	}

	defer done()
}

func run(ctx context.Context, w io.Writer) error {
	config := knn.DemoConfig{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	predictor, err := env.ProvidePredictor()()
	if err != nil {
		return fmt.Errorf("predictor provider function error: %w", err)
	}

	records := env.Dataset()
	printRecords(w, "Records", records)

	training, validation := split.Split(records, config.Proportion, split.NewSource(config.Seed))
	printRecords(w, "Training set", training)
	printRecords(w, "Validation set", validation)

	report, err := predictor.Evaluate(validation, training)
	if err != nil {
		return fmt.Errorf("predictor.Evaluate: %w", err)
	}

	_, _ = fmt.Fprintf(w, "Classification (k=%d, weighted=%v):\n", predictor.K(), predictor.Weighted())
	for _, p := range report.Predictions {
		_, _ = fmt.Fprintf(w, "Record %s - actual: %s - predicted: %s\n", p.ID, p.Actual, p.Predicted)
	}
	_, _ = fmt.Fprintf(w, "Accuracy: %.2f (%d/%d)\n", report.Accuracy(), report.Correct, len(report.Predictions))
	return nil
}

func printRecords(w io.Writer, title string, records []record.Record) {
	_, _ = fmt.Fprintf(w, "%s:\n", title)
	for _, r := range records {
		_, _ = fmt.Fprintln(w, r)
	}
	_, _ = fmt.Fprintln(w)
}
