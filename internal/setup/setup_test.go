package setup_test

import (
	"context"
	"os"
	"testing"

	knn "github.com/go-sod/mixknn/internal/config"
	"github.com/go-sod/mixknn/internal/setup"
	"github.com/go-sod/mixknn/pkg/classifier"
	"github.com/go-sod/mixknn/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingManager struct {
	collected []record.Record
}

func (m *countingManager) Run(context.Context) error { return nil }

func (m *countingManager) Len() int { return len(m.collected) }

func (m *countingManager) Collect(_ context.Context, in ...record.Record) error {
	m.collected = append(m.collected, in...)
	return nil
}

func (m *countingManager) Classify(context.Context, record.Record) (string, error) {
	return record.UnknownClass, nil
}

func (m *countingManager) Evaluate(context.Context, float64, uint32) (classifier.Report, error) {
	return classifier.Report{}, nil
}

func TestSetup_Demo(t *testing.T) {
	require.NoError(t, os.Setenv("KNN_K_NUM", "5"))
	defer os.Unsetenv("KNN_K_NUM")
	require.NoError(t, os.Unsetenv("KNN_DATASET_FILE"))

	cfg := knn.DemoConfig{}
	env, err := setup.Setup(context.Background(), &cfg)
	require.NoError(t, err)
	defer env.Close(context.Background())

	assert.Equal(t, 0.75, cfg.Proportion)
	assert.Nil(t, env.Database())
	assert.Nil(t, env.ProvideDispatcher())
	assert.Len(t, env.Dataset(), 8)

	p, err := env.ProvidePredictor()()
	require.NoError(t, err)
	assert.Equal(t, 5, p.K())
}

func TestSetup_InvalidPredictor(t *testing.T) {
	require.NoError(t, os.Setenv("KNN_K_NUM", "0"))
	defer os.Unsetenv("KNN_K_NUM")

	_, err := setup.Setup(context.Background(), &knn.DemoConfig{})
	assert.Error(t, err)
}

func TestProvideDispatcherFor_NoPredictor(t *testing.T) {
	_, err := setup.ProvideDispatcherFor(&knn.Config{}, nil, nil, nil)
	assert.Error(t, err)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	records := []record.Record{
		record.New("1", []float64{1}, "A"),
		record.New("2", []float64{2}, "B"),
	}

	m := &countingManager{}
	require.NoError(t, setup.Seed(ctx, m, records))
	assert.Equal(t, 2, m.Len())

	require.NoError(t, setup.Seed(ctx, m, []record.Record{record.New("3", nil, "C")}))
	assert.Equal(t, 2, m.Len(), "non-empty training set must not be seeded")
}
