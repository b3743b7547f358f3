package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"

	recordDb "github.com/go-sod/mixknn/internal/dataset/database"
	"github.com/go-sod/mixknn/internal/predictor"
	"github.com/go-sod/mixknn/pkg/classifier"
	"github.com/go-sod/mixknn/pkg/geom"
	"github.com/go-sod/mixknn/pkg/record"
	"github.com/go-sod/mixknn/pkg/split"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mtx     sync.Mutex
	records []record.Record
	deleted   []string
	err       error
	deleteErr error
}

func (s *memStore) FindAll(_ context.Context, filter recordDb.FilterFn) ([]record.Record, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var list []record.Record
	for _, r := range s.records {
		if filter == nil || filter(r) {
			list = append(list, r)
		}
	}
	return list, nil
}

func (s *memStore) AppendMany(_ context.Context, records []record.Record) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, records...)
	return nil
}

func (s *memStore) DeleteMany(_ context.Context, ids []string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, ids...)
	return nil
}

type memCache struct {
	mtx  sync.Mutex
	data map[string]string
	gets int
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.gets++
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key, class string) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.data[key] = class
	return nil
}

func provider(k int) predictor.ProvideFn {
	return predictor.ProvideFor(&predictor.Config{
		KNum:              k,
		NumericWeight:     1,
		CategoricalWeight: 1,
		MetricFuncType:    geom.MetricTypeEuclidean,
		Workers:           1,
	})
}

func sample() []record.Record {
	return []record.Record{
		record.New("1", []float64{1, 2}, "A"),
		record.New("2", []float64{1.5, 1.8}, "A"),
		record.New("3", []float64{5, 8}, "B"),
		record.New("4", []float64{6, 9}, "B"),
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil, provider(3))
	assert.Error(t, err)

	_, err = New(&memStore{}, nil)
	assert.Error(t, err)

	_, err = New(&memStore{}, provider(0))
	assert.True(t, errors.Is(err, classifier.ErrInvalidInput))
}

func TestManager_RunAndClassify(t *testing.T) {
	ctx := context.Background()
	store := &memStore{records: sample()}
	m, err := New(store, provider(2))
	require.NoError(t, err)

	_, err = m.Classify(ctx, record.New("q", []float64{1.1, 1.9}))
	assert.True(t, errors.Is(err, classifier.ErrInvalidInput), "empty training set must be rejected, got %v", err)

	require.NoError(t, m.Run(ctx))
	assert.Equal(t, 4, m.Len())

	class, err := m.Classify(ctx, record.New("q", []float64{1.1, 1.9}))
	require.NoError(t, err)
	assert.Equal(t, "A", class)

	class, err = m.Classify(ctx, record.New("q", []float64{5.5, 8.6}))
	require.NoError(t, err)
	assert.Equal(t, "B", class)
}

func TestManager_RunFetchError(t *testing.T) {
	m, err := New(&memStore{err: errors.New("boom")}, provider(2))
	require.NoError(t, err)
	assert.Error(t, m.Run(context.Background()))
}

func TestManager_Collect(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	m, err := New(store, provider(1))
	require.NoError(t, err)
	require.NoError(t, m.Run(ctx))

	require.NoError(t, m.Collect(ctx, sample()...))
	require.NoError(t, m.Collect(ctx))
	assert.Equal(t, 4, m.Len())
	assert.Len(t, store.records, 4)

	// relabelling record 1 keeps its position and changes the vote
	require.NoError(t, m.Collect(ctx, record.New("1", []float64{1, 2}, "C")))
	assert.Equal(t, 4, m.Len())
	class, err := m.Classify(ctx, record.New("q", []float64{1, 2}))
	require.NoError(t, err)
	assert.Equal(t, "C", class)
}

func TestManager_CollectStoreError(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	m, err := New(store, provider(1))
	require.NoError(t, err)
	store.err = errors.New("disk full")
	assert.Error(t, m.Collect(ctx, sample()...))
	assert.Equal(t, 0, m.Len())
}

func TestManager_MaxItemsStored(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	m, err := New(store, provider(1), WithMaxItemsStored(3))
	require.NoError(t, err)

	require.NoError(t, m.Collect(ctx, sample()...))
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []string{"1"}, store.deleted)

	training, _ := m.snapshot()
	assert.Equal(t, []string{"2", "3", "4"}, record.IDs(training))
}

func TestManager_Cache(t *testing.T) {
	ctx := context.Background()
	c := &memCache{data: map[string]string{}}
	m, err := New(&memStore{records: sample()}, provider(2), WithCache(c))
	require.NoError(t, err)
	require.NoError(t, m.Run(ctx))

	q := record.New("q", []float64{1.1, 1.9})
	class, err := m.Classify(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "A", class)
	assert.Len(t, c.data, 1)

	for key := range c.data {
		c.data[key] = "cached"
	}
	class, err = m.Classify(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "cached", class)

	// a training set change moves to a new digest and misses the cache
	require.NoError(t, m.Collect(ctx, record.New("5", []float64{9, 9}, "B")))
	class, err = m.Classify(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "A", class)
	assert.Len(t, c.data, 2)
	assert.Equal(t, 3, c.gets)
}

func TestManager_MaxItemsStoredDeleteError(t *testing.T) {
	ctx := context.Background()
	store := &memStore{deleteErr: errors.New("disk full")}
	m, err := New(store, provider(1), WithMaxItemsStored(3))
	require.NoError(t, err)

	require.NoError(t, m.Collect(ctx, sample()...))
	training, _ := m.snapshot()
	assert.Equal(t, []string{"2", "3", "4"}, record.IDs(training))
	assert.Empty(t, store.deleted)

	store.deleteErr = nil
	require.NoError(t, m.Collect(ctx, record.New("5", []float64{9, 9}, "B")))
	training, _ = m.snapshot()
	assert.Equal(t, []string{"3", "4", "5"}, record.IDs(training))
	assert.Equal(t, []string{"1", "2"}, store.deleted)
}

func TestManager_SharedCache(t *testing.T) {
	ctx := context.Background()
	c := &memCache{data: map[string]string{}}
	q := record.New("q", []float64{1, 2})

	first, err := New(&memStore{records: []record.Record{record.New("1", []float64{1, 2}, "A")}}, provider(1), WithCache(c))
	require.NoError(t, err)
	require.NoError(t, first.Run(ctx))
	second, err := New(&memStore{records: []record.Record{record.New("1", []float64{1, 2}, "B")}}, provider(1), WithCache(c))
	require.NoError(t, err)
	require.NoError(t, second.Run(ctx))

	class, err := first.Classify(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "A", class)
	class, err = second.Classify(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "B", class, "a different training set must not share cached results")
	assert.Len(t, c.data, 2)

	weighted := predictor.ProvideFor(&predictor.Config{
		KNum:              1,
		Weighted:          true,
		NumericWeight:     1,
		CategoricalWeight: 1,
		MetricFuncType:    geom.MetricTypeEuclidean,
	})
	third, err := New(&memStore{records: []record.Record{record.New("1", []float64{1, 2}, "A")}}, weighted, WithCache(c))
	require.NoError(t, err)
	require.NoError(t, third.Run(ctx))
	_, err = third.Classify(ctx, q)
	require.NoError(t, err)
	assert.Len(t, c.data, 3, "other predictor settings must not share cached results")

	restarted, err := New(&memStore{records: []record.Record{record.New("1", []float64{1, 2}, "A")}}, provider(1), WithCache(c))
	require.NoError(t, err)
	require.NoError(t, restarted.Run(ctx))
	for key, v := range c.data {
		if v == "A" {
			c.data[key] = "cached"
		}
	}
	class, err = restarted.Classify(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "cached", class, "identical state must reuse cached results")
}

func TestManager_Evaluate(t *testing.T) {
	ctx := context.Background()
	list := append(sample(),
		record.New("5", []float64{1.2, 0.9}, "A"),
		record.New("6", []float64{5.5, 8.5}, "B"),
		record.New("7", []float64{1.3, 1.0}, "A"),
		record.New("8", []float64{6.2, 8.9}, "B"),
	)
	m, err := New(&memStore{records: list}, provider(3))
	require.NoError(t, err)
	require.NoError(t, m.Run(ctx))

	report, err := m.Evaluate(ctx, 0.75, 42)
	require.NoError(t, err)
	assert.Len(t, report.Predictions, 2)

	again, err := m.Evaluate(ctx, 0.75, 42)
	require.NoError(t, err)
	assert.Equal(t, report, again)

	_, err = m.Evaluate(ctx, 1.5, 42)
	assert.True(t, errors.Is(err, split.ErrDegenerateSplit))

	_, err = m.Evaluate(ctx, 0, 42)
	assert.True(t, errors.Is(err, classifier.ErrInvalidInput))
}
