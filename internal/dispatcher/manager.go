package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-sod/mixknn/internal/cache"
	recordDb "github.com/go-sod/mixknn/internal/dataset/database"
	"github.com/go-sod/mixknn/internal/logging"
	"github.com/go-sod/mixknn/internal/metric"
	"github.com/go-sod/mixknn/internal/predictor"
	"github.com/go-sod/mixknn/internal/util"
	"github.com/go-sod/mixknn/pkg/classifier"
	"github.com/go-sod/mixknn/pkg/record"
	"github.com/go-sod/mixknn/pkg/split"
)

// Contract for returning the Manager instance
type ProvideFn func() (Manager, error)

// Manager owns the in-memory training set and keeps it in sync with storage.
type Manager interface {
	CollectClassifier
	// Run loads the stored training set into memory
	Run(context.Context) error
	Len() int
}

// Collector adds labelled records to the training set
type Collector interface {
	Collect(ctx context.Context, in ...record.Record) error
}

// Classifier predicts classes against the current training set
type Classifier interface {
	Classify(ctx context.Context, query record.Record) (string, error)
	Evaluate(ctx context.Context, proportion float64, seed uint32) (classifier.Report, error)
}

// Aggregation interface for Collector and Classifier interfaces
type CollectClassifier interface {
	Collector
	Classifier
}

// Abstractions for getting dependencies
type (
	// function for getting all stored records in insertion order
	fetchRecordsFn func(context.Context) ([]record.Record, error)
	// function to add or replace records
	appendRecordsFn func(context.Context, []record.Record) error
	// function for deleting records by id
	deleteRecordsFn func(context.Context, []string) error
)

// Store is the persistence used by the manager.
type Store interface {
	FindAll(ctx context.Context, filter recordDb.FilterFn) ([]record.Record, error)
	AppendMany(ctx context.Context, records []record.Record) error
	DeleteMany(ctx context.Context, ids []string) error
}

type pullDependencies struct {
	fetchRecords  fetchRecordsFn
	appendRecords appendRecordsFn
	deleteRecords deleteRecordsFn
}

type Options struct {
	maxItemsStored int
	cache          cache.Cache
}

type Option func(*manager)

// WithMaxItemsStored keeps only the n most recently added records; zero means no limit.
func WithMaxItemsStored(n int) Option {
	return func(m *manager) {
		m.opts.maxItemsStored = n
	}
}

func WithCache(c cache.Cache) Option {
	return func(m *manager) {
		m.opts.cache = c
	}
}

// New return manager
func New(store Store, providePredictorFn predictor.ProvideFn, opts ...Option) (*manager, error) {
	if store == nil {
		return nil, fmt.Errorf("record store is not created")
	}
	if providePredictorFn == nil {
		return nil, fmt.Errorf("predictor instance is not created")
	}

	p, err := providePredictorFn()
	if err != nil {
		return nil, fmt.Errorf("can not create predictor instance: %w", err)
	}

	m := &manager{
		predictor: p,
		index:     map[string]int{},
		deps: pullDependencies{
			fetchRecords: func(ctx context.Context) ([]record.Record, error) {
				return store.FindAll(ctx, nil)
			},
			appendRecords: store.AppendMany,
			deleteRecords: store.DeleteMany,
		},
	}
	for _, f := range opts {
		f(m)
	}
	return m, nil
}

type manager struct {
	// guards training, index and digest; collect is serialized by collectMtx
	mtx        sync.RWMutex
	collectMtx sync.Mutex

	opts Options
	deps pullDependencies

	predictor predictor.Predictor
	// replaced on every change, never mutated in place
	training []record.Record
	index    map[string]int
	// content digest of training, part of the cache key; kept only with a cache
	digest [32]byte
	// ids trimmed from memory whose deletion from the store failed
	pendingDeletes []string
}

func (m *manager) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	list, err := m.deps.fetchRecords(ctx)
	if err != nil {
		return fmt.Errorf("error fetching all records: %w", err)
	}

	m.collectMtx.Lock()
	defer m.collectMtx.Unlock()
	m.replace(ctx, list)
	logger.Infof("loaded %d training records", m.Len())
	return nil
}

func (m *manager) Len() int {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return len(m.training)
}

// Collect persists records and adds them to the training set. A record with a
// known id replaces the stored one at its original position.
func (m *manager) Collect(ctx context.Context, in ...record.Record) error {
	if len(in) == 0 {
		return nil
	}
	m.collectMtx.Lock()
	defer m.collectMtx.Unlock()

	if err := m.deps.appendRecords(ctx, in); err != nil {
		return fmt.Errorf("unable store records: %w", err)
	}

	m.mtx.RLock()
	next := make([]record.Record, len(m.training), len(m.training)+len(in))
	copy(next, m.training)
	index := make(map[string]int, len(m.index)+len(in))
	for k, v := range m.index {
		index[k] = v
	}
	m.mtx.RUnlock()

	for _, r := range in {
		if pos, ok := index[r.ID()]; ok {
			next[pos] = r
			continue
		}
		index[r.ID()] = len(next)
		next = append(next, r)
	}
	m.replace(ctx, next)
	return nil
}

// replace installs list as the training set, trimming the oldest records
// above the configured limit. The trimmed list is installed even when the
// store fails to delete the outdated records; their ids are retried on the
// next replace, and Run trims the store again on start. Callers hold collectMtx.
func (m *manager) replace(ctx context.Context, list []record.Record) {
	if limit := m.opts.maxItemsStored; limit > 0 && len(list) > limit {
		m.pendingDeletes = append(m.pendingDeletes, record.IDs(list[:len(list)-limit])...)
		list = list[len(list)-limit:]
	}
	index := make(map[string]int, len(list))
	for i := range list {
		index[list[i].ID()] = i
	}
	var digest [32]byte
	if m.opts.cache != nil {
		digest = util.HashRecords(list)
	}

	m.mtx.Lock()
	m.training = list
	m.index = index
	m.digest = digest
	m.mtx.Unlock()

	if len(m.pendingDeletes) > 0 {
		outdated := make([]string, 0, len(m.pendingDeletes))
		for _, id := range m.pendingDeletes {
			// a re-collected id is live again
			if _, ok := index[id]; !ok {
				outdated = append(outdated, id)
			}
		}
		if len(outdated) == 0 {
			m.pendingDeletes = nil
		} else if err := m.deps.deleteRecords(ctx, outdated); err != nil {
			m.pendingDeletes = outdated
			logging.FromContext(ctx).Warnf("unable delete %d outdated records, retrying on next change: %v", len(outdated), err)
		} else {
			m.pendingDeletes = nil
		}
	}

	metric.RecordTrainingSetSize(ctx, len(list))
}

func (m *manager) snapshot() ([]record.Record, [32]byte) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.training, m.digest
}

// Classify predicts the class of query, consulting the cache first when one is configured.
func (m *manager) Classify(ctx context.Context, query record.Record) (string, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()
	training, digest := m.snapshot()

	var key string
	if m.opts.cache != nil {
		key = cache.Key(query, digest, m.predictor.Fingerprint())
		class, ok, err := m.opts.cache.Get(ctx, key)
		if err != nil {
			logger.Warnf("cache lookup failed: %v", err)
		}
		if ok {
			metric.RecordClassify(ctx, class, "cached", time.Since(start))
			return class, nil
		}
	}

	class, err := m.predictor.Classify(query, training)
	if err != nil {
		metric.RecordClassify(ctx, "", "error", time.Since(start))
		return "", fmt.Errorf("unable classify record %s: %w", query.ID(), err)
	}
	metric.RecordClassify(ctx, class, "ok", time.Since(start))

	if m.opts.cache != nil {
		if err := m.opts.cache.Set(ctx, key, class); err != nil {
			logger.Warnf("cache store failed: %v", err)
		}
	}
	return class, nil
}

// Evaluate splits the training set with a generator seeded by seed and
// classifies the validation part against the training part.
func (m *manager) Evaluate(ctx context.Context, proportion float64, seed uint32) (classifier.Report, error) {
	if err := split.Validate(proportion); err != nil {
		return classifier.Report{}, err
	}
	list, _ := m.snapshot()
	training, validation := split.Split(list, proportion, split.NewSource(seed))
	logging.FromContext(ctx).Debugf("evaluating %d validation records against %d training records", len(validation), len(training))

	report, err := m.predictor.Evaluate(validation, training)
	if err != nil {
		return classifier.Report{}, fmt.Errorf("unable evaluate: %w", err)
	}
	return report, nil
}
