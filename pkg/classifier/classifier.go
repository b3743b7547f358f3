package classifier

import (
	"errors"
	"fmt"

	"github.com/go-sod/mixknn/pkg/geom"
	"github.com/go-sod/mixknn/pkg/pqueue"
	"github.com/go-sod/mixknn/pkg/record"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidInput is returned for an empty training set, a non-positive k,
// or mismatched attribute arities in strict mode.
var ErrInvalidInput = errors.New("invalid input")

const (
	DefaultK = 3
	// Epsilon keeps the inverse-distance weight of an exact match finite.
	Epsilon = 1e-5
)

type Option func(*Classifier)

func WithK(k int) Option {
	return func(c *Classifier) {
		c.k = k
	}
}

func WithWeighted(weighted bool) Option {
	return func(c *Classifier) {
		c.weighted = weighted
	}
}

// WithWeights sets the multipliers of the numeric and categorical terms.
func WithWeights(numeric, categorical float64) Option {
	return func(c *Classifier) {
		c.numWeight = numeric
		c.catWeight = categorical
	}
}

func WithNumericDistance(fn geom.NumericFn) Option {
	return func(c *Classifier) {
		if fn != nil {
			c.numFn = fn
		}
	}
}

// WithWorkers computes distances with up to n goroutines.
func WithWorkers(n int) Option {
	return func(c *Classifier) {
		c.workers = n
	}
}

// WithStrictArity rejects training records whose attribute counts differ from the query.
func WithStrictArity(strict bool) Option {
	return func(c *Classifier) {
		c.strict = strict
	}
}

func New(opts ...Option) *Classifier {
	c := &Classifier{
		k:         DefaultK,
		numWeight: 1,
		catWeight: 1,
		numFn:     geom.EuclideanDistance,
		workers:   1,
	}
	for _, f := range opts {
		f(c)
	}
	return c
}

type Classifier struct {
	k         int
	weighted  bool
	numWeight float64
	catWeight float64
	numFn     geom.NumericFn
	workers   int
	strict    bool
}

type Neighbor struct {
	Record   record.Record
	Distance float64
}

// Classify predicts the class of query with the default weights.
func Classify(query record.Record, training []record.Record, k int, weighted bool) (string, error) {
	return New(WithK(k), WithWeighted(weighted)).Classify(query, training)
}

func (c *Classifier) K() int {
	return c.k
}

func (c *Classifier) Weighted() bool {
	return c.weighted
}

// Classify returns the label with the largest vote among the k nearest training records.
func (c *Classifier) Classify(query record.Record, training []record.Record) (string, error) {
	neighbors, err := c.Neighbors(query, training)
	if err != nil {
		return "", err
	}
	return c.Vote(neighbors), nil
}

// Neighbors returns the k training records nearest to query in ascending
// distance. Equal distances keep training set order.
func (c *Classifier) Neighbors(query record.Record, training []record.Record) ([]Neighbor, error) {
	if len(training) == 0 {
		return nil, fmt.Errorf("%w: empty training set", ErrInvalidInput)
	}
	if c.k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidInput, c.k)
	}
	if c.strict {
		for i := range training {
			if err := geom.CheckArity(query, training[i]); err != nil {
				return nil, fmt.Errorf("%w: record %s: %v", ErrInvalidInput, training[i].ID(), err)
			}
		}
	}

	distances, err := c.distances(query, training)
	if err != nil {
		return nil, err
	}

	pq := pqueue.New(pqueue.WithCap(uint(c.k)))
	for i := range training {
		pq.Push(i, distances[i])
	}
	knn := make([]Neighbor, pq.Len())
	for i := range knn {
		idx, d := pq.Seek(i)
		knn[i] = Neighbor{Record: training[idx.(int)], Distance: d}
	}
	return knn, nil
}

// Vote tallies neighbors by class. Ties go to the class seen first.
func (c *Classifier) Vote(neighbors []Neighbor) string {
	t := newTally()
	for _, n := range neighbors {
		w := 1.0
		if c.weighted {
			w = 1 / (n.Distance + Epsilon)
		}
		t.add(n.Record.Class(), w)
	}
	return t.winner()
}

func (c *Classifier) distance(query, r record.Record) float64 {
	return geom.CombinedDistanceFn(c.numFn, query, r, c.numWeight, c.catWeight)
}

func (c *Classifier) distances(query record.Record, training []record.Record) ([]float64, error) {
	distances := make([]float64, len(training))
	workers := c.workers
	if workers > len(training) {
		workers = len(training)
	}
	if workers <= 1 {
		for i := range training {
			distances[i] = c.distance(query, training[i])
		}
		return distances, nil
	}

	chunk := (len(training) + workers - 1) / workers
	var grp errgroup.Group
	for start := 0; start < len(training); start += chunk {
		lo, hi := start, start+chunk
		if hi > len(training) {
			hi = len(training)
		}
		grp.Go(func() error {
			for i := lo; i < hi; i++ {
				distances[i] = c.distance(query, training[i])
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, fmt.Errorf("unable to compute distances: %w", err)
	}
	return distances, nil
}
