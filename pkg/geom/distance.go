package geom

import (
	"fmt"
	"math"

	"github.com/go-sod/mixknn/pkg/record"
)

var ErrDimNotEqual = fmt.Errorf("vectors dimension is not equal")

// NumericFn measures two numeric vectors. Implementations compare only the
// overlapping prefix of vectors of unequal length.
type NumericFn func(vec, vec1 []float64) float64

type MetricType string

const (
	MetricTypeEuclidean MetricType = "EUCLIDEAN"
	MetricTypeChebyshev MetricType = "CHEBYSHEV"
	MetricTypeManhattan MetricType = "MANHATTAN"
)

func NumericFuncFor(m MetricType) (NumericFn, error) {
	switch m {
	case MetricTypeEuclidean:
		return EuclideanDistance, nil
	case MetricTypeChebyshev:
		return ChebyshevDistance, nil
	case MetricTypeManhattan:
		return ManhattanDistance, nil
	default:
		return nil, fmt.Errorf("unknown distance function: %s", m)
	}
}

func overlap(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func EuclideanDistance(vec, vec1 []float64) float64 {
	var d float64
	n := overlap(len(vec), len(vec1))
	for i := 0; i < n; i++ {
		d += math.Pow(vec[i]-vec1[i], 2)
	}
	return math.Sqrt(d)
}

func ChebyshevDistance(vec, vec1 []float64) float64 {
	var absDistance, distance float64
	n := overlap(len(vec), len(vec1))
	for i := 0; i < n; i++ {
		absDistance = math.Abs(vec[i] - vec1[i])
		if distance < absDistance {
			distance = absDistance
		}
	}
	return distance
}

func ManhattanDistance(vec, vec1 []float64) float64 {
	var distance float64
	n := overlap(len(vec), len(vec1))
	for i := 0; i < n; i++ {
		distance += math.Abs(vec[i] - vec1[i])
	}
	return distance
}

// HammingDistance counts the positions at which cat and cat1 disagree.
func HammingDistance(cat, cat1 []string) int {
	var distance int
	n := overlap(len(cat), len(cat1))
	for i := 0; i < n; i++ {
		if cat[i] != cat1[i] {
			distance++
		}
	}
	return distance
}

// CombinedDistance is CombinedDistanceFn with the euclidean numeric metric.
func CombinedDistance(r, r1 record.Record, numWeight, catWeight float64) float64 {
	return CombinedDistanceFn(EuclideanDistance, r, r1, numWeight, catWeight)
}

// CombinedDistanceFn returns numWeight*numFn(numeric) + catWeight*hamming(categorical).
// A term is zero when r (never r1) has no attributes of that kind.
func CombinedDistanceFn(numFn NumericFn, r, r1 record.Record, numWeight, catWeight float64) float64 {
	var numDist, catDist float64
	if len(r.Numeric()) > 0 {
		numDist = numFn(r.Numeric(), r1.Numeric())
	}
	if len(r.Categorical()) > 0 {
		catDist = float64(HammingDistance(r.Categorical(), r1.Categorical()))
	}
	return numWeight*numDist + catWeight*catDist
}

// CheckArity reports ErrDimNotEqual when the records attribute counts differ.
func CheckArity(r, r1 record.Record) error {
	if len(r.Numeric()) != len(r1.Numeric()) {
		return fmt.Errorf("numeric %d != %d: %w", len(r.Numeric()), len(r1.Numeric()), ErrDimNotEqual)
	}
	if len(r.Categorical()) != len(r1.Categorical()) {
		return fmt.Errorf("categorical %d != %d: %w", len(r.Categorical()), len(r1.Categorical()), ErrDimNotEqual)
	}
	return nil
}
