package split

import (
	"errors"
	"fmt"

	"github.com/go-sod/mixknn/pkg/record"
	"github.com/valyala/fastrand"
)

const DefaultProportion = 0.7

// ErrDegenerateSplit marks a proportion outside [0, 1].
var ErrDegenerateSplit = errors.New("degenerate split")

// Source yields uniformly distributed integers in [0, maxN).
type Source interface {
	Uint32n(maxN uint32) uint32
}

// NewSource returns a generator producing the same sequence for the same
// non-zero seed. A zero seed is replaced with a random one on first use.
func NewSource(seed uint32) *fastrand.RNG {
	var rng fastrand.RNG
	rng.Seed(seed)
	return &rng
}

type globalSource struct{}

func (globalSource) Uint32n(maxN uint32) uint32 {
	return fastrand.Uint32n(maxN)
}

// Validate returns ErrDegenerateSplit when proportion would leave one of the
// partitions empty by construction.
func Validate(proportion float64) error {
	if proportion < 0 || proportion > 1 {
		return fmt.Errorf("%w: proportion %v is outside [0, 1]", ErrDegenerateSplit, proportion)
	}
	return nil
}

// Split shuffles a copy of records with src and cuts it at
// floor(len(records)*proportion). The cut is clamped to the slice bounds, so
// a proportion above 1 leaves validation empty and one below 0 leaves training
// empty. A nil src uses the process wide generator.
func Split(records []record.Record, proportion float64, src Source) (training, validation []record.Record) {
	if src == nil {
		src = globalSource{}
	}
	shuffled := make([]record.Record, len(records))
	copy(shuffled, records)
	Shuffle(shuffled, src)

	cut := int(float64(len(shuffled)) * proportion)
	if cut < 0 {
		cut = 0
	}
	if cut > len(shuffled) {
		cut = len(shuffled)
	}
	return shuffled[:cut:cut], shuffled[cut:]
}

// Shuffle permutes records in place (Fisher-Yates).
func Shuffle(records []record.Record, src Source) {
	for i := len(records) - 1; i > 0; i-- {
		j := int(src.Uint32n(uint32(i + 1)))
		records[i], records[j] = records[j], records[i]
	}
}
