package classifier

// tally accumulates vote weight per class and remembers the order in which
// classes were first seen.
type tally struct {
	order   []string
	weights map[string]float64
}

func newTally() *tally {
	return &tally{weights: map[string]float64{}}
}

func (t *tally) add(class string, w float64) {
	if _, ok := t.weights[class]; !ok {
		t.order = append(t.order, class)
	}
	t.weights[class] += w
}

func (t *tally) winner() string {
	var (
		best   string
		weight float64
	)
	for i, class := range t.order {
		if i == 0 || t.weights[class] > weight {
			best, weight = class, t.weights[class]
		}
	}
	return best
}
