package classifier

import (
	"fmt"

	"github.com/go-sod/mixknn/pkg/record"
)

type Prediction struct {
	ID        string
	Actual    string
	Predicted string
}

func (p Prediction) Correct() bool {
	return p.Actual == p.Predicted
}

type Report struct {
	Predictions []Prediction
	Correct     int
}

// Accuracy is the share of correct predictions, zero for an empty report.
func (r Report) Accuracy() float64 {
	if len(r.Predictions) == 0 {
		return 0
	}
	return float64(r.Correct) / float64(len(r.Predictions))
}

// Evaluate classifies every validation record against training and compares
// the result with the record's own class.
func (c *Classifier) Evaluate(validation, training []record.Record) (Report, error) {
	report := Report{Predictions: make([]Prediction, 0, len(validation))}
	for _, r := range validation {
		predicted, err := c.Classify(r, training)
		if err != nil {
			return Report{}, fmt.Errorf("unable to classify record %s: %w", r.ID(), err)
		}
		p := Prediction{ID: r.ID(), Actual: r.Class(), Predicted: predicted}
		if p.Correct() {
			report.Correct++
		}
		report.Predictions = append(report.Predictions, p)
	}
	return report, nil
}
