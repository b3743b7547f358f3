package record

import (
	"fmt"
	"strings"
)

// UnknownClass is the label of a record that carries no categorical attributes.
const UnknownClass = "Unknown"

// New returns a record holding copies of numeric and categorical.
// The first categorical attribute is the class label by convention.
func New(id string, numeric []float64, categorical ...string) Record {
	r := Record{id: id}
	if len(numeric) > 0 {
		r.numeric = make([]float64, len(numeric))
		copy(r.numeric, numeric)
	}
	if len(categorical) > 0 {
		r.categorical = make([]string, len(categorical))
		copy(r.categorical, categorical)
	}
	return r
}

// Record is a single observation. It is read-only after New; slices returned
// by the accessors must not be modified.
type Record struct {
	id          string
	numeric     []float64
	categorical []string
}

func (r Record) ID() string {
	return r.id
}

func (r Record) Numeric() []float64 {
	return r.numeric
}

func (r Record) Categorical() []string {
	return r.categorical
}

// Class returns the first categorical attribute or UnknownClass.
func (r Record) Class() string {
	if len(r.categorical) == 0 {
		return UnknownClass
	}
	return r.categorical[0]
}

func (r Record) String() string {
	return fmt.Sprintf("Record(%s, Num=%v, Cat=[%s])", r.id, r.numeric, strings.Join(r.categorical, " "))
}

// IDs returns the identifiers of records in order.
func IDs(records []Record) []string {
	ids := make([]string, len(records))
	for i := range records {
		ids[i] = records[i].id
	}
	return ids
}
