// Package dataset loads record collections from TOML documents.
//
// A document is a list of [[record]] tables:
//
//	[[record]]
//	id = "1"
//	numeric = [1.0, 2.0]
//	categorical = ["ClassA"]
//
// Numeric values must be written as floats.
package dataset

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/go-sod/mixknn/pkg/record"
)

type document struct {
	Records []struct {
		ID          string    `toml:"id"`
		Numeric     []float64 `toml:"numeric"`
		Categorical []string  `toml:"categorical"`
	} `toml:"record"`
}

// Sample is the fixed demonstration dataset: two well separated classes in
// the plane.
const Sample = `
[[record]]
id = "1"
numeric = [1.0, 2.0]
categorical = ["ClassA"]

[[record]]
id = "2"
numeric = [1.5, 1.8]
categorical = ["ClassA"]

[[record]]
id = "3"
numeric = [5.0, 8.0]
categorical = ["ClassB"]

[[record]]
id = "4"
numeric = [6.0, 9.0]
categorical = ["ClassB"]

[[record]]
id = "5"
numeric = [1.2, 0.9]
categorical = ["ClassA"]

[[record]]
id = "6"
numeric = [5.5, 8.5]
categorical = ["ClassB"]

[[record]]
id = "7"
numeric = [1.3, 1.0]
categorical = ["ClassA"]

[[record]]
id = "8"
numeric = [6.2, 8.9]
categorical = ["ClassB"]
`

func Parse(data string) ([]record.Record, error) {
	var doc document
	if _, err := toml.Decode(data, &doc); err != nil {
		return nil, fmt.Errorf("unable decode dataset: %w", err)
	}
	return doc.records()
}

func LoadFile(path string) ([]record.Record, error) {
	var doc document
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("unable decode dataset file %s: %w", path, err)
	}
	return doc.records()
}

// Load reads path, or the Sample dataset when path is empty.
func Load(path string) ([]record.Record, error) {
	if path == "" {
		return Parse(Sample)
	}
	return LoadFile(path)
}

func (d document) records() ([]record.Record, error) {
	list := make([]record.Record, 0, len(d.Records))
	seen := make(map[string]struct{}, len(d.Records))
	for i, r := range d.Records {
		if r.ID == "" {
			return nil, fmt.Errorf("record #%d has no id", i)
		}
		if _, ok := seen[r.ID]; ok {
			return nil, fmt.Errorf("duplicate record id %s", r.ID)
		}
		seen[r.ID] = struct{}{}
		list = append(list, record.New(r.ID, r.Numeric, r.Categorical...))
	}
	return list, nil
}
