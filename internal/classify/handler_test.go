package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-sod/mixknn/pkg/classifier"
	"github.com/go-sod/mixknn/pkg/record"
	"github.com/go-sod/mixknn/pkg/split"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	training []record.Record
	k        int
}

func (s *stubClassifier) Classify(_ context.Context, query record.Record) (string, error) {
	return classifier.Classify(query, s.training, s.k, false)
}

func (s *stubClassifier) Evaluate(_ context.Context, proportion float64, seed uint32) (classifier.Report, error) {
	if err := split.Validate(proportion); err != nil {
		return classifier.Report{}, err
	}
	train, valid := split.Split(s.training, proportion, split.NewSource(seed))
	return classifier.New(classifier.WithK(s.k)).Evaluate(valid, train)
}

func sample() []record.Record {
	return []record.Record{
		record.New("1", []float64{1, 2}, "A"),
		record.New("2", []float64{1.5, 1.8}, "A"),
		record.New("3", []float64{5, 8}, "B"),
		record.New("4", []float64{6, 9}, "B"),
	}
}

func cfg() *Config {
	return &Config{RequestTimeout: time.Second, MaxDataItemsLen: 2}
}

func post(h http.Handler, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/classify", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Classify(t *testing.T) {
	h, err := NewHandler(cfg(), &stubClassifier{training: sample(), k: 2})
	require.NoError(t, err)

	rec := post(h, "application/json", `{"records": [{"id": "q1", "numeric": [1.1, 1.9]}, {"id": "q2", "numeric": [5.5, 8.5]}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []item{{ID: "q1", Class: "A"}, {ID: "q2", Class: "B"}}, resp.Data)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		training    []record.Record
		expected    int
	}{
		{name: "method", method: http.MethodGet, contentType: "application/json", body: `{}`, training: sample(), expected: http.StatusMethodNotAllowed},
		{name: "content_type", method: http.MethodPost, contentType: "text/plain", body: `{}`, training: sample(), expected: http.StatusUnsupportedMediaType},
		{name: "malformed", method: http.MethodPost, contentType: "application/json", body: `{"records": [`, training: sample(), expected: http.StatusBadRequest},
		{name: "unknown_field", method: http.MethodPost, contentType: "application/json", body: `{"rows": []}`, training: sample(), expected: http.StatusBadRequest},
		{name: "empty", method: http.MethodPost, contentType: "application/json", body: `{"records": []}`, training: sample(), expected: http.StatusBadRequest},
		{
			name: "too_many", method: http.MethodPost, contentType: "application/json",
			body:     `{"records": [{"numeric": [1]}, {"numeric": [2]}, {"numeric": [3]}]}`,
			training: sample(), expected: http.StatusBadRequest,
		},
		{
			name: "empty_training", method: http.MethodPost, contentType: "application/json",
			body:     `{"records": [{"numeric": [1, 2]}]}`,
			training: nil, expected: http.StatusBadRequest,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			h, err := NewHandler(cfg(), &stubClassifier{training: test.training, k: 2})
			require.NoError(t, err)
			req := httptest.NewRequest(test.method, "/classify", strings.NewReader(test.body))
			req.Header.Set("Content-Type", test.contentType)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, test.expected, rec.Code, rec.Body.String())
		})
	}
}

func TestNewHandler_NilClassifier(t *testing.T) {
	_, err := NewHandler(cfg(), nil)
	assert.Error(t, err)
	_, err = NewEvaluateHandler(cfg(), nil)
	assert.Error(t, err)
}

func TestEvaluateHandler(t *testing.T) {
	var training []record.Record
	for i := 0; i < 10; i++ {
		training = append(training, record.New(fmt.Sprint(i), []float64{float64(i)}, "A"))
	}
	h, err := NewEvaluateHandler(cfg(), &stubClassifier{training: training, k: 3})
	require.NoError(t, err)

	tests := []struct {
		name     string
		method   string
		query    string
		expected int
		total    int
	}{
		{name: "default", method: http.MethodGet, query: "", expected: http.StatusOK, total: 3},
		{name: "half", method: http.MethodGet, query: "?proportion=0.5&seed=7", expected: http.StatusOK, total: 5},
		{name: "all_training", method: http.MethodGet, query: "?proportion=1", expected: http.StatusOK, total: 0},
		{name: "degenerate", method: http.MethodGet, query: "?proportion=2", expected: http.StatusBadRequest},
		{name: "no_training", method: http.MethodGet, query: "?proportion=0", expected: http.StatusBadRequest},
		{name: "bad_proportion", method: http.MethodGet, query: "?proportion=abc", expected: http.StatusBadRequest},
		{name: "bad_seed", method: http.MethodGet, query: "?seed=-1", expected: http.StatusBadRequest},
		{name: "method", method: http.MethodPost, query: "", expected: http.StatusMethodNotAllowed},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(test.method, "/evaluate"+test.query, nil))
			require.Equal(t, test.expected, rec.Code, rec.Body.String())
			if test.expected != http.StatusOK {
				return
			}
			var resp evaluateResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, test.total, resp.Total)
			assert.Equal(t, test.total, resp.Correct)
			assert.Len(t, resp.Predictions, test.total)
		})
	}
}
