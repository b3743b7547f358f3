package classify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-sod/mixknn/internal/dispatcher"
	"github.com/go-sod/mixknn/internal/httputil"
	"github.com/go-sod/mixknn/pkg/classifier"
	"github.com/go-sod/mixknn/pkg/record"
	"github.com/go-sod/mixknn/pkg/split"
	"golang.org/x/sync/errgroup"
)

type request struct {
	Records []struct {
		ID          string    `json:"id"`
		Numeric     []float64 `json:"numeric"`
		Categorical []string  `json:"categorical"`
	} `json:"records"`
}

type item struct {
	ID    string `json:"id"`
	Class string `json:"class"`
}

type response struct {
	Data []item `json:"data"`
}

func NewHandler(cfg *Config, c dispatcher.Classifier) (http.Handler, error) {
	if c == nil {
		return nil, fmt.Errorf("classifier instance is not created")
	}
	return &handler{
		cfg:        cfg,
		classifier: c,
	}, nil
}

type handler struct {
	classifier dispatcher.Classifier
	cfg        *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	defer r.Body.Close()

	if !httputil.DecodeJSONBody(ctx, w, r, &req) {
		return
	}

	if len(req.Records) == 0 {
		httputil.RespBadRequest(ctx, w, `{"error": "records must not be empty"}`)
		return
	}
	if len(req.Records) > h.cfg.MaxDataItemsLen {
		httputil.RespBadRequest(ctx, w, `{"error": "data items is too large, max allowed len is %d"}`, h.cfg.MaxDataItemsLen)
		return
	}

	respData := make([]item, len(req.Records))
	errGrp, grpCtx := errgroup.WithContext(ctx)
	for i, dat := range req.Records {
		i, dat := i, dat
		errGrp.Go(func() error {
			query := record.New(dat.ID, dat.Numeric, dat.Categorical...)
			class, err := h.classifier.Classify(grpCtx, query)
			if err != nil {
				return err
			}
			respData[i] = item{ID: dat.ID, Class: class}
			return nil
		})
	}
	if err := errGrp.Wait(); err != nil {
		if errors.Is(err, classifier.ErrInvalidInput) {
			httputil.RespBadRequest(ctx, w, `{"error": %q}`, err.Error())
			return
		}
		httputil.RespInternalError(ctx, w, `{"error": "classify processing error, %v"}`, err)
		return
	}

	httputil.RespOK(ctx, w, response{Data: respData})
}

type evaluateResponse struct {
	Total       int            `json:"total"`
	Correct     int            `json:"correct"`
	Accuracy    float64        `json:"accuracy"`
	Predictions []evaluateItem `json:"predictions"`
}

type evaluateItem struct {
	ID        string `json:"id"`
	Actual    string `json:"actual"`
	Predicted string `json:"predicted"`
}

// NewEvaluateHandler serves GET ?proportion=0.7&seed=42. A missing or zero
// seed gives a different split on every call.
func NewEvaluateHandler(cfg *Config, c dispatcher.Classifier) (http.Handler, error) {
	if c == nil {
		return nil, fmt.Errorf("classifier instance is not created")
	}
	return &evaluateHandler{cfg: cfg, classifier: c}, nil
}

type evaluateHandler struct {
	classifier dispatcher.Classifier
	cfg        *Config
}

func (h *evaluateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	if r.Method != http.MethodGet {
		httputil.RespJSON(ctx, w, http.StatusMethodNotAllowed, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	proportion := split.DefaultProportion
	if v := r.URL.Query().Get("proportion"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			httputil.RespBadRequest(ctx, w, `{"error": "invalid proportion %q"}`, v)
			return
		}
		proportion = p
	}
	var seed uint32
	if v := r.URL.Query().Get("seed"); v != "" {
		s, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			httputil.RespBadRequest(ctx, w, `{"error": "invalid seed %q"}`, v)
			return
		}
		seed = uint32(s)
	}

	report, err := h.classifier.Evaluate(ctx, proportion, seed)
	if err != nil {
		if errors.Is(err, classifier.ErrInvalidInput) || errors.Is(err, split.ErrDegenerateSplit) {
			httputil.RespBadRequest(ctx, w, `{"error": %q}`, err.Error())
			return
		}
		httputil.RespInternalError(ctx, w, `{"error": "evaluate processing error, %v"}`, err)
		return
	}

	resp := evaluateResponse{
		Total:       len(report.Predictions),
		Correct:     report.Correct,
		Accuracy:    report.Accuracy(),
		Predictions: make([]evaluateItem, len(report.Predictions)),
	}
	for i, p := range report.Predictions {
		resp.Predictions[i] = evaluateItem{ID: p.ID, Actual: p.Actual, Predicted: p.Predicted}
	}
	httputil.RespOK(ctx, w, resp)
}
