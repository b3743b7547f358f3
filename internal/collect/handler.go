package collect

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-sod/mixknn/internal/dispatcher"
	"github.com/go-sod/mixknn/internal/httputil"
	"github.com/go-sod/mixknn/internal/logging"
	"github.com/go-sod/mixknn/pkg/record"
	"github.com/google/uuid"
)

type request struct {
	Records []struct {
		ID          string    `json:"id"`
		Numeric     []float64 `json:"numeric"`
		Categorical []string  `json:"categorical"`
	} `json:"records"`
}

type response struct {
	Status string   `json:"status"`
	IDs    []string `json:"ids"`
}

func NewHandler(cfg *Config, collector dispatcher.Collector) (http.Handler, error) {
	if collector == nil {
		return nil, fmt.Errorf("collector instance is not created")
	}
	s := &handler{
		collector: collector,
		cfg:       cfg,
	}
	return s, nil
}

type handler struct {
	collector dispatcher.Collector
	cfg       *Config
}

// ServeHTTP stores the posted records as training data. Records without an
// id get a generated one, returned in request order.
func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	defer r.Body.Close()
	logger := logging.FromContext(ctx)

	if !httputil.DecodeJSONBody(ctx, w, r, &req) {
		return
	}

	if len(req.Records) > h.cfg.MaxDataItemsLen {
		httputil.RespBadRequest(ctx, w, `{"error": "data items is too large, max allowed len is %d"}`, h.cfg.MaxDataItemsLen)
		return
	}

	records := make([]record.Record, len(req.Records))
	ids := make([]string, len(req.Records))
	for i, dat := range req.Records {
		id := dat.ID
		if id == "" {
			id = uuid.New().String()
		}
		if len(dat.Categorical) == 0 {
			httputil.RespBadRequest(ctx, w, `{"error": "record %s has no class label"}`, id)
			return
		}
		ids[i] = id
		records[i] = record.New(id, dat.Numeric, dat.Categorical...)
	}

	if err := h.collector.Collect(ctx, records...); err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "error sending to collect service: %v"}`, err)
		return
	}
	logger.Infof("collected %d training records", len(records))

	httputil.RespOK(ctx, w, response{Status: "ok", IDs: ids})
}
