// Package httpapi exposes the pipeline over a stateless JSON API. Every
// request carries all the data it needs; nothing is kept between calls.
package httpapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sartorproj/tsforecast/errs"
	"github.com/sartorproj/tsforecast/models"
	"github.com/sartorproj/tsforecast/pipeline"
	"github.com/sartorproj/tsforecast/schema"
	"github.com/sartorproj/tsforecast/timeseries"
)

// Options limit request handling.
type Options struct {
	MaxUploadBytes int64
	PreviewRows    int
}

// Handlers serves the /v1 endpoints.
type Handlers struct {
	runner *pipeline.Runner
	log    logrus.FieldLogger
	opts   Options
}

// NewHandlers returns handlers running stages on runner.
func NewHandlers(runner *pipeline.Runner, log logrus.FieldLogger, opts Options) *Handlers {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.PreviewRows < 0 {
		opts.PreviewRows = 0
	}
	return &Handlers{runner: runner, log: log, opts: opts}
}

// RegisterRoutes registers the endpoints on rg:
//
//	GET  /models   - list model kinds and parameters
//	POST /tables   - upload a delimited file (multipart field "file")
//	POST /evaluate - split, fit and score a series
//	POST /forecast - fit the full series and project
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.GET("/models", h.HandleModels)
	rg.POST("/tables", h.HandleTables)
	rg.POST("/evaluate", h.HandleEvaluate)
	rg.POST("/forecast", h.HandleForecast)
}

// NewRouter returns an engine with the API mounted under /v1.
func NewRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	RegisterRoutes(router.Group("/v1"), h)
	return router
}

// NewServer wraps router in an http.Server listening on addr.
func NewServer(addr string, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// HandleModels handles GET /v1/models.
func (h *Handlers) HandleModels(c *gin.Context) {
	c.JSON(http.StatusOK, ModelsResponse{Models: models.Catalog()})
}

// HandleTables handles POST /v1/tables. Optional form fields x and y
// normalize the table and return the series as well.
func (h *Handlers) HandleTables(c *gin.Context) {
	log := h.requestLog("HandleTables")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		log.WithError(err).Warn("Invalid upload")
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, ErrorResponse{Error: "multipart field \"file\" is required", Code: "INVALID_UPLOAD"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.WithError(err).Warn("Failed to read upload")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_UPLOAD"})
		return
	}

	table, err := h.runner.LoadBytes(header.Filename, data)
	if err != nil {
		h.fail(c, log, err)
		return
	}

	resp := TableResponse{
		Source:    table.Source,
		Delimiter: string(table.Delimiter),
		Sniffed:   table.Sniffed(),
		Rows:      table.Rows(),
		Preview:   table.Preview(h.opts.PreviewRows),
	}
	for _, col := range table.Columns() {
		resp.Columns = append(resp.Columns, ColumnInfo{Name: col.Name, Kind: col.Kind.String(), Missing: col.Missing()})
	}

	if x, y := c.PostForm("x"), c.PostForm("y"); x != "" || y != "" {
		order, err := schema.ParseOrder(c.PostForm("order"))
		if err != nil {
			h.fail(c, log, err)
			return
		}
		opts := schema.Options{Order: order, TimeLayout: c.PostForm("layout")}
		if freq := c.PostForm("freq"); freq != "" {
			if opts.IndexFrequency, err = timeseries.ParseFrequency(freq); err != nil {
				h.fail(c, log, err)
				return
			}
		}
		series, err := h.runner.Prepare(table, x, y, opts)
		if err != nil {
			h.fail(c, log, err)
			return
		}
		resp.Series = make([]Point, series.Len())
		for i, v := range series.Values {
			resp.Series[i] = Point{Timestamp: series.Timestamps[i], Value: v}
		}
	}

	c.JSON(http.StatusOK, resp)
}

// HandleEvaluate handles POST /v1/evaluate.
func (h *Handlers) HandleEvaluate(c *gin.Context) {
	log := h.requestLog("HandleEvaluate")

	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.WithError(err).Warn("Invalid request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	series, spec, sampling, err := req.SeriesRequest.resolve()
	if err != nil {
		h.fail(c, log, err)
		return
	}

	ev, err := h.runner.Validate(c.Request.Context(), series, spec, req.Ratio, sampling)
	if err != nil {
		h.fail(c, log, err)
		return
	}

	c.JSON(http.StatusOK, EvaluateResponse{
		RunID:    ev.RunID.String(),
		Model:    ev.Model,
		Params:   ev.Params,
		Train:    ev.Train,
		Test:     ev.Test,
		Metrics:  ev.Metrics.Rounded(),
		Raw:      ev.Metrics,
		Forecast: ev.Forecast.Points(),
	})
}

// HandleForecast handles POST /v1/forecast.
func (h *Handlers) HandleForecast(c *gin.Context) {
	log := h.requestLog("HandleForecast")

	var req ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.WithError(err).Warn("Invalid request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	series, spec, sampling, err := req.SeriesRequest.resolve()
	if err != nil {
		h.fail(c, log, err)
		return
	}

	fc, err := h.runner.Forecast(c.Request.Context(), series, spec, req.Horizon, sampling)
	if err != nil {
		h.fail(c, log, err)
		return
	}

	c.JSON(http.StatusOK, ForecastResponse{Model: fc.Model, Forecast: fc.Points()})
}

func (r *SeriesRequest) resolve() (*timeseries.Series, models.Spec, timeseries.Sampling, error) {
	const op = "httpapi.resolve"

	spec, err := models.Build(r.Model, r.Params)
	if err != nil {
		return nil, nil, nil, err
	}

	sampling := make(timeseries.Sampling, len(r.Frequency))
	for i, name := range r.Frequency {
		if sampling[i], err = timeseries.ParseFrequency(name); err != nil {
			return nil, nil, nil, err
		}
	}

	id := r.SeriesID
	if id == "" {
		id = timeseries.DefaultID
	}
	stamps := make([]time.Time, len(r.Points))
	values := make([]float64, len(r.Points))
	for i, p := range r.Points {
		stamps[i], values[i] = p.Timestamp.UTC(), p.Value
	}
	series, err := timeseries.NewWithTimestamps(id, stamps, values)
	if err != nil {
		return nil, nil, nil, err
	}
	if i := series.FirstDuplicate(); i >= 0 {
		return nil, nil, nil, errs.New(errs.KindSchema, op, "duplicate timestamp",
			map[string]any{"index": i, "timestamp": timeseries.FormatTime(series.Timestamps[i])})
	}
	return series, spec, sampling, nil
}

func (h *Handlers) requestLog(handler string) logrus.FieldLogger {
	return h.log.WithFields(logrus.Fields{
		"handler":    handler,
		"request_id": uuid.NewString(),
	})
}

func (h *Handlers) fail(c *gin.Context, log logrus.FieldLogger, err error) {
	kind := errs.KindOf(err)
	status := statusOf(kind)
	entry := log.WithError(err).WithField("kind", kind.String())
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	resp := ErrorResponse{Error: err.Error(), Code: codeOf(kind)}
	var e *errs.Error
	if errors.As(err, &e) {
		resp.Details = e.Details
	}
	c.JSON(status, resp)
}

func statusOf(kind errs.Kind) int {
	switch kind {
	case errs.KindIngestion, errs.KindSchema, errs.KindConfig, errs.KindUnknownModel, errs.KindAlignment:
		return http.StatusBadRequest
	case errs.KindFit, errs.KindDegenerateMetric:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

var codes = map[errs.Kind]string{
	errs.KindIngestion:        "INGESTION_ERROR",
	errs.KindSchema:           "SCHEMA_ERROR",
	errs.KindConfig:           "CONFIG_ERROR",
	errs.KindUnknownModel:     "UNKNOWN_MODEL",
	errs.KindFit:              "FIT_ERROR",
	errs.KindAlignment:        "ALIGNMENT_ERROR",
	errs.KindDegenerateMetric: "DEGENERATE_METRIC",
}

func codeOf(kind errs.Kind) string {
	if c, ok := codes[kind]; ok {
		return c
	}
	return "INTERNAL"
}
