package httpapi

import (
	"time"

	"github.com/sartorproj/tsforecast/forecast"
	"github.com/sartorproj/tsforecast/metrics"
	"github.com/sartorproj/tsforecast/models"
)

// Point is one observation of a request series.
type Point struct {
	Timestamp time.Time `json:"timestamp" binding:"required"`
	Value     float64   `json:"value"`
}

// SeriesRequest carries a series and the model to run on it.
type SeriesRequest struct {
	SeriesID  string         `json:"series_id"`
	Points    []Point        `json:"points" binding:"required,min=1,dive"`
	Model     string         `json:"model" binding:"required"`
	Params    map[string]any `json:"params"`
	Frequency []string       `json:"frequency" binding:"required,min=1"`
}

// EvaluateRequest is the body of POST /v1/evaluate.
type EvaluateRequest struct {
	SeriesRequest
	Ratio float64 `json:"ratio" binding:"required,gt=0,lt=100"`
}

// ForecastRequest is the body of POST /v1/forecast.
type ForecastRequest struct {
	SeriesRequest
	Horizon int `json:"horizon" binding:"gte=0"`
}

type ModelsResponse struct {
	Models []models.Info `json:"models"`
}

type ColumnInfo struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Missing int    `json:"missing"`
}

type TableResponse struct {
	Source    string       `json:"source"`
	Delimiter string       `json:"delimiter"`
	Sniffed   bool         `json:"sniffed"`
	Rows      int          `json:"rows"`
	Columns   []ColumnInfo `json:"columns"`
	Preview   [][]string   `json:"preview"`
	Series    []Point      `json:"series,omitempty"` // set when x and y were given
}

type EvaluateResponse struct {
	RunID    string           `json:"run_id"`
	Model    models.Kind      `json:"model"`
	Params   map[string]any   `json:"params"`
	Train    int              `json:"train"`
	Test     int              `json:"test"`
	Metrics  metrics.Metrics  `json:"metrics"`
	Raw      metrics.Metrics  `json:"raw_metrics"`
	Forecast []forecast.Point `json:"forecast"`
}

type ForecastResponse struct {
	Model    models.Kind      `json:"model"`
	Forecast []forecast.Point `json:"forecast"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}
