package httpapi

import (
	"bytes"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/tsforecast/pipeline"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	logger, _ := test.NewNullLogger()
	h := NewHandlers(pipeline.New(logger, 2), logger, Options{PreviewRows: 2})
	return NewRouter(h)
}

func points(values ...float64) []Point {
	start := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	out := make([]Point, len(values))
	for i, v := range values {
		out[i] = Point{Timestamp: start.AddDate(0, i, 0), Value: v}
	}
	return out
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func upload(t *testing.T, router *gin.Engine, name, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if name != "" {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req, _ := http.NewRequest(http.MethodPost, "/v1/tables", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleModels(t *testing.T) {
	router := setupRouter(t)
	req, _ := http.NewRequest(http.MethodGet, "/v1/models", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp ModelsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Models, 5)
}

func TestHandleTables(t *testing.T) {
	router := setupRouter(t)
	csv := "month;sales;note\n2020-01-01;10;a\n2020-02-01;12;\n2020-03-01;14;c\n"

	w := upload(t, router, "sales.csv", csv, map[string]string{"x": "month", "y": "sales"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp TableResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ";", resp.Delimiter)
	assert.True(t, resp.Sniffed)
	assert.Equal(t, 3, resp.Rows)
	require.Len(t, resp.Columns, 3)
	assert.Equal(t, "number", resp.Columns[1].Kind)
	assert.Equal(t, 1, resp.Columns[2].Missing)
	assert.Len(t, resp.Preview, 2)
	require.Len(t, resp.Series, 3)
	assert.Equal(t, 14.0, resp.Series[2].Value)
}

func TestHandleTablesErrors(t *testing.T) {
	router := setupRouter(t)

	w := upload(t, router, "", "", map[string]string{"x": "month"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_UPLOAD", decodeError(t, w).Code)

	w = upload(t, router, "empty.csv", "month,sales\n", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INGESTION_ERROR", decodeError(t, w).Code)

	w = upload(t, router, "sales.csv", "month,sales\n2020-01-01,10\n", map[string]string{"x": "month", "y": "price"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "SCHEMA_ERROR", decodeError(t, w).Code)
}

func TestHandleEvaluate(t *testing.T) {
	router := setupRouter(t)

	w := postJSON(t, router, "/v1/evaluate", EvaluateRequest{
		SeriesRequest: SeriesRequest{
			Points:    points(10, 12, 14, 16, 18, 20),
			Model:     "historicaverage",
			Frequency: []string{"MS"},
		},
		Ratio: 70,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp EvaluateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Train)
	assert.Equal(t, 2, resp.Test)
	assert.Equal(t, 6.5, resp.Metrics.MAE)
	assert.InDelta(t, 6.5, resp.Raw.MAE, 1e-9)
	require.Len(t, resp.Forecast, 2)
	assert.InDelta(t, 13.0, resp.Forecast[0].PredictedValue, 1e-9)
	assert.True(t, resp.Forecast[0].Timestamp.Equal(time.Date(2020, time.May, 1, 0, 0, 0, 0, time.UTC)))
	assert.NotEmpty(t, resp.RunID)
}

func TestHandleEvaluateErrors(t *testing.T) {
	router := setupRouter(t)
	series := points(10, 12, 14, 16, 18, 20)

	tests := []struct {
		name   string
		points []Point
		model  string
		params map[string]any
		ratio  float64
		status int
		code   string
	}{
		{"unknown model", series, "Prophet", nil, 70, http.StatusBadRequest, "UNKNOWN_MODEL"},
		{"bad param", series, "SeasonalNaive", map[string]any{"season_length": 0}, 70, http.StatusBadRequest, "CONFIG_ERROR"},
		{"fit failure", series, "SeasonalNaive", map[string]any{"season_length": 12}, 70, http.StatusUnprocessableEntity, "FIT_ERROR"},
		{"zero actual", points(10, 12, 14, 16, 18, 0), "HistoricAverage", nil, 70, http.StatusUnprocessableEntity, "DEGENERATE_METRIC"},
		{"ratio out of range", series, "HistoricAverage", nil, 100, http.StatusBadRequest, "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := EvaluateRequest{
				SeriesRequest: SeriesRequest{Points: tt.points, Model: tt.model, Params: tt.params, Frequency: []string{"monthly"}},
				Ratio:         tt.ratio,
			}

			w := postJSON(t, router, "/v1/evaluate", req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestHandleEvaluateUnknownModelDetails(t *testing.T) {
	router := setupRouter(t)
	w := postJSON(t, router, "/v1/evaluate", EvaluateRequest{
		SeriesRequest: SeriesRequest{Points: points(1, 2, 3), Model: "Prophet", Frequency: []string{"D"}},
		Ratio:         50,
	})
	resp := decodeError(t, w)
	assert.Equal(t, "Prophet", resp.Details["model"])
}

func TestHandleForecast(t *testing.T) {
	router := setupRouter(t)
	values := make([]float64, 36)
	for i := range values {
		values[i] = 100 + 10*math.Sin(2*math.Pi*float64(i)/12)
	}

	w := postJSON(t, router, "/v1/forecast", ForecastRequest{
		SeriesRequest: SeriesRequest{
			Points:    points(values...),
			Model:     "SeasonalNaive",
			Params:    map[string]any{"season_length": 12},
			Frequency: []string{"monthly"},
		},
		Horizon: 3,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ForecastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Forecast, 3)
	assert.Equal(t, "SeasonalNaive", string(resp.Model))
	assert.InDelta(t, values[24], resp.Forecast[0].PredictedValue, 1e-9)
	assert.True(t, resp.Forecast[0].Timestamp.Equal(time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)))
}

func TestHandleForecastZeroHorizon(t *testing.T) {
	router := setupRouter(t)
	w := postJSON(t, router, "/v1/forecast", ForecastRequest{
		SeriesRequest: SeriesRequest{Points: points(1, 2, 3), Model: "HistoricAverage", Frequency: []string{"MS"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ForecastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Forecast)
}

func TestHandleForecastRejects(t *testing.T) {
	router := setupRouter(t)

	w := postJSON(t, router, "/v1/forecast", map[string]any{"model": "HistoricAverage"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, w).Code)

	dup := points(1, 2, 3)
	dup[2].Timestamp = dup[1].Timestamp
	w = postJSON(t, router, "/v1/forecast", ForecastRequest{
		SeriesRequest: SeriesRequest{Points: dup, Model: "HistoricAverage", Frequency: []string{"MS"}},
		Horizon:       2,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "SCHEMA_ERROR", decodeError(t, w).Code)

	w = postJSON(t, router, "/v1/forecast", ForecastRequest{
		SeriesRequest: SeriesRequest{Points: points(1, 2, 3), Model: "HistoricAverage", Frequency: []string{"MS", "MS"}},
		Horizon:       2,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CONFIG_ERROR", decodeError(t, w).Code)
}
