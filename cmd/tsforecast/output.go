package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/sartorproj/tsforecast/errs"
	"github.com/sartorproj/tsforecast/forecast"
	"github.com/sartorproj/tsforecast/metrics"
	"github.com/sartorproj/tsforecast/models"
	"github.com/sartorproj/tsforecast/pipeline"
)

// report is the machine-readable form of one evaluation.
type report struct {
	RunID    string           `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Model    models.Kind      `json:"model" yaml:"model"`
	Params   map[string]any   `json:"params" yaml:"params"`
	Train    int              `json:"train" yaml:"train"`
	Test     int              `json:"test" yaml:"test"`
	Metrics  *metrics.Metrics `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Raw      *metrics.Metrics `json:"raw_metrics,omitempty" yaml:"raw_metrics,omitempty"`
	Forecast []forecast.Point `json:"forecast,omitempty" yaml:"forecast,omitempty"`
	Error    string           `json:"error,omitempty" yaml:"error,omitempty"`
}

func newReport(ev *pipeline.Evaluation, withForecast bool) report {
	r := report{Model: ev.Model, Params: ev.Params, Train: ev.Train, Test: ev.Test}
	if ev.Err != nil {
		r.Error = ev.Err.Error()
		return r
	}
	rounded, raw := ev.Metrics.Rounded(), ev.Metrics
	r.RunID = ev.RunID.String()
	r.Metrics, r.Raw = &rounded, &raw
	if withForecast {
		r.Forecast = ev.Forecast.Points()
	}
	return r
}

func checkFormat(format string, allowed ...string) error {
	if slices.Contains(allowed, format) {
		return nil
	}
	return errs.New(errs.KindConfig, "tsforecast", "unsupported output format",
		map[string]any{"format": format, "supported": strings.Join(allowed, ", ")})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// writeStructured writes v as json or yaml.
func writeStructured(w io.Writer, format string, v any) error {
	if format == "yaml" {
		return writeYAML(w, v)
	}
	return writeJSON(w, v)
}

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func formatParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, params[k])
	}
	return strings.Join(parts, " ")
}
