package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sartorproj/tsforecast/httpapi"
	"github.com/sartorproj/tsforecast/models"
	"github.com/sartorproj/tsforecast/pipeline"
	"github.com/sartorproj/tsforecast/timeseries"
)

func (a *app) modelsCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List model kinds and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format, "text", "json", "yaml"); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if format != "text" {
				return writeStructured(out, format, models.Catalog())
			}

			tw := newTable(out, "KIND", "PARAMETERS", "DESCRIPTION")
			for _, info := range models.Catalog() {
				names := make([]string, len(info.Params))
				for i, p := range info.Params {
					names[i] = p.Name
					if p.Default != nil {
						names[i] = fmt.Sprintf("%s=%v", p.Name, p.Default)
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Kind, strings.Join(names, " "), info.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format (text, json, yaml)")
	return cmd
}

func (a *app) inspectCommand() *cobra.Command {
	var (
		rows   int
		export string
	)
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show the delimiter, columns and first rows of a file",
		Long: "inspect parses FILE and reports how it was read. With --x and --y it\n" +
			"also normalizes the series, prints summary statistics and can export\n" +
			"it in long format with --export.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := a.runner.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			how := "sniffed"
			if !table.Sniffed() {
				how = "fallback"
			}
			fmt.Fprintf(out, "Source:    %s\n", table.Source)
			fmt.Fprintf(out, "Delimiter: %q (%s)\n", table.Delimiter, how)
			fmt.Fprintf(out, "Rows:      %d\n\n", table.Rows())

			tw := newTable(out, "COLUMN", "KIND", "MISSING")
			for _, col := range table.Columns() {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", col.Name, col.Kind, col.Missing())
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if preview := table.Preview(rows); len(preview) > 0 {
				fmt.Fprintln(out)
				tw = newTable(out, table.Header()...)
				for _, row := range preview {
					fmt.Fprintln(tw, strings.Join(row, "\t"))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}

			x, y := a.cfg.Data.TimeColumn, a.cfg.Data.ValueColumn
			if x == "" && y == "" {
				return nil
			}
			opts, err := a.cfg.SchemaOptions()
			if err != nil {
				return err
			}
			series, err := a.runner.Prepare(table, x, y, opts)
			if err != nil {
				return err
			}

			s := series.Describe()
			fmt.Fprintf(out, "\nSeries %s: %d points from %s to %s\n", y, s.Count,
				timeseries.FormatTime(series.Timestamps[0]), timeseries.FormatTime(series.Last()))
			fmt.Fprintf(out, "mean=%.4g std=%.4g min=%.4g q25=%.4g median=%.4g q75=%.4g max=%.4g\n",
				s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max)

			if export == "" {
				return nil
			}
			f, err := os.Create(export)
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			if err := timeseries.WriteCSV(f, series); err != nil {
				f.Close()
				return fmt.Errorf("failed to write export file: %w", err)
			}
			a.log.WithFields(logrus.Fields{"stage": "export", "rows": series.Len(), "file": export}).Info("Series exported")
			return f.Close()
		},
	}
	f := cmd.Flags()
	f.IntVar(&rows, "rows", 5, "preview rows")
	f.String("x", "", "timestamp column")
	f.String("y", "", "value column")
	f.String("time-layout", "", "Go time layout tried before the built-in ones")
	f.String("order", "keep", "row order handling (keep, sort, reject)")
	f.StringVar(&export, "export", "", "write the normalized series as unique_id,ds,y CSV")
	return cmd
}

func (a *app) evaluateCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "evaluate FILE",
		Short: "Fit a model on the train partition and score it on the test partition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "text", "json", "yaml"); err != nil {
				return err
			}
			series, spec, sampling, err := a.prepareRun(args[0])
			if err != nil {
				return err
			}

			ev, err := a.runner.Validate(cmd.Context(), series, spec, a.cfg.Split.Ratio, sampling)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format != "text" {
				return writeStructured(out, format, newReport(ev, true))
			}

			fmt.Fprintf(out, "Model:   %s (%s)\n", ev.Model, formatParams(ev.Params))
			fmt.Fprintf(out, "Split:   %d train / %d test\n", ev.Train, ev.Test)
			fmt.Fprintf(out, "Metrics: %s\n\n", ev.Metrics)

			tw := newTable(out, "TIMESTAMP", "ACTUAL", "PREDICTED")
			actual := series.Values[ev.Train:]
			for i, p := range ev.Forecast.Points() {
				fmt.Fprintf(tw, "%s\t%.4f\t%.4f\n", timeseries.FormatTime(p.Timestamp), actual[i], p.PredictedValue)
			}
			return tw.Flush()
		},
	}
	dataFlags(cmd)
	cmd.Flags().Float64("ratio", 80, "train share of the series in percent")
	cmd.Flags().StringVar(&format, "format", "text", "output format (text, json, yaml)")
	return cmd
}

func (a *app) forecastCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "forecast FILE",
		Short: "Fit a model on the whole series and project future values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "csv", "json", "yaml"); err != nil {
				return err
			}
			series, spec, sampling, err := a.prepareRun(args[0])
			if err != nil {
				return err
			}

			fc, err := a.runner.Forecast(cmd.Context(), series, spec, a.cfg.Forecast.Horizon, sampling)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "csv" {
				return fc.WriteCSV(out)
			}
			return writeStructured(out, format, fc.Points())
		},
	}
	dataFlags(cmd)
	cmd.Flags().Int("horizon", 12, "steps to forecast")
	cmd.Flags().StringVar(&format, "format", "csv", "output format (csv, json, yaml)")
	return cmd
}

func (a *app) compareCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "compare FILE",
		Short: "Score several models on the same split",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "text", "json", "yaml"); err != nil {
				return err
			}
			series, _, sampling, err := a.prepareRun(args[0])
			if err != nil {
				return err
			}
			specs, err := a.cfg.CompareSpecs()
			if err != nil {
				return err
			}

			results, err := a.runner.Compare(cmd.Context(), series, specs, a.cfg.Split.Ratio, sampling)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format != "text" {
				reports := make([]report, len(results))
				for i, ev := range results {
					reports[i] = newReport(ev, false)
				}
				return writeStructured(out, format, reports)
			}

			tw := newTable(out, "RANK", "MODEL", "MAE", "R2", "MAPE", "ERROR")
			for i, ev := range results {
				if ev.Err != nil {
					fmt.Fprintf(tw, "-\t%s\t-\t-\t-\t%v\n", ev.Model, ev.Err)
					continue
				}
				m := ev.Metrics.Rounded()
				fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%.2f\t\n", i+1, ev.Model, m.MAE, m.R2, m.MAPE)
			}
			return tw.Flush()
		},
	}
	dataFlags(cmd)
	cmd.Flags().Float64("ratio", 80, "train share of the series in percent")
	cmd.Flags().StringSlice("models", nil, "model kinds to compare (default all)")
	cmd.Flags().Int("parallelism", pipeline.DefaultParallelism, "concurrent fits")
	cmd.Flags().StringVar(&format, "format", "text", "output format (text, json, yaml)")
	return cmd
}

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.log.GetLevel() < logrus.DebugLevel {
				gin.SetMode(gin.ReleaseMode)
			}
			h := httpapi.NewHandlers(a.runner, a.log, httpapi.Options{
				MaxUploadBytes: a.cfg.Server.MaxUploadBytes,
				PreviewRows:    a.cfg.Server.PreviewRows,
			})
			srv := httpapi.NewServer(a.cfg.Server.Addr, httpapi.NewRouter(h))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			serveErr := make(chan error, 1)
			go func() {
				a.log.WithField("addr", srv.Addr).Info("Listening")
				serveErr <- srv.ListenAndServe()
			}()

			select {
			case err := <-serveErr:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.log.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().Int64("max-upload-bytes", 10<<20, "upload size limit")
	cmd.Flags().Int("preview-rows", 20, "rows returned by the table preview")
	return cmd
}

// prepareRun loads the series and resolves the configured model and
// sampling.
func (a *app) prepareRun(path string) (*timeseries.Series, models.Spec, timeseries.Sampling, error) {
	spec, err := a.cfg.Spec()
	if err != nil {
		return nil, nil, nil, err
	}
	sampling, err := a.cfg.Sampling()
	if err != nil {
		return nil, nil, nil, err
	}
	series, err := a.loadSeries(path)
	if err != nil {
		return nil, nil, nil, err
	}
	return series, spec, sampling, nil
}
