package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sartorproj/tsforecast/config"
	"github.com/sartorproj/tsforecast/errs"
	"github.com/sartorproj/tsforecast/pipeline"
	"github.com/sartorproj/tsforecast/timeseries"
)

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"log-level":               "log_level",
	"log-format":              "log_format",
	"x":                       "data.time_column",
	"y":                       "data.value_column",
	"time-layout":             "data.time_layout",
	"order":                   "data.order",
	"ratio":                   "split.ratio",
	"model":                   "model.name",
	"season-length":           "model.season_length",
	"secondary-season-length": "model.secondary_season_length",
	"freq":                    "model.frequency",
	"horizon":                 "forecast.horizon",
	"models":                  "compare.models",
	"parallelism":             "compare.parallelism",
	"addr":                    "server.addr",
	"max-upload-bytes":        "server.max_upload_bytes",
	"preview-rows":            "server.preview_rows",
}

// app holds what a command invocation resolved before running.
type app struct {
	v          *viper.Viper
	configPath string
	logOut     io.Writer

	cfg    *config.Config
	log    *logrus.Logger
	runner *pipeline.Runner
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), logOut: stderr}

	root := &cobra.Command{
		Use:           "tsforecast",
		Short:         "Validate and run univariate forecasting models",
		Long:          "tsforecast reads a delimited file, splits it into train and test\npartitions, scores a model on the test partition and projects future values.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML config file")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")

	root.AddCommand(
		a.modelsCommand(),
		a.inspectCommand(),
		a.evaluateCommand(),
		a.forecastCommand(),
		a.compareCommand(),
		a.serveCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	var bindErr error
	bind := func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = a.v.BindPFlag(key, f)
		}
	}
	cmd.Flags().VisitAll(bind)
	cmd.InheritedFlags().VisitAll(bind)
	if bindErr != nil {
		return fmt.Errorf("failed to bind flags: %w", bindErr)
	}

	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger(a.logOut)
	if err != nil {
		return err
	}

	a.cfg, a.log = cfg, logger
	a.runner = pipeline.New(logger, cfg.Compare.Parallelism)
	return nil
}

// dataFlags registers the flags shared by commands that read a series.
func dataFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("x", "", "timestamp column")
	f.String("y", "", "value column")
	f.String("time-layout", "", "Go time layout tried before the built-in ones")
	f.String("order", "keep", "row order handling (keep, sort, reject)")
	f.String("model", "AutoARIMA", "model kind")
	f.Int("season-length", 12, "observations per season")
	f.Int("secondary-season-length", 0, "second MSTL season length (0 for none)")
	f.String("freq", string(timeseries.Monthly), "sampling frequency")
}

// loadSeries reads path and normalizes it with the configured columns.
func (a *app) loadSeries(path string) (*timeseries.Series, error) {
	if a.cfg.Data.TimeColumn == "" || a.cfg.Data.ValueColumn == "" {
		return nil, errs.New(errs.KindConfig, "tsforecast", "both --x and --y are required",
			map[string]any{"x": a.cfg.Data.TimeColumn, "y": a.cfg.Data.ValueColumn})
	}
	table, err := a.runner.Load(path)
	if err != nil {
		return nil, err
	}
	opts, err := a.cfg.SchemaOptions()
	if err != nil {
		return nil, err
	}
	return a.runner.Prepare(table, a.cfg.Data.TimeColumn, a.cfg.Data.ValueColumn, opts)
}
