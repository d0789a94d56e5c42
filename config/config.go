// Package config loads run settings from defaults, an optional YAML file,
// TSF_ environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/sartorproj/tsforecast/errs"
	"github.com/sartorproj/tsforecast/models"
	"github.com/sartorproj/tsforecast/schema"
	"github.com/sartorproj/tsforecast/timeseries"
)

// EnvPrefix prefixes every environment override, e.g. TSF_SPLIT_RATIO.
const EnvPrefix = "TSF"

type Config struct {
	LogLevel  string         `mapstructure:"log_level" validate:"oneof=trace debug info warn warning error"`
	LogFormat string         `mapstructure:"log_format" validate:"oneof=text json"`
	Data      DataConfig     `mapstructure:"data"`
	Split     SplitConfig    `mapstructure:"split"`
	Model     ModelConfig    `mapstructure:"model"`
	Forecast  ForecastConfig `mapstructure:"forecast"`
	Compare   CompareConfig  `mapstructure:"compare"`
	Server    ServerConfig   `mapstructure:"server"`
}

type DataConfig struct {
	TimeColumn  string `mapstructure:"time_column"`
	ValueColumn string `mapstructure:"value_column"`
	TimeLayout  string `mapstructure:"time_layout"`
	Order       string `mapstructure:"order" validate:"omitempty,oneof=keep sort reject"`
}

type SplitConfig struct {
	Ratio float64 `mapstructure:"ratio" validate:"gt=0,lt=100"`
}

type ModelConfig struct {
	Name                  string `mapstructure:"name" validate:"required,model"`
	SeasonLength          int    `mapstructure:"season_length" validate:"gte=1"`
	SecondarySeasonLength int    `mapstructure:"secondary_season_length" validate:"gte=0"`
	Frequency             string `mapstructure:"frequency" validate:"required,frequency"`
}

type ForecastConfig struct {
	Horizon int `mapstructure:"horizon" validate:"gte=0"`
}

type CompareConfig struct {
	Models      []string `mapstructure:"models" validate:"min=1,dive,model"`
	Parallelism int      `mapstructure:"parallelism" validate:"gte=1"`
}

type ServerConfig struct {
	Addr           string `mapstructure:"addr" validate:"required"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" validate:"gt=0"`
	PreviewRows    int    `mapstructure:"preview_rows" validate:"gte=0"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("model", func(fl validator.FieldLevel) bool {
		_, err := models.ParseKind(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		_, err := timeseries.ParseFrequency(fl.Field().String())
		return err == nil
	})
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("data.time_column", "")
	v.SetDefault("data.value_column", "")
	v.SetDefault("data.time_layout", "")
	v.SetDefault("data.order", "keep")

	v.SetDefault("split.ratio", 80.0)

	v.SetDefault("model.name", string(models.AutoARIMA))
	v.SetDefault("model.season_length", models.DefaultSeasonLength)
	v.SetDefault("model.secondary_season_length", 0)
	v.SetDefault("model.frequency", string(timeseries.Monthly))

	v.SetDefault("forecast.horizon", 12)

	kinds := make([]string, 0, len(models.Kinds()))
	for _, k := range models.Kinds() {
		kinds = append(kinds, string(k))
	}
	v.SetDefault("compare.models", kinds)
	v.SetDefault("compare.parallelism", 4)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_upload_bytes", int64(10<<20))
	v.SetDefault("server.preview_rows", 20)
}

// Load builds a Config from v. A non-empty path names a YAML file that must
// exist. Flags should be bound to v before calling Load.
func Load(v *viper.Viper, path string) (*Config, error) {
	const op = "config.Load"

	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.Wrap(errs.KindConfig, op, "cannot read config file", err,
				map[string]any{"file": path})
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(errs.KindConfig, op, "cannot decode config", err, nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints. An unrecognised model name is an
// unknown-model error; every other failure is a config error.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		kind := errs.KindConfig
		if fe.Tag() == "model" {
			kind = errs.KindUnknownModel
		}
		return errs.Wrap(kind, "config.Validate",
			fmt.Sprintf("invalid value for %s", fe.Namespace()), err,
			map[string]any{"field": fe.Namespace(), "rule": fe.Tag(), "value": fe.Value()})
	}
	return errs.Wrap(errs.KindConfig, "config.Validate", "invalid config", err, nil)
}

// Sampling returns the configured frequency as a one-entry sampling list.
func (c *Config) Sampling() (timeseries.Sampling, error) {
	f, err := timeseries.ParseFrequency(c.Model.Frequency)
	if err != nil {
		return nil, err
	}
	return timeseries.Sampling{f}, nil
}

// SchemaOptions returns the normalization options.
func (c *Config) SchemaOptions() (schema.Options, error) {
	order, err := schema.ParseOrder(c.Data.Order)
	if err != nil {
		return schema.Options{}, err
	}
	freq, err := timeseries.ParseFrequency(c.Model.Frequency)
	if err != nil {
		return schema.Options{}, err
	}
	return schema.Options{Order: order, TimeLayout: c.Data.TimeLayout, IndexFrequency: freq}, nil
}

// ModelParams returns the registry parameters for model name. The secondary
// season length only applies to MSTL.
func (c *Config) ModelParams(name string) map[string]any {
	params := map[string]any{models.ParamSeasonLength: c.Model.SeasonLength}
	if kind, err := models.ParseKind(name); err == nil && kind == models.MSTL && c.Model.SecondarySeasonLength > 0 {
		params[models.ParamSeasonLengthSecondary] = c.Model.SecondarySeasonLength
	}
	return params
}

// Spec builds the configured model.
func (c *Config) Spec() (models.Spec, error) {
	return models.Build(c.Model.Name, c.ModelParams(c.Model.Name))
}

// CompareSpecs builds every model listed under compare.models.
func (c *Config) CompareSpecs() ([]models.Spec, error) {
	specs := make([]models.Spec, 0, len(c.Compare.Models))
	for _, name := range c.Compare.Models {
		spec, err := models.Build(name, c.ModelParams(name))
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// NewLogger returns a logger writing to out at the configured level and
// format.
func (c *Config) NewLogger(out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfig, "config.NewLogger", "invalid log level", err,
			map[string]any{"log_level": c.LogLevel})
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
