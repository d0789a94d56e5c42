package models

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/sartorproj/tsforecast/autoarima"
	"github.com/sartorproj/tsforecast/errs"
	"github.com/sartorproj/tsforecast/stats"
)

// Registry parameter names.
const (
	ParamSeasonLength          = "season_length"
	ParamSeasonLengthSecondary = "season_length_secondary"
	ParamStepwise              = "stepwise"
	ParamCriterion             = "criterion"
	ParamTest                  = "test"
)

// DefaultSeasonLength is used when params omit season_length.
const DefaultSeasonLength = 12

// Param documents one accepted hyperparameter.
type Param struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Default     any    `json:"default" yaml:"default"`
	Description string `json:"description" yaml:"description"`
}

// Info documents one model kind.
type Info struct {
	Kind        Kind    `json:"kind" yaml:"kind"`
	Description string  `json:"description" yaml:"description"`
	Params      []Param `json:"params" yaml:"params"`
}

var seasonParam = Param{
	Name: ParamSeasonLength, Type: "int", Default: DefaultSeasonLength,
	Description: "observations per seasonal cycle",
}

var catalog = map[Kind]Info{
	AutoARIMA: {
		Kind:        AutoARIMA,
		Description: "seasonal ARIMA with automatic order selection",
		Params: []Param{
			seasonParam,
			{Name: ParamStepwise, Type: "bool", Default: true, Description: "stepwise search instead of a grid"},
			{Name: ParamCriterion, Type: "string", Default: string(autoarima.AICc), Description: "aic, aicc or bic"},
			{Name: ParamTest, Type: "string", Default: string(stats.TestKPSS), Description: "unit root test choosing d: kpss or adf"},
		},
	},
	SeasonalNaive: {
		Kind:        SeasonalNaive,
		Description: "repeats the last observed season",
		Params:      []Param{seasonParam},
	},
	HoltWinters: {
		Kind:        HoltWinters,
		Description: "additive Holt-Winters exponential smoothing",
		Params:      []Param{seasonParam},
	},
	HistoricAverage: {
		Kind:        HistoricAverage,
		Description: "mean of the training data",
		Params:      []Param{{Name: ParamSeasonLength, Type: "int", Default: nil, Description: "accepted and ignored"}},
	},
	MSTL: {
		Kind:        MSTL,
		Description: "multiple seasonal-trend decomposition with a Holt trend forecast",
		Params: []Param{
			{Name: ParamSeasonLength, Type: "int or []int", Default: DefaultSeasonLength, Description: "seasonal periods, primary first"},
			{Name: ParamSeasonLengthSecondary, Type: "int", Default: 1, Description: "extra period appended when greater than 1"},
		},
	},
}

// Catalog documents every kind in display order.
func Catalog() []Info {
	out := make([]Info, 0, len(catalog))
	for _, k := range Kinds() {
		out = append(out, catalog[k])
	}
	return out
}

// Build validates params for the named kind and returns its Spec.
// Unknown kinds give an unknown-model error; bad or unexpected parameters
// give a config error.
func Build(name string, params map[string]any) (Spec, error) {
	const op = "models.Build"
	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}

	accepted := make(map[string]bool)
	for _, p := range catalog[kind].Params {
		accepted[p.Name] = true
	}
	for key := range params {
		if !accepted[key] {
			return nil, errs.New(errs.KindConfig, op, "unexpected parameter",
				map[string]any{"model": kind, "param": key, "accepted": sortedKeys(accepted)})
		}
	}

	switch kind {
	case AutoARIMA:
		m, err := seasonLength(op, kind, params)
		if err != nil {
			return nil, err
		}
		spec, err := NewAutoARIMA(m)
		if err != nil {
			return nil, err
		}
		if v, ok := params[ParamStepwise]; ok {
			if spec.Stepwise, err = cast.ToBoolE(v); err != nil {
				return nil, badParam(op, kind, ParamStepwise, v, err)
			}
		}
		if v, ok := params[ParamCriterion]; ok {
			if spec.Criterion, err = autoarima.ParseCriterion(cast.ToString(v)); err != nil {
				return nil, badParam(op, kind, ParamCriterion, v, err)
			}
		}
		if v, ok := params[ParamTest]; ok {
			if spec.Test, err = stats.ParseUnitRootTest(cast.ToString(v)); err != nil {
				return nil, badParam(op, kind, ParamTest, v, err)
			}
		}
		return spec, nil

	case SeasonalNaive:
		m, err := seasonLength(op, kind, params)
		if err != nil {
			return nil, err
		}
		return NewSeasonalNaive(m)

	case HoltWinters:
		m, err := seasonLength(op, kind, params)
		if err != nil {
			return nil, err
		}
		return NewHoltWinters(m)

	case HistoricAverage:
		return NewHistoricAverage(), nil

	default:
		lengths, err := seasonLengths(op, params)
		if err != nil {
			return nil, err
		}
		return NewMSTL(lengths...)
	}
}

func seasonLength(op string, kind Kind, params map[string]any) (int, error) {
	v, ok := params[ParamSeasonLength]
	if !ok {
		return DefaultSeasonLength, nil
	}
	m, err := toPositiveInt(v)
	if err != nil {
		return 0, badParam(op, kind, ParamSeasonLength, v, err)
	}
	return m, nil
}

func seasonLengths(op string, params map[string]any) ([]int, error) {
	raw, ok := params[ParamSeasonLength]
	if !ok {
		raw = DefaultSeasonLength
	}

	items, isList := listItems(raw)
	if !isList {
		items = []any{raw}
	}
	if len(items) == 0 {
		return nil, badParam(op, MSTL, ParamSeasonLength, raw, fmt.Errorf("empty list"))
	}

	// Only the primary period must be positive; NewMSTL drops secondary
	// periods of 1 or less.
	lengths := make([]int, 0, len(items)+1)
	for i, item := range items {
		coerce := toInt
		if i == 0 {
			coerce = toPositiveInt
		}
		m, err := coerce(item)
		if err != nil {
			return nil, badParam(op, MSTL, ParamSeasonLength, raw, err)
		}
		lengths = append(lengths, m)
	}

	if v, ok := params[ParamSeasonLengthSecondary]; ok && v != nil {
		m, err := toInt(v)
		if err != nil {
			return nil, badParam(op, MSTL, ParamSeasonLengthSecondary, v, err)
		}
		lengths = append(lengths, m)
	}
	return lengths, nil
}

// toPositiveInt is toInt restricted to values of at least 1.
func toPositiveInt(v any) (int, error) {
	n, err := toInt(v)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

// toInt accepts integers, integral floats and numeric strings.
func toInt(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, fmt.Errorf("missing value")
	case bool:
		return 0, fmt.Errorf("not an integer: %v", x)
	case float32:
		return toInt(float64(x))
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("not an integer: %v", x)
		}
	case string:
		f, err := cast.ToFloat64E(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", x)
		}
		return toInt(f)
	}
	return cast.ToIntE(v)
}

func listItems(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []int:
		out := make([]any, len(x))
		for i, n := range x {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]any, len(x))
		for i, f := range x {
			out[i] = f
		}
		return out, true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func badParam(op string, kind Kind, key string, value any, cause error) error {
	return errs.Wrap(errs.KindConfig, op, "invalid parameter", cause,
		map[string]any{"model": kind, "param": key, "value": value})
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
