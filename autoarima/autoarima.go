// Package autoarima implements automatic seasonal ARIMA model selection.
package autoarima

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sartorproj/tsforecast/arima"
	"github.com/sartorproj/tsforecast/stats"
	"github.com/sartorproj/tsforecast/timeseries"
)

// ErrNoModel is returned when no candidate order could be fitted.
var ErrNoModel = errors.New("no candidate model could be fitted")

// Criterion selects the information criterion minimised by the search.
type Criterion string

const (
	AIC  Criterion = "aic"
	AICc Criterion = "aicc"
	BIC  Criterion = "bic"
)

// ParseCriterion maps a case-insensitive name to a Criterion.
func ParseCriterion(s string) (Criterion, error) {
	switch c := Criterion(strings.ToLower(strings.TrimSpace(s))); c {
	case AIC, AICc, BIC:
		return c, nil
	case "":
		return AICc, nil
	}
	return "", fmt.Errorf("unknown information criterion %q", s)
}

func (c Criterion) score(m *arima.Model) float64 {
	switch c {
	case AIC:
		return m.AIC
	case BIC:
		return m.BIC
	default:
		return m.AICc
	}
}

// Config holds configuration for the order search.
type Config struct {
	MaxP         int                // maximum AR order
	MaxD         int                // maximum differencing order
	MaxQ         int                // maximum MA order
	MaxSP        int                // maximum seasonal AR order
	MaxSD        int                // maximum seasonal differencing order
	MaxSQ        int                // maximum seasonal MA order
	MaxOrder     int                // maximum p+q+P+Q in a grid search
	SeasonLength int                // seasonal period, 1 for non-seasonal
	Stepwise     bool               // stepwise search instead of a grid
	Criterion    Criterion          // defaults to AICc
	Test         stats.UnitRootTest // picks d; defaults to KPSS
}

// DefaultConfig returns the default search configuration for the given
// season length.
func DefaultConfig(seasonLength int) *Config {
	return &Config{
		MaxP:         5,
		MaxD:         2,
		MaxQ:         5,
		MaxSP:        2,
		MaxSD:        1,
		MaxSQ:        2,
		MaxOrder:     5,
		SeasonLength: seasonLength,
		Stepwise:     true,
		Criterion:    AICc,
		Test:         stats.TestKPSS,
	}
}

// Result is the selected model and search bookkeeping.
type Result struct {
	Model           *arima.Model
	Order           arima.Order
	Score           float64 // criterion value of Model
	ModelsEvaluated int
}

// Predict forecasts steps ahead with the selected model.
func (r *Result) Predict(steps int) ([]float64, error) {
	return r.Model.Predict(steps)
}

// Residuals returns the residuals of the selected model.
func (r *Result) Residuals() []float64 {
	return r.Model.Residuals()
}

// Search selects an order for series and returns the fitted model. The
// seasonal part is considered only when the series holds two full seasons.
// ctx is checked before every candidate fit.
func Search(ctx context.Context, series *timeseries.Series, cfg *Config) (*Result, error) {
	if cfg == nil {
		cfg = DefaultConfig(1)
	}
	values := series.Values

	m := cfg.SeasonLength
	if m < 2 || len(values) < 2*m {
		m = 1
	}

	sd := 0
	if m > 1 {
		sd = stats.NSDiffs(values, m, cfg.MaxSD)
	}
	seasonallyDifferenced := series
	for i := 0; i < sd; i++ {
		seasonallyDifferenced = seasonallyDifferenced.SeasonalDiff(m)
	}
	d := stats.NDiffs(seasonallyDifferenced.Values, cfg.MaxD, cfg.Test)

	s := &searcher{
		ctx:    ctx,
		values: values,
		cfg:    cfg,
		tried:  make(map[arima.Order]bool),
		result: &Result{Score: math.Inf(1)},
	}

	base := arima.Order{D: d, SD: sd, M: m}
	var err error
	if cfg.Stepwise {
		err = s.stepwise(base)
	} else {
		err = s.grid(base)
	}
	if err != nil {
		return nil, err
	}
	if s.result.Model == nil {
		return nil, fmt.Errorf("%w: %d points, d=%d, D=%d, m=%d", ErrNoModel, len(values), d, sd, m)
	}
	return s.result, nil
}

type searcher struct {
	ctx    context.Context
	values []float64
	cfg    *Config
	tried  map[arima.Order]bool
	result *Result
}

// try fits o once and reports whether it became the best model.
func (s *searcher) try(o arima.Order) (bool, error) {
	if err := s.ctx.Err(); err != nil {
		return false, err
	}
	if o.M < 2 {
		o.SP, o.SQ = 0, 0
	}
	if s.tried[o] || !s.withinBounds(o) {
		return false, nil
	}
	s.tried[o] = true

	model := arima.NewWithOrder(o)
	if err := model.FitValues(s.values); err != nil {
		return false, nil
	}
	s.result.ModelsEvaluated++

	score := s.cfg.Criterion.score(model)
	if math.IsNaN(score) || score >= s.result.Score {
		return false, nil
	}
	s.result.Model, s.result.Order, s.result.Score = model, model.Order, score
	return true, nil
}

func (s *searcher) withinBounds(o arima.Order) bool {
	c := s.cfg
	return o.P >= 0 && o.Q >= 0 && o.SP >= 0 && o.SQ >= 0 &&
		o.P <= c.MaxP && o.Q <= c.MaxQ && o.SP <= c.MaxSP && o.SQ <= c.MaxSQ
}

// stepwise runs the Hyndman-Khandakar search: a few starting orders, then
// moves to the best neighbour until none improves.
func (s *searcher) stepwise(base arima.Order) error {
	with := func(p, q, sp, sq int) arima.Order {
		o := base
		o.P, o.Q, o.SP, o.SQ = p, q, sp, sq
		return o
	}

	starts := []arima.Order{
		with(2, 2, 1, 1),
		with(0, 0, 0, 0),
		with(1, 0, 1, 0),
		with(0, 1, 0, 1),
	}
	for _, o := range starts {
		if _, err := s.try(o); err != nil {
			return err
		}
	}
	if s.result.Model == nil {
		return nil
	}

	for {
		best := s.result.Order
		improved := false
		for _, delta := range neighbours {
			o := with(best.P+delta[0], best.Q+delta[1], best.SP+delta[2], best.SQ+delta[3])
			better, err := s.try(o)
			if err != nil {
				return err
			}
			improved = improved || better
		}
		if !improved {
			return nil
		}
	}
}

// neighbours are the (p, q, P, Q) moves of one stepwise round.
var neighbours = [][4]int{
	{1, 0, 0, 0}, {-1, 0, 0, 0},
	{0, 1, 0, 0}, {0, -1, 0, 0},
	{1, 1, 0, 0}, {-1, -1, 0, 0},
	{0, 0, 1, 0}, {0, 0, -1, 0},
	{0, 0, 0, 1}, {0, 0, 0, -1},
	{0, 0, 1, 1}, {0, 0, -1, -1},
}

// grid fits every order with p+q+P+Q <= MaxOrder.
func (s *searcher) grid(base arima.Order) error {
	maxSP, maxSQ := s.cfg.MaxSP, s.cfg.MaxSQ
	if base.M < 2 {
		maxSP, maxSQ = 0, 0
	}
	for p := 0; p <= s.cfg.MaxP; p++ {
		for q := 0; q <= s.cfg.MaxQ; q++ {
			for sp := 0; sp <= maxSP; sp++ {
				for sq := 0; sq <= maxSQ; sq++ {
					if p+q+sp+sq > s.cfg.MaxOrder {
						continue
					}
					o := base
					o.P, o.Q, o.SP, o.SQ = p, q, sp, sq
					if _, err := s.try(o); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
