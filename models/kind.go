// Package models is the registry of forecasting model kinds.
//
// A Spec is a validated, immutable description of one model kind and its
// hyperparameters. The set of kinds is closed: Spec can only be implemented
// inside this package. Each Spec builds fresh Estimators, so one Spec can be
// fitted many times, concurrently, on different data.
package models

import (
	"strings"

	"github.com/sartorproj/tsforecast/errs"
)

// Kind names a model family.
type Kind string

const (
	AutoARIMA       Kind = "AutoARIMA"
	SeasonalNaive   Kind = "SeasonalNaive"
	HoltWinters     Kind = "HoltWinters"
	HistoricAverage Kind = "HistoricAverage"
	MSTL            Kind = "MSTL"
)

// Kinds returns every supported kind in display order.
func Kinds() []Kind {
	return []Kind{AutoARIMA, SeasonalNaive, HoltWinters, HistoricAverage, MSTL}
}

// ParseKind matches name case-insensitively against the supported kinds.
func ParseKind(name string) (Kind, error) {
	trimmed := strings.TrimSpace(name)
	for _, k := range Kinds() {
		if strings.EqualFold(string(k), trimmed) {
			return k, nil
		}
	}
	return "", errs.New(errs.KindUnknownModel, "models.ParseKind", "unsupported model kind",
		map[string]any{"model": name, "supported": Kinds()})
}
