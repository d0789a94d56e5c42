// Package errs defines the error kinds reported by the forecasting pipeline.
//
// Every stage returns an *Error whose Kind says which class of failure
// happened and whose Details carry the offending inputs (file name, column,
// model kind, parameter values). Match on the kind with errors.Is:
//
//	if errors.Is(err, errs.ErrFit) {
//	    // retry with different parameters
//	}
package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindIngestion
	KindSchema
	KindConfig
	KindUnknownModel
	KindFit
	KindAlignment
	KindDegenerateMetric
)

// Sentinels for errors.Is matching. An *Error matches the sentinel of its Kind.
var (
	ErrIngestion        = errors.New("ingestion error")
	ErrSchema           = errors.New("schema error")
	ErrConfig           = errors.New("config error")
	ErrUnknownModel     = errors.New("unknown model")
	ErrFit              = errors.New("fit error")
	ErrAlignment        = errors.New("alignment error")
	ErrDegenerateMetric = errors.New("degenerate metric")
)

var sentinels = map[Kind]error{
	KindIngestion:        ErrIngestion,
	KindSchema:           ErrSchema,
	KindConfig:           ErrConfig,
	KindUnknownModel:     ErrUnknownModel,
	KindFit:              ErrFit,
	KindAlignment:        ErrAlignment,
	KindDegenerateMetric: ErrDegenerateMetric,
}

// String returns the kind name.
func (k Kind) String() string {
	if s, ok := sentinels[k]; ok {
		return s.Error()
	}
	return "unknown error"
}

// Error is a pipeline failure with the inputs that caused it.
type Error struct {
	Kind    Kind
	Op      string         // operation that failed, e.g. "ingest.Read"
	Msg     string         // human-readable cause
	Details map[string]any // offending inputs
	Err     error          // underlying cause, may be nil
}

// New creates an *Error without an underlying cause.
func New(kind Kind, op, msg string, details map[string]any) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Details: details}
}

// Wrap creates an *Error around cause.
func Wrap(kind Kind, op, msg string, cause error, details map[string]any) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Details: details, Err: cause}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Details[k])
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
