package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesKindSentinel(t *testing.T) {
	err := New(KindSchema, "schema.Normalize", "column not found", map[string]any{"column": "sales"})

	assert.ErrorIs(t, err, ErrSchema)
	assert.NotErrorIs(t, err, ErrConfig)
	assert.Equal(t, KindSchema, KindOf(err))
}

func TestErrorMessageListsDetailsSorted(t *testing.T) {
	err := New(KindConfig, "models.Build", "season_length must be positive",
		map[string]any{"season_length": -1, "model": "AutoARIMA"})

	assert.Equal(t,
		"models.Build: config error: season_length must be positive (model=AutoARIMA, season_length=-1)",
		err.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(KindFit, "forecast.Fit", "training failed", context.Canceled, nil)
	wrapped := fmt.Errorf("evaluate: %w", err)

	assert.ErrorIs(t, wrapped, ErrFit)
	assert.ErrorIs(t, wrapped, context.Canceled)
	assert.Equal(t, KindFit, KindOf(wrapped))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, "unknown error", KindUnknown.String())
}
