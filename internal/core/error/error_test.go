package errx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapModelIsTransient(t *testing.T) {
	err := WrapModel(context.DeadlineExceeded)

	assert.ErrorIs(t, err, ErrTransient)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrStructural)
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(err))
	assert.Equal(t, ModelErrorMessage, SafeMessage(err))
}

func TestStructuralSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("commit: %w", Structural("tool call %q answered twice", "call_1"))

	assert.ErrorIs(t, err, ErrStructural)
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Contains(t, err.Error(), "call_1")
}

func TestIterationLimit(t *testing.T) {
	err := IterationLimit(3)

	assert.ErrorIs(t, err, ErrIterationLimit)
	assert.Equal(t, http.StatusLoopDetected, StatusOf(err))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, WrapRedis(nil))
	assert.NoError(t, WrapModel(nil))
}

func TestUnknownErrorFallbacks(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Equal(t, SystemErrorMessage, SafeMessage(err))
}
