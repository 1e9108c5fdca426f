package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/axnav/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := domain.NewError(domain.KindNotFound, "resolve", "Button[Cancel]")
	wrapped := fmt.Errorf("goto failed: %w", err)

	assert.ErrorIs(t, wrapped, domain.ErrNotFound)
	assert.NotErrorIs(t, wrapped, domain.ErrTimeout)
	assert.Equal(t, domain.CategoryLookup, err.Category())
	assert.Equal(t, "resolve: not-found: Button[Cancel]", err.Error())
}

func TestHintFor(t *testing.T) {
	t.Run("default hint by kind", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", domain.NewError(domain.KindPermissionDenied, "apps", ""))
		assert.Contains(t, domain.HintFor(err), "system settings")
	})

	t.Run("explicit hint wins", func(t *testing.T) {
		err := &domain.Error{Kind: domain.KindNotFound, Hint: "look elsewhere"}
		assert.Equal(t, "look elsewhere", domain.HintFor(err))
	})

	t.Run("plain errors carry no hint", func(t *testing.T) {
		assert.Empty(t, domain.HintFor(errors.New("boom")))
	})
}

func TestRetryable(t *testing.T) {
	assert.False(t, domain.Retryable(nil))
	assert.True(t, domain.Retryable(errors.New("transient")))
	assert.True(t, domain.Retryable(domain.NewError(domain.KindTimeout, "children", "")))
	assert.False(t, domain.Retryable(domain.NewError(domain.KindNotFound, "children", "")))
	assert.False(t, domain.Retryable(domain.NewError(domain.KindPermissionDenied, "apps", "")))
	assert.False(t, domain.Retryable(domain.NewError(domain.KindMalformedPath, "resolve", "")))
	assert.False(t, domain.Retryable(domain.WrapError(domain.KindCancelled, "children", context.Canceled)))
}

func TestCombineHooks(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnOperationEnd: func(context.Context, *domain.OperationEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{OnOperationEnd: func(context.Context, *domain.OperationEvent) { calls = append(calls, "b") }}

	hooks := domain.Combine(a, b)
	hooks.EmitStart(context.Background(), &domain.OperationEvent{})
	hooks.EmitEnd(context.Background(), &domain.OperationEvent{})

	assert.Equal(t, []string{"a", "b"}, calls)
}
