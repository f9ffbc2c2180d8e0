package lifecycle_test

import (
	"context"
	"testing"

	"github.com/DanielPopoola/ficmart-checkout/internal/lifecycle"
	"github.com/DanielPopoola/ficmart-checkout/internal/looper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func onLoop(t *testing.T, loop *looper.Loop, fn func()) {
	t.Helper()
	require.NoError(t, loop.Do(context.Background(), fn))
}

func TestScope_Transitions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop := looper.New()
	loop.Start(ctx)

	var events []string
	var scope *lifecycle.Scope

	onLoop(t, loop, func() {
		scope = lifecycle.NewScope(loop)
		scope.Watch(func(active bool) {
			if active {
				events = append(events, "active")
			} else {
				events = append(events, "inactive")
			}
		}, func() {
			events = append(events, "destroyed")
		})

		scope.Activate()
		scope.Activate()
		scope.Deactivate()
		scope.Activate()
		scope.Destroy()
		scope.Activate()
	})

	assert.Equal(t, []string{"active", "inactive", "active", "inactive", "destroyed"}, events)
	assert.Equal(t, lifecycle.Destroyed, scope.State())
}

func TestScope_CancelledWatcherIsSilent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop := looper.New()
	loop.Start(ctx)

	calls := 0
	onLoop(t, loop, func() {
		scope := lifecycle.NewScope(loop)
		sub := scope.Watch(func(bool) { calls++ }, func() { calls++ })
		sub.Cancel()
		sub.Cancel()

		scope.Activate()
		scope.Destroy()
	})

	assert.Zero(t, calls)
}

func TestScope_WatchAfterDestroy(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop := looper.New()
	loop.Start(ctx)

	destroyed := false
	onLoop(t, loop, func() {
		scope := lifecycle.NewScope(loop)
		scope.Destroy()
		scope.Watch(nil, func() { destroyed = true })
	})

	assert.True(t, destroyed)
}

func TestScope_RequiresLoop(t *testing.T) {
	loop := looper.New()
	scope := lifecycle.NewScope(loop)

	assert.Panics(t, func() { scope.Activate() })
}
