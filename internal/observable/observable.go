// Package observable implements a versioned single-value channel bound to a
// scope's activation state. Observers see only the latest value; each
// observer receives a given version at most once.
package observable

import (
	"github.com/DanielPopoola/ficmart-checkout/internal/lifecycle"
	"github.com/DanielPopoola/ficmart-checkout/internal/looper"
)

const noVersion = -1

type observer[T any] struct {
	fn          func(T)
	active      bool
	removed     bool
	lastVersion int
	scopeSub    lifecycle.Subscription
}

type Observable[T any] struct {
	loop      *looper.Loop
	value     T
	version   int
	observers []*observer[T]

	dispatching bool
	invalidated bool
}

// New returns an observable with nothing to deliver yet.
func New[T any](loop *looper.Loop) *Observable[T] {
	return &Observable[T]{loop: loop, version: noVersion}
}

// NewWithValue returns an observable holding v at version 0.
func NewWithValue[T any](loop *looper.Loop, v T) *Observable[T] {
	return &Observable[T]{loop: loop, value: v}
}

// Value returns the current value and whether one has ever been set.
func (o *Observable[T]) Value() (T, bool) {
	return o.value, o.version != noVersion
}

func (o *Observable[T]) Version() int {
	return o.version
}

// SetValue replaces the value and dispatches it synchronously. Setting an
// equal value still bumps the version.
func (o *Observable[T]) SetValue(v T) {
	o.loop.AssertOnLoop("Observable.SetValue")
	o.version++
	o.value = v
	o.dispatch(nil)
}

// PostValue marshals SetValue onto the loop. Safe from any goroutine.
func (o *Observable[T]) PostValue(v T) {
	o.loop.Post(func() { o.SetValue(v) })
}

// Observe delivers values to fn while scope is active. The latest value is
// delivered once on each activation if fn has not seen it yet.
func (o *Observable[T]) Observe(scope *lifecycle.Scope, fn func(T)) lifecycle.Subscription {
	o.loop.AssertOnLoop("Observable.Observe")
	if scope.IsDestroyed() {
		return lifecycle.SubscriptionFunc(nil)
	}

	obs := &observer[T]{fn: fn, lastVersion: noVersion}
	o.observers = append(o.observers, obs)
	obs.scopeSub = scope.Watch(
		func(active bool) { o.activeStateChanged(obs, active) },
		func() { o.remove(obs) },
	)

	if scope.IsActive() {
		o.activeStateChanged(obs, true)
	}

	return lifecycle.SubscriptionFunc(func() {
		o.loop.AssertOnLoop("Subscription.Cancel")
		o.remove(obs)
	})
}

// ObserveForever delivers values to fn until the subscription is cancelled.
func (o *Observable[T]) ObserveForever(fn func(T)) lifecycle.Subscription {
	o.loop.AssertOnLoop("Observable.ObserveForever")

	obs := &observer[T]{fn: fn, lastVersion: noVersion}
	o.observers = append(o.observers, obs)
	o.activeStateChanged(obs, true)

	return lifecycle.SubscriptionFunc(func() {
		o.loop.AssertOnLoop("Subscription.Cancel")
		o.remove(obs)
	})
}

func (o *Observable[T]) activeStateChanged(obs *observer[T], active bool) {
	if obs.removed || obs.active == active {
		return
	}
	obs.active = active
	if active {
		o.dispatch(obs)
	}
}

func (o *Observable[T]) remove(obs *observer[T]) {
	if obs.removed {
		return
	}
	obs.removed = true
	obs.active = false
	if obs.scopeSub != nil {
		obs.scopeSub.Cancel()
	}
	for i, candidate := range o.observers {
		if candidate == obs {
			o.observers = append(o.observers[:i], o.observers[i+1:]...)
			break
		}
	}
}

// dispatch notifies initiator only, or every observer when initiator is nil.
// A nested dispatch marks the running pass invalid and the outer loop starts
// over with the newest value.
func (o *Observable[T]) dispatch(initiator *observer[T]) {
	if o.dispatching {
		o.invalidated = true
		return
	}
	o.dispatching = true
	defer func() { o.dispatching = false }()

	for {
		o.invalidated = false
		if initiator != nil {
			o.considerNotify(initiator)
			initiator = nil
		} else {
			for _, obs := range append([]*observer[T](nil), o.observers...) {
				o.considerNotify(obs)
				if o.invalidated {
					break
				}
			}
		}
		if !o.invalidated {
			return
		}
	}
}

func (o *Observable[T]) considerNotify(obs *observer[T]) {
	if obs.removed || !obs.active {
		return
	}
	if o.version == noVersion || obs.lastVersion >= o.version {
		return
	}
	obs.lastVersion = o.version
	obs.fn(o.value)
}
