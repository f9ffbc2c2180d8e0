// Package dispatch delivers one-shot results to exactly one active handler.
//
// A Manager keeps at most one pending datum. It is handed to the most recently
// activated handler as soon as one is active, and then forgotten.
package dispatch

import (
	"github.com/DanielPopoola/ficmart-checkout/internal/lifecycle"
	"github.com/DanielPopoola/ficmart-checkout/internal/looper"
)

type registration[H any] struct {
	handler  H
	active   bool
	removed  bool
	scopeSub lifecycle.Subscription
}

type Manager[H any, D any] struct {
	loop      *looper.Loop
	deliver   func(H, D)
	onHandled func()

	data    D
	pending bool

	// most recently activated first
	active []*registration[H]
}

// New creates a manager. deliver hands a datum to a handler; onHandled, when
// not nil, runs after every successful delivery.
func New[H any, D any](loop *looper.Loop, deliver func(H, D), onHandled func()) *Manager[H, D] {
	return &Manager[H, D]{
		loop:      loop,
		deliver:   deliver,
		onHandled: onHandled,
	}
}

// SetData replaces the pending datum and tries to deliver it.
func (m *Manager[H, D]) SetData(d D) {
	m.loop.AssertOnLoop("Manager.SetData")
	m.data = d
	m.pending = true
	m.attemptDispatch()
}

func (m *Manager[H, D]) HasPendingData() bool {
	return m.pending
}

// AddHandler registers h for as long as scope lives. h takes priority over
// previously active handlers whenever its scope becomes active.
func (m *Manager[H, D]) AddHandler(scope *lifecycle.Scope, h H) lifecycle.Subscription {
	m.loop.AssertOnLoop("Manager.AddHandler")
	if scope.IsDestroyed() {
		return lifecycle.SubscriptionFunc(nil)
	}

	reg := &registration[H]{handler: h}
	reg.scopeSub = scope.Watch(
		func(active bool) {
			if active {
				m.activate(reg)
			} else {
				m.deactivate(reg)
			}
		},
		func() { m.remove(reg) },
	)

	if scope.IsActive() {
		m.activate(reg)
	}

	return lifecycle.SubscriptionFunc(func() {
		m.loop.AssertOnLoop("Subscription.Cancel")
		m.remove(reg)
	})
}

func (m *Manager[H, D]) activate(reg *registration[H]) {
	if reg.removed {
		return
	}
	m.deactivate(reg)
	reg.active = true
	m.active = append([]*registration[H]{reg}, m.active...)
	m.attemptDispatch()
}

func (m *Manager[H, D]) deactivate(reg *registration[H]) {
	if !reg.active {
		return
	}
	reg.active = false
	for i, candidate := range m.active {
		if candidate == reg {
			m.active = append(m.active[:i], m.active[i+1:]...)
			return
		}
	}
}

func (m *Manager[H, D]) remove(reg *registration[H]) {
	if reg.removed {
		return
	}
	m.deactivate(reg)
	reg.removed = true
	if reg.scopeSub != nil {
		reg.scopeSub.Cancel()
	}
}

func (m *Manager[H, D]) attemptDispatch() {
	if !m.pending || len(m.active) == 0 {
		return
	}

	target := m.active[0]
	d := m.data
	var zero D
	m.data = zero
	m.pending = false

	m.deliver(target.handler, d)
	if m.onHandled != nil {
		m.onHandled()
	}
}
