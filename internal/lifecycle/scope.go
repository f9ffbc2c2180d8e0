// Package lifecycle models the activation state of a host surface. A Scope
// moves between inactive and active any number of times and ends destroyed.
package lifecycle

import "github.com/DanielPopoola/ficmart-checkout/internal/looper"

type State int

const (
	Inactive State = iota
	Active
	Destroyed
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Subscription is a handle for an explicit unsubscribe.
type Subscription interface {
	Cancel()
}

// SubscriptionFunc adapts a plain function to Subscription.
type SubscriptionFunc func()

func (f SubscriptionFunc) Cancel() {
	if f != nil {
		f()
	}
}

type watcher struct {
	onChange  func(active bool)
	onDestroy func()
	removed   bool
}

// Scope is owned by a loop; every method must be called from it.
type Scope struct {
	loop     *looper.Loop
	state    State
	watchers []*watcher
}

func NewScope(loop *looper.Loop) *Scope {
	return &Scope{loop: loop}
}

func (s *Scope) State() State {
	return s.state
}

func (s *Scope) IsActive() bool {
	return s.state == Active
}

func (s *Scope) IsDestroyed() bool {
	return s.state == Destroyed
}

func (s *Scope) Activate() {
	s.loop.AssertOnLoop("Scope.Activate")
	s.transition(Active)
}

func (s *Scope) Deactivate() {
	s.loop.AssertOnLoop("Scope.Deactivate")
	s.transition(Inactive)
}

// Destroy deactivates the scope and releases every watcher. A destroyed scope
// cannot be reactivated.
func (s *Scope) Destroy() {
	s.loop.AssertOnLoop("Scope.Destroy")
	if s.state == Destroyed {
		return
	}
	s.transition(Inactive)
	s.state = Destroyed

	watchers := s.watchers
	s.watchers = nil
	for _, w := range watchers {
		if w.removed {
			continue
		}
		w.removed = true
		if w.onDestroy != nil {
			w.onDestroy()
		}
	}
}

func (s *Scope) transition(next State) {
	if s.state == Destroyed || s.state == next {
		return
	}
	s.state = next
	active := next == Active

	for _, w := range append([]*watcher(nil), s.watchers...) {
		if w.removed || w.onChange == nil {
			continue
		}
		w.onChange(active)
		if s.state != next {
			// a watcher changed the state again; the nested transition already notified everyone
			return
		}
	}
}

// Watch registers callbacks for activation changes and destruction. Watching a
// destroyed scope calls onDestroy immediately.
func (s *Scope) Watch(onChange func(active bool), onDestroy func()) Subscription {
	s.loop.AssertOnLoop("Scope.Watch")
	if s.state == Destroyed {
		if onDestroy != nil {
			onDestroy()
		}
		return SubscriptionFunc(nil)
	}

	w := &watcher{onChange: onChange, onDestroy: onDestroy}
	s.watchers = append(s.watchers, w)

	return SubscriptionFunc(func() {
		if w.removed {
			return
		}
		w.removed = true
		for i, candidate := range s.watchers {
			if candidate == w {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
	})
}
