package observable

import (
	"github.com/DanielPopoola/ficmart-checkout/internal/lifecycle"
	"github.com/DanielPopoola/ficmart-checkout/internal/looper"
)

// NetworkingState counts outstanding requests and publishes whether any are
// in flight. Observers are only notified when that boolean flips.
type NetworkingState struct {
	loop      *looper.Loop
	count     int
	executing *Observable[bool]
}

func NewNetworkingState(loop *looper.Loop) *NetworkingState {
	return &NetworkingState{
		loop:      loop,
		executing: NewWithValue(loop, false),
	}
}

func (n *NetworkingState) RequestStarted() {
	n.loop.AssertOnLoop("NetworkingState.RequestStarted")
	n.count++
	if n.count == 1 {
		n.executing.SetValue(true)
	}
}

// RequestFinished panics when called more often than RequestStarted.
func (n *NetworkingState) RequestFinished() {
	n.loop.AssertOnLoop("NetworkingState.RequestFinished")
	if n.count == 0 {
		panic("observable: RequestFinished called without a matching RequestStarted")
	}
	n.count--
	if n.count == 0 {
		n.executing.SetValue(false)
	}
}

func (n *NetworkingState) IsExecutingRequests() bool {
	return n.count > 0
}

func (n *NetworkingState) PendingRequests() int {
	return n.count
}

func (n *NetworkingState) Observe(scope *lifecycle.Scope, fn func(executing bool)) lifecycle.Subscription {
	return n.executing.Observe(scope, fn)
}

func (n *NetworkingState) ObserveForever(fn func(executing bool)) lifecycle.Subscription {
	return n.executing.ObserveForever(fn)
}
