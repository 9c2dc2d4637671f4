package navigation

import (
	"sync"
)

// Navigator performs the forced redirect to the login entry point after an
// unrecoverable authentication failure.
type Navigator interface {
	ToLogin(reason error)
}

// Func adapts a plain function to a Navigator.
type Func func(reason error)

func (f Func) ToLogin(reason error) { f(reason) }

// Nop ignores every redirect.
var Nop Navigator = Func(func(error) {})

// Recorder records redirects so tests can assert on them.
type Recorder struct {
	mu      sync.Mutex
	reasons []error
}

func (r *Recorder) ToLogin(reason error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reasons)
}

func (r *Recorder) Reasons() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.reasons...)
}

// Chain calls every navigator in order.
func Chain(navigators ...Navigator) Navigator {
	return Func(func(reason error) {
		for _, n := range navigators {
			n.ToLogin(reason)
		}
	})
}
