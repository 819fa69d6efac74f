package mctltest

import (
	"context"
	"fmt"
	"time"

	"github.com/tillage-one/mctl"
)

// SequenceAddress returns a deterministic address derived from the given
// index. Calling it twice with the same index returns the same address.
func SequenceAddress(i int) mctl.Address {
	return mctl.NewAddress([]byte(fmt.Sprintf("address-%d", i)))
}

// Ctx returns an execution context with the block clock set to the given
// moment and the height to 1.
func Ctx(now time.Time) mctl.Context {
	ctx := mctl.WithHeight(context.Background(), 1)
	return mctl.WithBlockTime(ctx, now)
}

// Router is a minimal handler registry for tests. It dispatches by exact
// path match and fails on duplicate registration.
type Router struct {
	handlers map[string]mctl.Handler
}

var _ mctl.Registry = (*Router)(nil)

func NewRouter() *Router {
	return &Router{handlers: make(map[string]mctl.Handler)}
}

func (r *Router) Handle(path string, h mctl.Handler) {
	if _, ok := r.handlers[path]; ok {
		panic(fmt.Sprintf("double registration of path %q", path))
	}
	r.handlers[path] = h
}

// Handler returns the handler registered for the path, or nil.
func (r *Router) Handler(path string) mctl.Handler {
	return r.handlers[path]
}
