package mctl

import (
	"context"
	"time"
)

// Context carries request scoped data through the handler stack. The host
// sets the block height and block time before dispatching, each extension may
// add its own keys to enrich the context with specific data.
//
// There exist two functions for every value of type T supported in Context:
//
//   WithXYZ(Context, T) Context
//   XYZ(Context) (val T, ok bool)
type Context = context.Context

type contextKey int

const (
	contextKeyHeight contextKey = iota
	contextKeyBlockTime
)

// WithHeight sets the block height for the execution context.
func WithHeight(ctx Context, height int64) Context {
	return context.WithValue(ctx, contextKeyHeight, height)
}

// GetHeight returns the block height previously set on this context.
func GetHeight(ctx Context) (int64, bool) {
	val, ok := ctx.Value(contextKeyHeight).(int64)
	return val, ok
}

// WithBlockTime sets the "now" moment for the execution context. The host
// must set the same value for every operation within one atomic step.
func WithBlockTime(ctx Context, t time.Time) Context {
	return context.WithValue(ctx, contextKeyBlockTime, t)
}

// BlockTime returns the block time previously set on this context.
func BlockTime(ctx Context) (time.Time, bool) {
	val, ok := ctx.Value(contextKeyBlockTime).(time.Time)
	return val, ok
}

// IsExpired returns true if given time is in the past as compared to the
// "now" as declared for the block. Expiration is inclusive, meaning that if
// current time is equal to the expiration time than this function returns
// true.
func IsExpired(ctx Context, t UnixTime) bool {
	now, ok := BlockTime(ctx)
	if !ok {
		// An engine without a clock must treat nothing as expired.
		return false
	}
	return t.Elapsed(AsUnixTime(now))
}
