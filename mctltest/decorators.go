package mctltest

import "github.com/tillage-one/mctl"

// Decorator is an mctl.Decorator implementation for tests. Every call is
// counted. Unless the matching error attribute is set, the call is passed
// through to the wrapped handler and its result returned.
type Decorator struct {
	checkCall int
	// CheckErr if set is returned by Check without calling the wrapped
	// handler.
	CheckErr error

	deliverCall int
	// DeliverErr if set is returned by Deliver without calling the
	// wrapped handler.
	DeliverErr error
}

var _ mctl.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx, next mctl.Checker) (mctl.CheckResult, error) {
	d.checkCall++
	if d.CheckErr != nil {
		return mctl.CheckResult{}, d.CheckErr
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx, next mctl.Deliverer) (mctl.DeliverResult, error) {
	d.deliverCall++
	if d.DeliverErr != nil {
		return mctl.DeliverResult{}, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}

func (d *Decorator) CheckCallCount() int {
	return d.checkCall
}

func (d *Decorator) DeliverCallCount() int {
	return d.deliverCall
}

// Decorate binds a decorator to a handler so that the pair can be used
// anywhere a plain handler is expected.
func Decorate(h mctl.Handler, d mctl.Decorator) mctl.Handler {
	return &decoratedHandler{hn: h, dc: d}
}

type decoratedHandler struct {
	hn mctl.Handler
	dc mctl.Decorator
}

var _ mctl.Handler = (*decoratedHandler)(nil)

func (d *decoratedHandler) Check(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (mctl.CheckResult, error) {
	return d.dc.Check(ctx, db, tx, d.hn)
}

func (d *decoratedHandler) Deliver(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (mctl.DeliverResult, error) {
	return d.dc.Deliver(ctx, db, tx, d.hn)
}

// Handler is an mctl.Handler implementation for tests. It counts calls and
// returns the configured results.
type Handler struct {
	checkCall int
	// CheckResult is returned by every Check call.
	CheckResult mctl.CheckResult
	// CheckErr if set is returned by every Check call.
	CheckErr error

	deliverCall int
	// DeliverResult is returned by every Deliver call.
	DeliverResult mctl.DeliverResult
	// DeliverErr if set is returned by every Deliver call.
	DeliverErr error
}

var _ mctl.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (mctl.CheckResult, error) {
	h.checkCall++
	return h.CheckResult, h.CheckErr
}

func (h *Handler) Deliver(ctx mctl.Context, db mctl.KVStore, tx mctl.Tx) (mctl.DeliverResult, error) {
	h.deliverCall++
	return h.DeliverResult, h.DeliverErr
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}
