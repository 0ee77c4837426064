package services

import (
	"context"
	"sync"
)

// View is the ticket of one in-flight view of a scope (a chat, a CLI run).
type View struct {
	scope string
	epoch uint64
}

// ViewTracker lets a newer view of a scope supersede an older one: starting
// a view cancels the previous view's context, and results of a superseded
// view can be recognised and dropped.
type ViewTracker struct {
	mu     sync.Mutex
	epochs map[string]uint64
	cancel map[string]context.CancelFunc
}

func NewViewTracker() *ViewTracker {
	return &ViewTracker{
		epochs: make(map[string]uint64),
		cancel: make(map[string]context.CancelFunc),
	}
}

func (vt *ViewTracker) Begin(parent context.Context, scope string) (context.Context, View) {
	ctx, cancel := context.WithCancel(parent)

	vt.mu.Lock()
	defer vt.mu.Unlock()

	if prev, ok := vt.cancel[scope]; ok {
		prev()
	}
	vt.epochs[scope]++
	vt.cancel[scope] = cancel
	return ctx, View{scope: scope, epoch: vt.epochs[scope]}
}

// IsCurrent reports whether no newer view of the scope has begun.
func (vt *ViewTracker) IsCurrent(v View) bool {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	return vt.epochs[v.scope] == v.epoch
}

// End releases the view's context. Ending a superseded view is a no-op for
// the newer one.
func (vt *ViewTracker) End(v View) {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	if vt.epochs[v.scope] != v.epoch {
		return
	}
	if cancel, ok := vt.cancel[v.scope]; ok {
		cancel()
		delete(vt.cancel, v.scope)
	}
}
