package render

import (
	"sync"
	"time"

	"termdeck/log"
)

// Pool is the bounded accelerated-render context pool. One Pool exists per
// process, constructed at startup from the prober's verdict and torn down
// with ReleaseAll at exit.
//
// Sessions move through three states relative to the pool: unregistered,
// registered without a context, and registered holding a context. Acquire
// grants immediately while capacity remains and otherwise evicts the
// least-recently-used holder first. A session is never left unusable: every
// failure mode here degrades to "no accelerated context", which callers must
// treat as the normal fallback rendering state.
//
// All state is guarded by mu because loss notifications arrive from backend
// goroutines, not from the UI loop.
type Pool struct {
	mu sync.Mutex

	// supported and capacity are immutable after NewPool.
	supported bool
	capacity  int
	backend   Backend

	// surfaces holds every registered session's display surface.
	surfaces map[string]Surface
	// active maps session ids to the context they currently hold.
	active map[string]Context
	// lru orders active session ids from least- to most-recently touched.
	// Invariant: set(lru) == keys(active), no duplicates.
	lru []string

	// grantFailLog and lossLog rate-limit diagnostics that can otherwise
	// fire every frame under a flapping backend.
	grantFailLog *log.Every
	lossLog      *log.Every
}

// Stats is a read-only diagnostics snapshot of the pool.
type Stats struct {
	Supported          bool     `json:"supported"`
	MaxContexts        int      `json:"max_contexts"`
	ActiveContexts     int      `json:"active_contexts"`
	RegisteredSessions int      `json:"registered_sessions"`
	LRUOrder           []string `json:"lru_order"`
}

// NewPool creates a pool sized by the prober's verdict. The backend may be
// nil (e.g. probe said unsupported); the pool then refuses every Acquire.
func NewPool(caps Capabilities, backend Backend) *Pool {
	capacity := caps.MaxContexts
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{
		supported:    caps.Supported && backend != nil,
		capacity:     capacity,
		backend:      backend,
		surfaces:     make(map[string]Surface),
		active:       make(map[string]Context),
		grantFailLog: log.NewEvery(time.Second),
		lossLog:      log.NewEvery(time.Second),
	}
}

// Register associates a session id with its display surface. No resource is
// granted. Re-registering an id replaces the stored surface without touching
// any context the session may hold; always succeeds.
func (p *Pool) Register(id string, s Surface) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.surfaces[id] = s
}

// Unregister releases any held context for id, then forgets its surface.
// Safe to call on an unknown id.
func (p *Pool) Unregister(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked(id)
	delete(p.surfaces, id)
}

// Acquire grants id an accelerated context, evicting the least-recently-used
// holder if the pool is full. Returns false when acceleration is unsupported,
// id is unregistered, or context creation fails; the caller then simply stays
// on the fallback path. Re-acquiring an id that already holds a context is
// idempotent and moves it to most-recently-used.
func (p *Pool) Acquire(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.supported {
		return false
	}
	surface, ok := p.surfaces[id]
	if !ok {
		return false
	}

	if _, held := p.active[id]; held {
		p.touchLocked(id)
		return true
	}

	// One eviction is always enough: grants happen one at a time and
	// |active| <= capacity held before this call.
	if len(p.active) >= p.capacity {
		p.releaseLocked(p.lru[0])
	}

	ctx, err := p.backend.NewContext(surface)
	if err != nil {
		// The caller stays on the fallback path; nothing to surface.
		if p.grantFailLog.ShouldLog() {
			log.DebugLog.Printf("render: context grant failed for %q: %v", id, err)
		}
		return false
	}

	p.active[id] = ctx
	p.lru = append(p.lru, id)
	ctx.SetLossHandler(func() { p.reconcileLoss(id, ctx) })
	surface.Attach(ctx)
	return true
}

// Release destroys id's context and frees its pool slot. Safe to call on an
// id holding no context.
func (p *Pool) Release(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked(id)
}

// HasContext reports whether id currently holds an accelerated context.
func (p *Pool) HasContext(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[id]
	return ok
}

// ReleaseAll releases every active session. Called at process teardown.
func (p *Pool) ReleaseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.lru) > 0 {
		p.releaseLocked(p.lru[len(p.lru)-1])
	}
}

// Stats returns a diagnostics snapshot. Read-only, no side effects.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	order := make([]string, len(p.lru))
	copy(order, p.lru)
	return Stats{
		Supported:          p.supported,
		MaxContexts:        p.capacity,
		ActiveContexts:     len(p.active),
		RegisteredSessions: len(p.surfaces),
		LRUOrder:           order,
	}
}

// releaseLocked detaches, destroys and forgets id's context, if any.
// Destruction failures are swallowed: a handle that refuses to die cleanly
// must not block bookkeeping.
func (p *Pool) releaseLocked(id string) {
	ctx, ok := p.active[id]
	if !ok {
		return
	}
	if surface, registered := p.surfaces[id]; registered {
		surface.Detach()
	}
	ctx.SetLossHandler(nil)
	if err := ctx.Destroy(); err != nil {
		log.WarningLog.Printf("render: context destroy failed for %q: %v", id, err)
	}
	delete(p.active, id)
	p.removeLRULocked(id)
}

// reconcileLoss handles an asynchronous context-loss notification. The
// session is treated as released, but the handle is not destroyed (it is
// already invalid) and the session stays registered so a later Acquire can
// re-establish acceleration. The notification may race Release/Unregister
// for the same id, so it only applies if ctx is still the handle on record.
func (p *Pool) reconcileLoss(id string, ctx Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, ok := p.active[id]
	if !ok || current != ctx {
		return
	}
	if surface, registered := p.surfaces[id]; registered {
		surface.Detach()
	}
	delete(p.active, id)
	p.removeLRULocked(id)
	if p.lossLog.ShouldLog() {
		log.InfoLog.Printf("render: context lost for %q", id)
	}
}

// touchLocked moves id to the most-recently-used end of the queue.
func (p *Pool) touchLocked(id string) {
	p.removeLRULocked(id)
	p.lru = append(p.lru, id)
}

func (p *Pool) removeLRULocked(id string) {
	for i, v := range p.lru {
		if v == id {
			p.lru = append(p.lru[:i], p.lru[i+1:]...)
			return
		}
	}
}
