// Package render owns the bounded pool of accelerated rendering contexts.
//
// Terminal sessions register a display surface with the pool; when a session
// becomes visible its caller acquires a context, and the pool evicts the
// least-recently-used holder once capacity is reached. A session that holds
// no context always renders through the unaccelerated fallback path, so no
// failure here is ever surfaced to the user as anything but a slower repaint.
package render

import (
	"errors"
	"sync"
)

// ErrNoBackend indicates no accelerated backend is registered.
var ErrNoBackend = errors.New("render: no accelerated backend registered")

// Frame is a single repaint request handed to an accelerated context.
type Frame struct {
	// Content is the session's raw capture, ANSI sequences included.
	Content string
	// Width and Height are the visible pane dimensions in cells.
	Width  int
	Height int
}

// Context is a granted accelerated rendering context. The pool exclusively
// owns every context it grants; callers never create or destroy one directly.
//
// Implementations must be comparable (pointer receivers) so the pool can tell
// a stale loss notification from a current one, and Destroy must never invoke
// the loss handler synchronously.
type Context interface {
	// Paint renders one frame for the surface this context is bound to.
	Paint(f Frame) string
	// Destroy releases the underlying resources. Best effort; the pool
	// swallows errors so bookkeeping always completes.
	Destroy() error
	// SetLossHandler registers fn to be called when the context is
	// invalidated outside of pool control. Passing nil clears the handler.
	SetLossHandler(fn func())
}

// Surface is the display surface a session's content is rendered into.
// It is exclusively owned by the caller; the pool only references it between
// Register and Unregister and binds at most one Context to it at a time.
type Surface interface {
	Attach(ctx Context)
	Detach()
}

// Backend creates accelerated contexts. Backend packages register themselves
// via RegisterBackend, typically from an init function:
//
//	import _ "termdeck/render/termpaint" // enables accelerated repaints
type Backend interface {
	// Name returns the backend identifier (e.g. "termpaint").
	Name() string
	// Init initializes backend resources. Called once during registration.
	Init() error
	// Close releases backend resources and invalidates open contexts.
	Close()
	// NewContext creates a context for the given surface. On error the pool
	// leaves the session on the fallback path.
	NewContext(s Surface) (Context, error)
}

var (
	backendMu sync.RWMutex
	backend   Backend
)

// RegisterBackend registers b as the process-wide accelerated backend.
// Only one backend can be registered; subsequent calls replace the previous
// one. Init is called during registration and a failing Init leaves the
// previous backend in place.
func RegisterBackend(b Backend) error {
	if b == nil {
		return ErrNoBackend
	}
	if err := b.Init(); err != nil {
		return err
	}

	backendMu.Lock()
	defer backendMu.Unlock()
	backend = b
	return nil
}

// UnregisterBackend removes the registered backend. Used by tests.
func UnregisterBackend() {
	backendMu.Lock()
	defer backendMu.Unlock()
	backend = nil
}

// ActiveBackend returns the registered backend, or nil if there is none.
func ActiveBackend() Backend {
	backendMu.RLock()
	defer backendMu.RUnlock()
	return backend
}

// HasBackend reports whether an accelerated backend is registered.
func HasBackend() bool {
	return ActiveBackend() != nil
}
