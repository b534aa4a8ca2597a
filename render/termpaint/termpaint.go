// Package termpaint is the default accelerated backend: a styled painter
// that repaints a session's raw ANSI capture at the terminal's full color
// profile. Importing it for side effects registers it with the render pool:
//
//	import _ "termdeck/render/termpaint"
package termpaint

import (
	"errors"
	"strings"
	"sync"

	"github.com/muesli/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"

	"termdeck/render"
)

var errClosed = errors.New("termpaint: backend closed")

func init() {
	// Registration failures leave the pool without a backend, which the
	// prober reports as unsupported. Never fatal.
	_ = render.RegisterBackend(New())
}

// Backend paints frames with the detected terminal color profile. It tracks
// its open contexts so Close can invalidate them, which reaches the pool as
// asynchronous context-loss notifications.
type Backend struct {
	mu      sync.Mutex
	profile termenv.Profile
	closed  bool
	open    map[*Context]struct{}
}

// New creates a termpaint backend for the current environment.
func New() *Backend {
	return &Backend{
		profile: termenv.EnvColorProfile(),
		open:    make(map[*Context]struct{}),
	}
}

func (b *Backend) Name() string { return "termpaint" }

func (b *Backend) Init() error { return nil }

// Close invalidates every open context. Loss handlers fire asynchronously,
// mirroring how a real driver reports loss after the fact.
func (b *Backend) Close() {
	b.mu.Lock()
	b.closed = true
	lost := make([]*Context, 0, len(b.open))
	for c := range b.open {
		lost = append(lost, c)
	}
	b.open = make(map[*Context]struct{})
	b.mu.Unlock()

	for _, c := range lost {
		go c.fireLoss()
	}
}

// NewContext creates a painter context for the surface. The surface itself
// is not retained; the pool owns the binding.
func (b *Backend) NewContext(_ render.Surface) (render.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errClosed
	}
	c := &Context{backend: b, profile: b.profile}
	b.open[c] = struct{}{}
	return c, nil
}

// Context is one granted painter. Comparable by pointer, as the pool requires.
type Context struct {
	backend *Backend
	profile termenv.Profile

	mu     sync.Mutex
	lossFn func()
	dead   bool
}

// Paint fits the capture to the pane: last Height lines, each truncated to
// Width without breaking escape sequences.
func (c *Context) Paint(f render.Frame) string {
	if f.Width <= 0 || f.Height <= 0 {
		return ""
	}
	lines := strings.Split(f.Content, "\n")
	if len(lines) > f.Height {
		lines = lines[len(lines)-f.Height:]
	}
	for i, line := range lines {
		if ansi.PrintableRuneWidth(line) > f.Width {
			lines[i] = truncate.String(line, uint(f.Width))
		}
	}
	return strings.Join(lines, "\n")
}

// Destroy removes the context from the backend's open set. Never invokes the
// loss handler.
func (c *Context) Destroy() error {
	c.mu.Lock()
	c.dead = true
	c.lossFn = nil
	c.mu.Unlock()

	c.backend.mu.Lock()
	delete(c.backend.open, c)
	c.backend.mu.Unlock()
	return nil
}

func (c *Context) SetLossHandler(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lossFn = fn
}

func (c *Context) fireLoss() {
	c.mu.Lock()
	fn := c.lossFn
	c.dead = true
	c.lossFn = nil
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}
