package session

import (
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/wordwrap"

	"termdeck/cache"
	"termdeck/render"
)

// maxCaptureBytes bounds the rolling capture per session. Old output is
// dropped from the front; the preview only ever shows the tail.
const maxCaptureBytes = 64 * 1024

// Screen is a session's display surface. The session's PTY reader feeds it
// raw output; the UI asks it for a view. When the render pool has bound an
// accelerated context to it, views go through that context's painter;
// otherwise they take the plain fallback path (ANSI stripped, wrapped),
// which is always functionally valid, just unstyled.
type Screen struct {
	mu       sync.Mutex
	capture  []byte
	renderer render.Context

	fallback *cache.ViewCache
}

func NewScreen() *Screen {
	return &Screen{fallback: cache.NewViewCache()}
}

// Attach binds an accelerated context to this surface. Called only by the
// render pool.
func (s *Screen) Attach(ctx render.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer = ctx
}

// Detach unbinds the accelerated context. Called only by the render pool on
// release, eviction and loss; the screen keeps no reference afterwards.
func (s *Screen) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer = nil
}

// Accelerated reports whether a context is currently bound.
func (s *Screen) Accelerated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderer != nil
}

// Feed appends raw PTY output to the capture.
func (s *Screen) Feed(p []byte) {
	s.mu.Lock()
	s.capture = append(s.capture, p...)
	if len(s.capture) > maxCaptureBytes {
		// Cut at a line boundary where possible so the view doesn't open
		// mid-escape-sequence.
		cut := len(s.capture) - maxCaptureBytes
		if nl := strings.IndexByte(string(s.capture[cut:]), '\n'); nl >= 0 {
			cut += nl + 1
		}
		s.capture = s.capture[cut:]
	}
	s.mu.Unlock()
	s.fallback.Invalidate()
}

// Content returns the current raw capture.
func (s *Screen) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.capture)
}

// View renders the capture for a width x height pane, through the attached
// accelerated context when one is bound and the fallback path otherwise.
func (s *Screen) View(width, height int) string {
	s.mu.Lock()
	renderer := s.renderer
	content := string(s.capture)
	s.mu.Unlock()

	if width <= 0 || height <= 0 {
		return ""
	}

	if renderer != nil {
		return renderer.Paint(render.Frame{Content: content, Width: width, Height: height})
	}

	return s.fallback.Get(width, height, func(w, h int) string {
		return renderPlain(content, w, h)
	})
}

// renderPlain is the unaccelerated path: escape sequences stripped, text
// wrapped to the pane width, tail-trimmed to the pane height.
func renderPlain(content string, width, height int) string {
	text := ansi.Strip(content)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = wordwrap.String(text, width)
	lines := strings.Split(text, "\n")
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	return strings.Join(lines, "\n")
}
