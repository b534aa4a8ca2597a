package ui

import (
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"termdeck/session"
)

// PreviewPane shows the selected session's screen. Whether the content came
// through an accelerated context or the fallback path is the screen's
// business; the pane just asks for a view that fits.
type PreviewPane struct {
	viewport viewport.Model
	width    int
	height   int

	fallback bool
	text     string
}

func NewPreviewPane() *PreviewPane {
	return &PreviewPane{
		viewport: viewport.New(0, 0),
	}
}

func (p *PreviewPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.viewport.Width = width
	p.viewport.Height = height
}

// setFallbackState centers a message in the pane.
func (p *PreviewPane) setFallbackState(message string) {
	content := lipgloss.Place(
		p.width,
		p.height,
		lipgloss.Center,
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, FallBackText, "", mutedStyle.Render(message)),
	)
	p.fallback = true
	p.text = content
	p.viewport.SetContent(content)
}

// UpdateContent refreshes the pane from the selected session.
func (p *PreviewPane) UpdateContent(instance *session.Instance) {
	switch {
	case instance == nil:
		p.setFallbackState("No sessions yet. Press 'n' to start one.")
		return
	case !instance.Started():
		p.setFallbackState("Session is starting...")
		return
	}

	p.fallback = false
	p.text = instance.Screen().View(p.width, p.height)
	p.viewport.SetContent(p.text)
	p.viewport.GotoBottom()
}

// String returns the pane content.
func (p *PreviewPane) String() string {
	if p.width == 0 || p.height == 0 {
		return ""
	}
	if p.fallback {
		return p.text
	}
	return p.viewport.View()
}
