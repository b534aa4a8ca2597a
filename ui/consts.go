package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

var deckBannerRaw = `████████╗███████╗██████╗░███╗░░░███╗██████╗░███████╗░█████╗░██╗░░██╗
╚══██╔══╝██╔════╝██╔══██╗████╗░████║██╔══██╗██╔════╝██╔══██╗██║░██╔╝
░░░██║░░░█████╗░░██████╔╝██╔████╔██║██║░░██║█████╗░░██║░░╚═╝█████╔╝░
░░░██║░░░██╔══╝░░██╔══██╗██║╚██╔╝██║██║░░██║██╔══╝░░██║░░██╗██╔═██╗░
░░░██║░░░███████╗██║░░██║██║░╚═╝░██║██████╔╝███████╗╚█████╔╝██║░╚██╗
░░░╚═╝░░░╚══════╝╚═╝░░╚═╝╚═╝░░░░░╚═╝╚═════╝░╚══════╝░╚════╝░╚═╝░░╚═╝`

var titleStyle = lipgloss.NewStyle().
	Foreground(lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#dddddd"}).
	Bold(true)

var selectedStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#7EC8D8")).
	Bold(true)

var mutedStyle = lipgloss.NewStyle().
	Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"})

var accelStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#E0C070"))

// FallBackText is shown in the preview pane when no session is selected.
var FallBackText = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#7EC8D8")).
	Render(deckBannerRaw)

// HelpLine renders bindings as a one-line help string using their
// key.WithHelp metadata.
func HelpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}

// padToWidth right-pads s with spaces up to width.
func padToWidth(s string, width int) string {
	if pad := width - lipgloss.Width(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}
