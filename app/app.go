package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"termdeck/config"
	"termdeck/keys"
	"termdeck/log"
	"termdeck/render"
	"termdeck/session"
	"termdeck/ui"
)

// previewTickInterval is how often the preview refreshes from the selected
// session's screen.
const previewTickInterval = 250 * time.Millisecond

// Run is the main entrypoint into the application.
func Run(ctx context.Context, cfg *config.Config) error {
	zone.NewGlobal()

	h, err := newHome(ctx, cfg, session.MakePtyFactory())
	if err != nil {
		return err
	}

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.MouseEnabled {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	p := tea.NewProgram(h, opts...)
	_, err = p.Run()

	// Teardown: every context back to the pool, then the backend itself.
	h.pool.ReleaseAll()
	if backend := render.ActiveBackend(); backend != nil {
		backend.Close()
	}
	h.saveState()
	return err
}

type state int

const (
	stateDefault state = iota
	// stateNew is the state when the user is naming a new session.
	stateNew
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(previewTickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type home struct {
	ctx context.Context

	cfg        *config.Config
	ptyFactory session.PtyFactory

	// caps is the prober's verdict, computed once here and immutable.
	caps render.Capabilities
	// pool owns every accelerated context; the UI only calls its operations
	// on visibility transitions.
	pool *render.Pool

	storage   *session.Storage
	instances []*session.Instance

	list    *ui.List
	preview *ui.PreviewPane

	state     state
	textInput textinput.Model

	width, height int
}

func newHome(ctx context.Context, cfg *config.Config, ptyFactory session.PtyFactory) (*home, error) {
	caps := render.Probe(render.ProbeOptions{
		Disabled:       cfg.Acceleration.Disabled,
		ContextCeiling: cfg.Acceleration.MaxContexts,
		ExtraDenylist:  cfg.Acceleration.VendorDenylist,
	})
	if !caps.Supported {
		log.InfoLog.Printf("accelerated rendering unavailable: %s", caps.Reason)
	} else {
		log.InfoLog.Printf("accelerated rendering: up to %d contexts (vendor %q)", caps.MaxContexts, caps.Vendor)
	}
	pool := render.NewPool(caps, render.ActiveBackend())

	storage, err := session.DefaultStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to open session storage: %w", err)
	}

	ti := textinput.New()
	ti.Placeholder = "session name (empty for a generated one)"
	ti.CharLimit = 32

	h := &home{
		ctx:        ctx,
		cfg:        cfg,
		ptyFactory: ptyFactory,
		caps:       caps,
		pool:       pool,
		storage:    storage,
		list:       ui.NewList(pool),
		preview:    ui.NewPreviewPane(),
		textInput:  ti,
	}
	h.restoreSessions()
	return h, nil
}

// restoreSessions restarts the sessions persisted by the previous run.
func (h *home) restoreSessions() {
	prev, err := h.storage.Load()
	if err != nil {
		log.WarningLog.Printf("failed to load previous state: %v", err)
		return
	}
	for _, data := range prev.Sessions {
		inst := session.NewInstanceWithDeps(data.Title, data.Path, data.Program, h.ptyFactory)
		if err := inst.Start(); err != nil {
			log.WarningLog.Printf("failed to restore session %s: %v", data.Title, err)
			continue
		}
		h.addInstance(inst)
	}
	h.focusSelected()
}

// addInstance appends a session and registers its surface with the pool.
func (h *home) addInstance(inst *session.Instance) {
	h.instances = append(h.instances, inst)
	h.pool.Register(inst.Title, inst.Screen())
	h.list.SetItems(h.instances)
}

// focusSelected is the visibility transition: the selected session is the
// visible one, so it acquires a context. Hidden sessions keep theirs until
// the pool evicts them; recency, not visibility, decides that.
func (h *home) focusSelected() {
	sel := h.list.Selected()
	if sel == nil {
		return
	}
	h.pool.Acquire(sel.Title)
	if err := sel.Resize(h.previewWidth(), h.previewHeight()); err != nil {
		log.DebugLog.Printf("failed to resize session %s: %v", sel.Title, err)
	}
}

func (h *home) killSelected() {
	sel := h.list.Selected()
	if sel == nil {
		return
	}
	h.pool.Unregister(sel.Title)
	sel.Stop()
	kept := h.instances[:0]
	for _, inst := range h.instances {
		if inst != sel {
			kept = append(kept, inst)
		}
	}
	h.instances = kept
	h.list.SetItems(h.instances)
	h.focusSelected()
	h.saveState()
}

func (h *home) startNewSession(title string) {
	taken := make(map[string]bool, len(h.instances))
	for _, inst := range h.instances {
		taken[inst.Title] = true
	}

	title = session.SanitizeTitle(title)
	if title == "" {
		title = session.GenerateTitle(taken)
	}
	if taken[title] {
		log.WarningLog.Printf("duplicate session title %q", title)
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = os.TempDir()
	}
	inst := session.NewInstanceWithDeps(title, cwd, h.cfg.DefaultProgram, h.ptyFactory)
	if err := inst.Start(); err != nil {
		log.ErrorLog.Printf("failed to start session %s: %v", title, err)
		return
	}

	h.addInstance(inst)
	h.list.SelectIndex(len(h.instances) - 1)
	h.focusSelected()
	h.saveState()
}

// saveState persists the roster and the latest pool diagnostics snapshot.
func (h *home) saveState() {
	state := session.State{Render: h.pool.Stats()}
	for _, inst := range h.instances {
		state.Sessions = append(state.Sessions, inst.ToInstanceData())
	}
	if err := h.storage.Save(state); err != nil {
		log.WarningLog.Printf("failed to save state: %v", err)
	}
}

func (h *home) previewWidth() int {
	return max(h.width-h.sidebarWidth()-1, 0)
}

func (h *home) previewHeight() int {
	return max(h.height-2, 0)
}

func (h *home) sidebarWidth() int {
	w := h.width / 4
	if w < 24 {
		w = 24
	}
	return w
}

// Init implements tea.Model.
func (h *home) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (h *home) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h.width = msg.Width
		h.height = msg.Height
		h.list.SetSize(h.sidebarWidth(), h.previewHeight())
		h.preview.SetSize(h.previewWidth(), h.previewHeight())
		h.focusSelected()
		return h, nil

	case tickMsg:
		h.preview.UpdateContent(h.list.Selected())
		return h, tickCmd()

	case tea.MouseMsg:
		return h.handleMouse(msg)

	case tea.KeyMsg:
		if h.state == stateNew {
			return h.handleNewSessionKeys(msg)
		}
		return h.handleKeys(msg)
	}
	return h, nil
}

func (h *home) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return h, nil
	}
	for idx, inst := range h.instances {
		if zone.Get(ui.ZonePrefix + inst.Title).InBounds(msg) {
			h.list.SelectIndex(idx)
			h.focusSelected()
			break
		}
	}
	return h, nil
}

func (h *home) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	name, ok := keys.GlobalKeyStringsMap[msg.String()]
	if !ok {
		return h, nil
	}

	switch name {
	case keys.KeyQuit:
		return h, tea.Quit
	case keys.KeyUp:
		h.list.Up()
		h.focusSelected()
	case keys.KeyDown:
		h.list.Down()
		h.focusSelected()
	case keys.KeyNew:
		h.state = stateNew
		h.textInput.SetValue("")
		h.textInput.Focus()
		return h, textinput.Blink
	case keys.KeyKill:
		h.killSelected()
	case keys.KeyAccel:
		if sel := h.list.Selected(); sel != nil {
			if h.pool.HasContext(sel.Title) {
				h.pool.Release(sel.Title)
			} else {
				h.pool.Acquire(sel.Title)
			}
		}
	case keys.KeyCopy:
		if sel := h.list.Selected(); sel != nil {
			if err := clipboard.WriteAll(sel.Screen().Content()); err != nil {
				log.WarningLog.Printf("failed to copy session output: %v", err)
			}
		}
	}
	return h, nil
}

func (h *home) handleNewSessionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.GlobalkeyBindings[keys.KeySubmitName]):
		h.startNewSession(h.textInput.Value())
		h.state = stateDefault
		h.textInput.Blur()
		return h, nil
	case key.Matches(msg, keys.GlobalkeyBindings[keys.KeyEsc]):
		h.state = stateDefault
		h.textInput.Blur()
		return h, nil
	}
	var cmd tea.Cmd
	h.textInput, cmd = h.textInput.Update(msg)
	return h, cmd
}

// View implements tea.Model.
func (h *home) View() string {
	if h.width == 0 || h.height == 0 {
		return ""
	}

	sidebar := lipgloss.NewStyle().
		Width(h.sidebarWidth()).
		Height(h.previewHeight()).
		Render(h.list.String())

	main := h.preview.String()
	if h.state == stateNew {
		main = lipgloss.Place(
			h.previewWidth(), h.previewHeight(),
			lipgloss.Center, lipgloss.Center,
			"New session\n\n"+h.textInput.View(),
		)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", main)
	footer := h.footer()

	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left, body, ui.Divider(h.width), footer))
}

func (h *home) footer() string {
	stats := h.pool.Stats()
	accel := "accel off"
	if stats.Supported {
		accel = fmt.Sprintf("⚡ %d/%d", stats.ActiveContexts, stats.MaxContexts)
	}
	count := fmt.Sprintf("%d sessions", h.list.NumItems())
	help := ui.HelpLine(
		keys.GlobalkeyBindings[keys.KeyNew],
		keys.GlobalkeyBindings[keys.KeyKill],
		keys.GlobalkeyBindings[keys.KeyAccel],
		keys.GlobalkeyBindings[keys.KeyCopy],
		keys.GlobalkeyBindings[keys.KeyQuit],
	)
	return strings.Join([]string{" " + count, accel, help}, "  ·  ")
}
