package session

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	git "github.com/go-git/go-git/v5"

	"termdeck/log"
)

type Status int

const (
	// Running is the status while the session's program is alive.
	Running Status = iota
	// Stopped is the status once the program exited or was killed.
	Stopped
)

var whiteSpaceRegex = regexp.MustCompile(`\s+`)

// SanitizeTitle normalizes a user-entered title into a session identity.
// No two concurrently registered sessions may share one.
func SanitizeTitle(title string) string {
	title = strings.TrimSpace(title)
	title = whiteSpaceRegex.ReplaceAllString(title, "-")
	return title
}

// Instance is one terminal session: a program on its own PTY, feeding a
// Screen that the render pool may or may not have granted an accelerated
// context to.
type Instance struct {
	// Title is the session identity used with the render pool and storage.
	Title string
	// Path is the working directory the program runs in.
	Path string
	// Program is the command line run in the session.
	Program string
	// Branch is the git branch of Path, if Path is inside a repository.
	Branch string
	// CreatedAt is the time the session was created.
	CreatedAt time.Time

	// started flips once Start succeeded; read by the UI tick handler.
	started atomic.Bool
	// exited flips when the PTY reader sees EOF.
	exited atomic.Bool

	ptyFactory PtyFactory
	ptmx       *os.File
	cmd        *exec.Cmd
	screen     *Screen
}

// NewInstanceWithDeps creates a session with the given PTY factory. Start
// must be called before the session does anything.
func NewInstanceWithDeps(title, path, program string, ptyFactory PtyFactory) *Instance {
	return &Instance{
		Title:      SanitizeTitle(title),
		Path:       path,
		Program:    program,
		Branch:     detectBranch(path),
		CreatedAt:  time.Now(),
		ptyFactory: ptyFactory,
		screen:     NewScreen(),
	}
}

// Screen returns the session's display surface.
func (i *Instance) Screen() *Screen {
	return i.screen
}

// Started reports whether Start has succeeded.
func (i *Instance) Started() bool {
	return i.started.Load()
}

// Status reports the session's lifecycle state.
func (i *Instance) Status() Status {
	if i.started.Load() && !i.exited.Load() {
		return Running
	}
	return Stopped
}

// Start launches the program on a fresh PTY and begins feeding the screen.
func (i *Instance) Start() error {
	if i.started.Load() {
		return fmt.Errorf("session already started: %s", i.Title)
	}

	parts := strings.Fields(i.Program)
	if len(parts) == 0 {
		return fmt.Errorf("empty program for session: %s", i.Title)
	}
	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Dir = i.Path
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := i.ptyFactory.Start(cmd)
	if err != nil {
		return fmt.Errorf("failed to start session %s: %w", i.Title, err)
	}

	i.cmd = cmd
	i.ptmx = ptmx
	i.started.Store(true)

	go i.readLoop(ptmx)
	return nil
}

func (i *Instance) readLoop(ptmx *os.File) {
	buf := make([]byte, 4096)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			i.screen.Feed(buf[:n])
		}
		if err != nil {
			// EOF or EIO when the child exits; either way the session is done.
			i.exited.Store(true)
			log.DebugLog.Printf("session %s: pty reader finished: %v", i.Title, err)
			return
		}
	}
}

// SendKeys writes keystrokes to the session's PTY.
func (i *Instance) SendKeys(keys string) error {
	if !i.started.Load() || i.ptmx == nil {
		return fmt.Errorf("session not started: %s", i.Title)
	}
	_, err := i.ptmx.Write([]byte(keys))
	return err
}

// Resize updates the PTY window size.
func (i *Instance) Resize(width, height int) error {
	if !i.started.Load() || i.ptmx == nil {
		return nil
	}
	return resizePty(i.ptmx, width, height)
}

// Stop kills the program and closes the PTY. Idempotent.
func (i *Instance) Stop() {
	if !i.started.Load() {
		return
	}
	if i.cmd != nil && i.cmd.Process != nil {
		if err := i.cmd.Process.Kill(); err != nil {
			log.WarningLog.Printf("session %s: failed to kill process: %v", i.Title, err)
		}
	}
	if i.ptmx != nil {
		_ = i.ptmx.Close()
	}
	i.exited.Store(true)
}

// ToInstanceData converts the session to its persisted form.
func (i *Instance) ToInstanceData() InstanceData {
	return InstanceData{
		Title:     i.Title,
		Path:      i.Path,
		Program:   i.Program,
		Branch:    i.Branch,
		CreatedAt: i.CreatedAt,
	}
}

// detectBranch returns the short branch name of the repository at path, or
// "" when path isn't inside one. Purely informational for the sidebar.
func detectBranch(path string) string {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Name().Short()
}
