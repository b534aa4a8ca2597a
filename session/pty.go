package session

import (
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// PtyFactory creates PTYs for session programs. Injectable so tests can run
// without a real terminal.
type PtyFactory interface {
	Start(cmd *exec.Cmd) (*os.File, error)
	Close()
}

type ptyFactory struct{}

func (ptyFactory) Start(cmd *exec.Cmd) (*os.File, error) {
	return pty.Start(cmd)
}

func (ptyFactory) Close() {}

// MakePtyFactory returns the production PTY factory backed by creack/pty.
func MakePtyFactory() PtyFactory {
	return ptyFactory{}
}

// resizePty updates the PTY window size so the child program reflows.
func resizePty(ptmx *os.File, width, height int) error {
	return pty.Setsize(ptmx, &pty.Winsize{
		Rows: uint16(height),
		Cols: uint16(width),
	})
}
