package browser

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/fredcamaral/texdeck/internal/domain/ports"
)

// opener is one platform command able to open a URL or a file
type opener struct {
	Name    string
	Command string
	Args    func(target string) []string
}

// Launcher opens the served form page or a written artifact with the first
// opener available on this system
type Launcher struct {
	openers  []opener
	lookPath func(file string) (string, error)
	start    func(cmd *exec.Cmd) error
}

// NewLauncher creates a launcher for the current platform
func NewLauncher() *Launcher {
	return &Launcher{
		openers:  platformOpeners(runtime.GOOS),
		lookPath: exec.LookPath,
		start:    startDetached,
	}
}

// Open hands target to the system opener without waiting for it
func (l *Launcher) Open(target string) error {
	if target == "" {
		return errors.New("nothing to open")
	}

	o, err := l.selectOpener()
	if err != nil {
		return fmt.Errorf("opener selection: %w", err)
	}

	cmd := exec.Command(o.Command, o.Args(target)...) // #nosec G204 - command comes from the fixed platform table
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("launching %s: %w", o.Name, err)
	}
	return nil
}

// Detect returns the name of the opener Open would use
func (l *Launcher) Detect() (string, error) {
	o, err := l.selectOpener()
	if err != nil {
		return "", err
	}
	return o.Name, nil
}

func (l *Launcher) selectOpener() (*opener, error) {
	if len(l.openers) == 0 {
		return nil, fmt.Errorf("no openers known for %s", runtime.GOOS)
	}

	for i := range l.openers {
		if _, err := l.lookPath(l.openers[i].Command); err == nil {
			return &l.openers[i], nil
		}
	}
	return nil, errors.New("no supported opener found on this system")
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func targetOnly(target string) []string {
	return []string{target}
}

// platformOpeners lists openers in preference order. Each of them accepts
// both URLs and file paths.
func platformOpeners(goos string) []opener {
	switch goos {
	case "darwin":
		return []opener{
			{Name: "open", Command: "open", Args: targetOnly},
		}
	case "linux", "freebsd", "openbsd", "netbsd":
		return []opener{
			{Name: "xdg-open", Command: "xdg-open", Args: targetOnly},
			{Name: "gio", Command: "gio", Args: func(target string) []string {
				return []string{"open", target}
			}},
			{Name: "wslview", Command: "wslview", Args: targetOnly},
		}
	case "windows":
		return []opener{
			{Name: "rundll32", Command: "rundll32", Args: func(target string) []string {
				return []string{"url.dll,FileProtocolHandler", target}
			}},
		}
	default:
		return nil
	}
}

// Ensure Launcher implements ports.Launcher
var _ ports.Launcher = (*Launcher)(nil)
