// Package browser opens service pages in the user's browser. It backs the
// "open in a new browsing context" path of search submission.
package browser

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pders01/srcview/internal/debuglog"
)

// ErrNoOpener is returned when no opener is configured or installed.
var ErrNoOpener = errors.New("no application found to open URL")

// Opener opens a location outside the terminal.
type Opener interface {
	Open(target string) error
}

type Launcher struct {
	baseURL  string
	opener   string
	registry *Registry
	start    func(*exec.Cmd) error
}

// NewLauncher resolves relative targets against baseURL and opens them with
// opener, or the platform default when opener is empty.
func NewLauncher(baseURL, opener string) *Launcher {
	registry, err := NewRegistry(DefaultUserPaths()...)
	if err != nil {
		// Continue with an empty registry; unknown openers still work
		debuglog.Warnf("loading opener registry: %v", err)
		registry = &Registry{defaults: map[string]string{}, openers: map[string]OpenerDefinition{}}
	}
	return newLauncher(baseURL, opener, registry, startDetached)
}

func newLauncher(baseURL, opener string, registry *Registry, start func(*exec.Cmd) error) *Launcher {
	if opener == "" {
		opener = registry.DefaultOpener()
	}
	return &Launcher{
		baseURL:  strings.TrimRight(baseURL, "/"),
		opener:   opener,
		registry: registry,
		start:    start,
	}
}

// Resolve turns an app path such as "/search?q=x" into an absolute URL.
func (l *Launcher) Resolve(target string) string {
	if l.baseURL == "" || !strings.HasPrefix(target, "/") {
		return target
	}
	return l.baseURL + target
}

func (l *Launcher) Open(target string) error {
	if l.opener == "" {
		return ErrNoOpener
	}

	url := l.Resolve(target)
	cmd, err := l.registry.Command(l.opener, url)
	if err != nil {
		return err
	}
	debuglog.Infof("opening %s with %s", url, l.opener)

	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.opener, err)
	}
	return nil
}

// Start GUI applications detached
func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
