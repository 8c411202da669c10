package browser

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/pelletier/go-toml/v2"

	"github.com/pders01/srcview/internal/debuglog"
)

//go:embed openers.toml
var openersTOML []byte

// OpenerDefinition defines how a URL opener should be invoked
type OpenerDefinition struct {
	Description string   `toml:"description"`
	Platforms   []string `toml:"platforms"`
	Args        []string `toml:"args,omitempty"`
	ArgsDarwin  []string `toml:"args_darwin,omitempty"`
	ArgsLinux   []string `toml:"args_linux,omitempty"`
	ArgsWindows []string `toml:"args_windows,omitempty"`
}

// OpenersConfig is the layout of the embedded and user opener files.
type OpenersConfig struct {
	Defaults map[string]string           `toml:"defaults"`
	Openers  map[string]OpenerDefinition `toml:"openers"`
}

// Registry manages opener definitions
type Registry struct {
	defaults map[string]string
	openers  map[string]OpenerDefinition
	goos     string
}

// NewRegistry creates a registry from the embedded TOML, then merges any
// user definitions found at userPaths.
func NewRegistry(userPaths ...string) (*Registry, error) {
	var cfg OpenersConfig
	if err := toml.Unmarshal(openersTOML, &cfg); err != nil {
		return nil, fmt.Errorf("parsing openers.toml: %w", err)
	}

	r := &Registry{
		defaults: cfg.Defaults,
		openers:  cfg.Openers,
		goos:     runtime.GOOS,
	}
	if r.defaults == nil {
		r.defaults = map[string]string{}
	}
	if r.openers == nil {
		r.openers = map[string]OpenerDefinition{}
	}

	for _, path := range userPaths {
		r.loadUserConfig(path)
	}
	return r, nil
}

// DefaultUserPaths lists where user opener definitions are looked up.
func DefaultUserPaths() []string {
	paths := []string{"./openers.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append([]string{filepath.Join(home, ".config", "srcview", "openers.toml")}, paths...)
	}
	return paths
}

func (r *Registry) loadUserConfig(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var user OpenersConfig
	if err := toml.Unmarshal(data, &user); err != nil {
		debuglog.Warnf("ignoring opener definitions in %s: %v", path, err)
		return
	}
	// user definitions override built-ins
	for name, def := range user.Openers {
		r.openers[name] = def
	}
	for goos, name := range user.Defaults {
		r.defaults[goos] = name
	}
	debuglog.Debugf("loaded %d opener definitions from %s", len(user.Openers), path)
}

// DefaultOpener returns the opener configured for the current platform.
func (r *Registry) DefaultOpener() string {
	return r.defaults[r.goos]
}

// Command builds the command that opens target with the named opener.
// Unknown openers are invoked with target as their only argument.
func (r *Registry) Command(name, target string) (*exec.Cmd, error) {
	def, ok := r.openers[name]
	if !ok {
		return exec.Command(name, target), nil
	}
	if !slices.Contains(def.Platforms, r.goos) {
		return nil, fmt.Errorf("%s not supported on %s", name, r.goos)
	}

	args := append(slices.Clone(r.args(def)), target)
	return exec.Command(name, args...), nil
}

// args returns the appropriate args for the current platform
func (r *Registry) args(def OpenerDefinition) []string {
	switch r.goos {
	case "darwin":
		if len(def.ArgsDarwin) > 0 {
			return def.ArgsDarwin
		}
	case "linux":
		if len(def.ArgsLinux) > 0 {
			return def.ArgsLinux
		}
	case "windows":
		if len(def.ArgsWindows) > 0 {
			return def.ArgsWindows
		}
	}
	return def.Args
}

// Names lists the openers usable on the current platform.
func (r *Registry) Names() []string {
	var names []string
	for name, def := range r.openers {
		if slices.Contains(def.Platforms, r.goos) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
