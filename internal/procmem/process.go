package procmem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrProcessNotFound  = errors.New("process not found")
	ErrAmbiguousProcess = errors.New("more than one process matches")
)

// Process identifies the game being tracked.
type Process struct {
	PID  int
	Name string
}

// GameName is the process name without its extension, e.g. "th08" for
// "th08.exe". It selects the per-game config overlay.
func (p Process) GameName() string {
	name := p.Name
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name
}

// Resolver looks processes up under a procfs mount.
type Resolver struct {
	Root string
}

// DefaultResolver reads the host's /proc.
var DefaultResolver = Resolver{Root: "/proc"}

// Resolve accepts either a PID or an exact process name.
func Resolve(arg string) (Process, error) {
	return DefaultResolver.Resolve(arg)
}

func (r Resolver) Resolve(arg string) (Process, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Process{}, fmt.Errorf("%w: empty process id/name", ErrProcessNotFound)
	}

	if pid, err := strconv.Atoi(arg); err == nil {
		name, err := r.comm(pid)
		if err != nil {
			return Process{}, fmt.Errorf("%w: pid %d: %v", ErrProcessNotFound, pid, err)
		}
		return Process{PID: pid, Name: name}, nil
	}

	entries, err := os.ReadDir(r.Root)
	if err != nil {
		return Process{}, fmt.Errorf("list processes: %w", err)
	}
	var matches []Process
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil || !e.IsDir() {
			continue
		}
		name, err := r.comm(pid)
		if err != nil || name != arg {
			continue
		}
		matches = append(matches, Process{PID: pid, Name: name})
	}

	switch len(matches) {
	case 0:
		return Process{}, fmt.Errorf("%w: %q", ErrProcessNotFound, arg)
	case 1:
		return matches[0], nil
	}
	pids := make([]string, len(matches))
	for i, m := range matches {
		pids[i] = strconv.Itoa(m.PID)
	}
	return Process{}, fmt.Errorf("%w %q: %s", ErrAmbiguousProcess, arg, strings.Join(pids, ", "))
}

func (r Resolver) comm(pid int) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.Root, strconv.Itoa(pid), "comm"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
