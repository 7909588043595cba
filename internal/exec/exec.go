// Package exec is the single seam between the daemon and the
// switch's textual introspection commands. Production code talks to
// the real binaries; tests inject a fake Executor.
package exec

import (
	"context"
	"os/exec"
	"strings"

	"github.com/netcontrold/ncd/internal/model"
)

// Executor runs a shell-style command line and returns its combined
// stdout. Implementations return a *model.Error of KindOsCommand on
// failure or empty output — never a bare error — so the decision
// loop's error-kind switch is exhaustive.
type Executor interface {
	Exec(ctx context.Context, cmd string) (string, error)
}

// Host runs commands against the real operating system via
// os/exec, splitting cmd on whitespace the way the original shipped
// wrapper around subprocess did.
type Host struct{}

var _ Executor = Host{}

func (Host) Exec(ctx context.Context, cmd string) (string, error) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return "", model.NewOsCommandError(nil, "empty command")
	}

	out, err := exec.CommandContext(ctx, fields[0], fields[1:]...).CombinedOutput()
	if err != nil {
		return "", model.NewOsCommandError(err, "command %q failed", cmd)
	}
	if len(out) == 0 {
		return "", model.NewOsCommandError(nil, "command %q returned no output", cmd)
	}
	return string(out), nil
}

// Fake is an in-memory Executor for tests: it returns canned output
// keyed by the exact command string, or an error if the key is
// absent.
type Fake struct {
	Outputs map[string]string
	Errs    map[string]error
	Calls   []string
}

var _ Executor = (*Fake)(nil)

func NewFake() *Fake {
	return &Fake{Outputs: make(map[string]string), Errs: make(map[string]error)}
}

func (f *Fake) Exec(_ context.Context, cmd string) (string, error) {
	f.Calls = append(f.Calls, cmd)
	if err, ok := f.Errs[cmd]; ok {
		return "", err
	}
	out, ok := f.Outputs[cmd]
	if !ok {
		return "", model.NewOsCommandError(nil, "fake executor: no output registered for %q", cmd)
	}
	return out, nil
}
