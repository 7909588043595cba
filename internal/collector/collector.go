package collector

import (
	"context"
	"fmt"

	"github.com/netcontrold/ncd/internal/exec"
	"github.com/netcontrold/ncd/internal/model"
)

// Commands names the four switch-introspection command lines a
// Collector issues each tick, in the fixed order they must run (§4.C):
// port stats, interface details, pmd stats, pmd rxq map.
type Commands struct {
	PortStats  string
	Interfaces string
	PmdStats   string
	PmdRxqs    string
}

// DefaultCommands returns the standard ovs-appctl/ovs-vsctl command
// lines, parameterised by the configured ovs-appctl/ovs-vsctl binary
// paths.
func DefaultCommands(appctl, vsctl string) Commands {
	return Commands{
		PortStats:  fmt.Sprintf("%s dpctl/show -s", appctl),
		Interfaces: fmt.Sprintf("%s list interface", vsctl),
		PmdStats:   fmt.Sprintf("%s dpif-netdev/pmd-stats-show", appctl),
		PmdRxqs:    fmt.Sprintf("%s dpif-netdev/pmd-rxq-show", appctl),
	}
}

// Collector runs one tick's worth of switch introspection commands
// through an Executor and folds their output into the model.
type Collector struct {
	Exec     exec.Executor
	Commands Commands
}

// New returns a Collector that issues cmds through ex.
func New(ex exec.Executor, cmds Commands) *Collector {
	return &Collector{Exec: ex, Commands: cmds}
}

// Collect runs the four parses in order against m. An OsCommandError
// from the Executor is fatal and returned immediately; a parse or
// model-changed error from one stage still returns immediately (the
// decision loop decides whether to reset and retry), but later stages
// are not attempted against a model known to be stale.
func (c *Collector) Collect(ctx context.Context, m *model.Model) error {
	steps := []struct {
		cmd   string
		parse func(*model.Model, string) error
	}{
		{c.Commands.PortStats, ParsePortStats},
		{c.Commands.Interfaces, ParseInterfaces},
		{c.Commands.PmdStats, ParsePmdStats},
		{c.Commands.PmdRxqs, ParsePmdRxqs},
	}

	for _, step := range steps {
		out, err := c.Exec.Exec(ctx, step.cmd)
		if err != nil {
			return err
		}
		if err := step.parse(m, out); err != nil {
			return err
		}
	}
	return nil
}
