package control

import (
	"context"
	"os/exec"

	"github.com/epics-extensions/qtedm-runtime/internal/obslog"
)

// ShellCommand spawns a subprocess on activation; it has no PV
// interaction (§4.6).
type ShellCommand struct {
	Command string
	Args    []string
	log     *obslog.Logger
}

func NewShellCommand(command string, args []string) *ShellCommand {
	return &ShellCommand{Command: command, Args: args, log: obslog.Default()}
}

// Activate runs the configured command detached from the caller; a
// failure to start is logged (§7 kind 1, a configuration-level problem)
// and otherwise ignored — the runtime does not wait on or report the
// child's exit status.
func (s *ShellCommand) Activate(ctx context.Context) {
	if s.Command == "" {
		return
	}
	cmd := exec.CommandContext(ctx, s.Command, s.Args...)
	if err := cmd.Start(); err != nil {
		s.log.ConfigError("shell command", err, "command", s.Command)
		return
	}
	go cmd.Wait()
}
