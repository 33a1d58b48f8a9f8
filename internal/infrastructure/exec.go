package infrastructure

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/mattn/go-shellwords"
	"github.com/yourusername/mediaget-go/internal/domain"
	"github.com/yourusername/mediaget-go/internal/sequence"
	"go.uber.org/zap"
)

// CommandRunner spawns the commands configured to run after a transfer.
// Processes are not waited for.
type CommandRunner struct {
	logger  *zap.Logger
	dumpOut io.Writer
	stdout  io.Writer
	stderr  io.Writer
}

// NewCommandRunner creates a command runner
func NewCommandRunner(logger *zap.Logger) *CommandRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandRunner{
		logger:  logger,
		dumpOut: os.Stderr,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// Run runs each command in order, stopping at the first failure. Sequences
// in every argument are replaced using table.
func (r *CommandRunner) Run(commands []string, table *sequence.Table, opts domain.ExecOptions) error {
	for _, command := range commands {
		if err := r.runOne(command, table, opts); err != nil {
			return err
		}
	}
	return nil
}

func (r *CommandRunner) runOne(command string, table *sequence.Table, opts domain.ExecOptions) error {
	argv, err := shellwords.Parse(command)
	if err != nil {
		return domain.NewTransferError(domain.ReasonExec, err,
			"while executing a command asynchronously: %v", err)
	}
	if len(argv) == 0 {
		return domain.NewTransferError(domain.ReasonExec, nil,
			"while executing a command asynchronously: empty command")
	}

	for i, arg := range argv {
		argv[i], err = table.Apply(arg)
		if err != nil {
			return domain.NewTransferError(domain.ReasonTemplate, err, "%v", err)
		}
	}

	escaped := ShellEscapeCommand(argv[0], argv[1:]...)
	if opts.DumpArgv {
		fmt.Fprintf(r.dumpOut, "exec: %s\n  => %s\n", command, escaped)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	if opts.EnableStdout {
		cmd.Stdout = r.stdout
	}
	if opts.EnableStderr {
		cmd.Stderr = r.stderr
	}

	if err := cmd.Start(); err != nil {
		r.logger.Error("Failed to spawn command",
			zap.String("command", escaped),
			zap.Error(err))
		return domain.NewTransferError(domain.ReasonExec, err,
			"while spawning a new process: %v", err)
	}

	r.logger.Debug("Spawned command",
		zap.String("command", escaped),
		zap.Int("pid", cmd.Process.Pid))

	go func() {
		if err := cmd.Wait(); err != nil {
			r.logger.Warn("Command exited with error",
				zap.String("command", escaped),
				zap.Error(err))
		}
	}()

	return nil
}
