package compose

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// CommandError is returned when the compose CLI exits non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s exited with status %d", strings.Join(e.Args, " "), e.ExitCode)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ComposeCLI implements interfaces.Orchestrator by shelling out to
// docker-compose (or "docker compose").
type ComposeCLI struct {
	Command []string
	Dir     string
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *zap.SugaredLogger
}

// UpArgs builds "-f <file>... up -d <service>...".
func UpArgs(files []string, services []string) []string {
	args := make([]string, 0, 2*len(files)+2+len(services))
	for _, f := range files {
		args = append(args, "-f", f)
	}
	args = append(args, "up", "-d")
	return append(args, services...)
}

func (c *ComposeCLI) Up(ctx context.Context, files []string, services []string) error {
	if len(c.Command) == 0 {
		return errors.New("no compose command configured")
	}
	if len(files) == 0 {
		return errors.New("no compose files to run")
	}

	argv := append(append([]string{}, c.Command...), UpArgs(files, services)...)

	if c.Logger != nil {
		c.Logger.Infow("starting services", "services", services, "command", argv)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = c.Dir
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	if err := cmd.Run(); err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return &CommandError{Args: argv, ExitCode: ee.ExitCode(), Err: err}
		}
		return fmt.Errorf("run %s: %w", argv[0], err)
	}

	return nil
}
