//go:build linux || darwin

package docker

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Deprioritize renices every process matching the configured helper pattern.
// Having no matching process is not an error.
func (d *DockerDaemon) Deprioritize(ctx context.Context) error {
	if d.settings.HelperNice == nil || d.settings.HelperPattern == "" {
		return nil
	}

	pids, err := findProcesses(ctx, d.settings.HelperPattern)
	if err != nil {
		return err
	}

	nice := *d.settings.HelperNice
	var errs []error
	for _, pid := range pids {
		if err := unix.Setpriority(unix.PRIO_PROCESS, pid, nice); err != nil {
			errs = append(errs, fmt.Errorf("renice %d: %w", pid, err))
			continue
		}
		d.log.Debugw("reniced docker helper", "pid", pid, "nice", nice)
	}

	return errors.Join(errs...)
}
