//go:build !linux && !darwin

package docker

import "context"

// Deprioritize is a no-op where setpriority is unavailable.
func (d *DockerDaemon) Deprioritize(ctx context.Context) error {
	return nil
}
