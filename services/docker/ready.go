package docker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ezenkico/deploy-commander/devmount/interfaces"
	"github.com/ezenkico/deploy-commander/devmount/models"
)

// ReadyOptions configures WaitReady. Zero Timeout and PollInterval fall back
// to models.DefaultReadyTimeout and models.DefaultPollInterval.
type ReadyOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	// Socket, when set, is watched so that its creation triggers a probe
	// without waiting for the next tick.
	Socket string
	Logger *zap.SugaredLogger
}

// WaitReady returns once the daemon answers. When the first ping fails the
// daemon is launched and probed every PollInterval until a probe succeeds or
// Timeout elapses, in which case a *NotReadyError is returned.
func WaitReady(ctx context.Context, daemon interfaces.Daemon, opts ReadyOptions) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = models.DefaultReadyTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = models.DefaultPollInterval
	}

	err := daemon.Ping(ctx)
	if err == nil {
		log.Debugw("docker daemon is running")
		return nil
	}
	log.Infow("docker daemon not responding", "error", err)

	if err := daemon.Launch(ctx); err != nil {
		return fmt.Errorf("start docker daemon: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	wake := make(chan struct{}, 1)
	if opts.Socket != "" {
		stop, err := watchSocket(waitCtx, opts.Socket, wake)
		if err != nil {
			log.Warnw("cannot watch docker socket, polling only", "socket", opts.Socket, "error", err)
		} else {
			defer func() { _ = stop() }()
		}
	}

	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	started := time.Now()
	attempts := 0
	var last error

	for {
		attempts++
		last = daemon.Probe(waitCtx)
		if last == nil {
			log.Infow("docker daemon ready", "attempts", attempts, "elapsed", time.Since(started))
			return nil
		}
		log.Debugw("docker probe failed", "attempt", attempts, "error", last)

		select {
		case <-waitCtx.Done():
			if err := ctx.Err(); err != nil {
				return err
			}
			return &NotReadyError{Timeout: opts.Timeout, Attempts: attempts, Last: last}
		case <-wake:
		case <-ticker.C:
		}
	}
}
