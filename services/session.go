package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ezenkico/deploy-commander/devmount/interfaces"
	"github.com/ezenkico/deploy-commander/devmount/models"
	"github.com/ezenkico/deploy-commander/devmount/services/compose"
	"github.com/ezenkico/deploy-commander/devmount/services/docker"
)

var ErrNoServices = errors.New("at least one service name is required")

// Session brings up a subset of compose services with their source volumes.
type Session struct {
	Config       models.Configuration
	Daemon       interfaces.Daemon // nil skips the readiness gate
	Orchestrator interfaces.Orchestrator
	Logger       *zap.SugaredLogger
}

// Up waits for the daemon, stages the rewritten compose files and starts the
// named services. Staged files are removed on return, and as soon as ctx is
// cancelled.
func (s *Session) Up(ctx context.Context, serviceNames []string) error {
	if len(serviceNames) == 0 {
		return ErrNoServices
	}

	log := s.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	cfg := s.Config.WithDefaults()
	targets := models.NewTargetSet(serviceNames...)

	if s.Daemon != nil && !cfg.Daemon.Skip {
		err := docker.WaitReady(ctx, s.Daemon, docker.ReadyOptions{
			Timeout:      cfg.Daemon.ReadyTimeout.Std(),
			PollInterval: cfg.Daemon.PollInterval.Std(),
			Socket:       cfg.Daemon.Socket,
			Logger:       log,
		})
		if err != nil {
			return err
		}

		if dp, ok := s.Daemon.(interfaces.Deprioritizer); ok {
			if err := dp.Deprioritize(ctx); err != nil {
				log.Warnw("could not deprioritize docker helper", "error", err)
			}
		}
	}

	staged, err := compose.Stage(cfg.Dir, targets, compose.StageOptions{
		Mode:       cfg.Mode,
		Structural: cfg.Structural,
		Logger:     log,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := staged.Cleanup(); err != nil {
			log.Warnw("remove staged compose files", "error", err)
		}
	}()
	stop := context.AfterFunc(ctx, func() { _ = staged.Cleanup() })
	defer stop()

	if err := s.Orchestrator.Up(ctx, staged.Files, targets.Names()); err != nil {
		return fmt.Errorf("compose up %v: %w", targets.Names(), err)
	}

	log.Infow("services started", "services", targets.Names())
	return nil
}
