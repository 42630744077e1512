package interfaces

import "context"

type Orchestrator interface {
	// Up starts services in the background from the given compose files.
	Up(ctx context.Context, files []string, services []string) error
}
