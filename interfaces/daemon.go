package interfaces

import "context"

// Daemon is the container engine the services are brought up on.
type Daemon interface {
	// Ping returns nil when the engine answers API requests.
	Ping(ctx context.Context) error
	// Probe runs a throwaway container and returns nil once it exits cleanly.
	Probe(ctx context.Context) error
	// Launch starts the engine application. It does not wait for readiness.
	Launch(ctx context.Context) error
}

// Deprioritizer is implemented by daemons whose virtualization helper can be
// niced once the engine is up.
type Deprioritizer interface {
	Deprioritize(ctx context.Context) error
}
