package docker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDaemon struct {
	mu        sync.Mutex
	pingErr   error
	launchErr error
	probe     func(attempt int) error
	launches  int
	probes    int
}

func (f *fakeDaemon) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeDaemon) Launch(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launches++
	return f.launchErr
}

func (f *fakeDaemon) Probe(ctx context.Context) error {
	f.mu.Lock()
	f.probes++
	n := f.probes
	f.mu.Unlock()
	return f.probe(n)
}

var errDown = errors.New("connection refused")

func TestWaitReadyAlreadyRunning(t *testing.T) {
	d := &fakeDaemon{probe: func(int) error { return errDown }}

	err := WaitReady(context.Background(), d, ReadyOptions{Timeout: time.Second, PollInterval: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 0, d.launches)
	assert.Equal(t, 0, d.probes)
}

func TestWaitReadyLaunchesAndPolls(t *testing.T) {
	d := &fakeDaemon{
		pingErr: errDown,
		probe: func(n int) error {
			if n < 3 {
				return errDown
			}
			return nil
		},
	}

	err := WaitReady(context.Background(), d, ReadyOptions{Timeout: 5 * time.Second, PollInterval: 5 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 1, d.launches)
	assert.Equal(t, 3, d.probes)
}

func TestWaitReadyTimeout(t *testing.T) {
	d := &fakeDaemon{pingErr: errDown, probe: func(int) error { return errDown }}

	err := WaitReady(context.Background(), d, ReadyOptions{Timeout: 50 * time.Millisecond, PollInterval: 5 * time.Millisecond})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, err, errDown)

	var nre *NotReadyError
	require.ErrorAs(t, err, &nre)
	assert.Equal(t, 50*time.Millisecond, nre.Timeout)
	assert.GreaterOrEqual(t, nre.Attempts, 1)
	assert.Contains(t, err.Error(), "did not become ready within 50ms")
}

func TestWaitReadyLaunchFailure(t *testing.T) {
	d := &fakeDaemon{pingErr: errDown, launchErr: errors.New("no such application"), probe: func(int) error { return nil }}

	err := WaitReady(context.Background(), d, ReadyOptions{Timeout: time.Second, PollInterval: time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such application")
	assert.Equal(t, 0, d.probes)
}

func TestWaitReadyCancelled(t *testing.T) {
	d := &fakeDaemon{pingErr: errDown, probe: func(int) error { return errDown }}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	err := WaitReady(ctx, d, ReadyOptions{Timeout: time.Minute, PollInterval: 5 * time.Millisecond})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrNotReady)
}

func TestWaitReadySocketWakesProbe(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "docker.sock")

	d := &fakeDaemon{
		pingErr: errDown,
		probe: func(int) error {
			if _, err := os.Stat(socket); err != nil {
				return errDown
			}
			return nil
		},
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(socket, nil, 0o600)
	}()

	start := time.Now()
	err := WaitReady(context.Background(), d, ReadyOptions{
		Timeout:      10 * time.Second,
		PollInterval: time.Hour,
		Socket:       socket,
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWaitReadyZeroOptionsUseDefaults(t *testing.T) {
	d := &fakeDaemon{
		pingErr: errDown,
		probe: func(n int) error {
			if n < 2 {
				return errDown
			}
			return nil
		},
	}

	err := WaitReady(context.Background(), d, ReadyOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, d.probes)
}
