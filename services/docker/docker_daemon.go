package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/containerd/errdefs"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"

	"github.com/ezenkico/deploy-commander/devmount/models"
)

// DockerDaemon implements interfaces.Daemon for a local Docker Engine.
type DockerDaemon struct {
	client   *client.Client
	settings models.DaemonSettings
	log      *zap.SugaredLogger
}

// NewDockerDaemon connects using environment variables (e.g. DOCKER_HOST).
func NewDockerDaemon(settings models.DaemonSettings, log *zap.SugaredLogger) (*DockerDaemon, error) {
	c, err := client.New(
		client.FromEnv,
	)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &DockerDaemon{
		client:   c,
		settings: settings,
		log:      log,
	}, nil
}

func (d *DockerDaemon) Close() error {
	return d.client.Close()
}

func (d *DockerDaemon) Ping(ctx context.Context) error {
	if _, err := d.client.Ping(ctx, client.PingOptions{}); err != nil {
		return fmt.Errorf("ping docker daemon: %w", err)
	}
	return nil
}

func (d *DockerDaemon) Launch(ctx context.Context) error {
	argv := d.settings.LaunchCommand
	if len(argv) == 0 {
		return fmt.Errorf("no docker launch command configured")
	}

	d.log.Infow("launching docker", "command", argv)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("launch docker %v: %w: %s", argv, err, bytes.TrimSpace(stderr.Bytes()))
	}

	return nil
}

// Probe runs the probe image to completion. The image is pulled when the
// engine does not have it yet.
func (d *DockerDaemon) Probe(ctx context.Context) error {
	image := d.settings.ProbeImage
	name := ProbeContainerName(uuid.New())

	id, err := d.createProbe(ctx, name, image)
	if errdefs.IsNotFound(err) {
		if perr := d.pullImage(ctx, image); perr != nil {
			return perr
		}
		id, err = d.createProbe(ctx, name, image)
	}
	if err != nil {
		return fmt.Errorf("create probe container %q: %w", name, err)
	}

	defer func() {
		// The probe context may already be done; removal is best effort.
		rctx := context.WithoutCancel(ctx)
		if _, err := d.client.ContainerRemove(rctx, id, client.ContainerRemoveOptions{Force: true}); err != nil && !errdefs.IsNotFound(err) {
			d.log.Warnw("remove probe container", "container", name, "error", err)
		}
	}()

	if _, err := d.client.ContainerStart(ctx, id, client.ContainerStartOptions{}); err != nil {
		return fmt.Errorf("start probe container %q: %w", name, err)
	}

	waitBodyC := d.client.ContainerWait(ctx, id, client.ContainerWaitOptions{})
	var statusCode int64

	select {
	case err := <-waitBodyC.Error:
		if err != nil {
			return fmt.Errorf("wait probe container %q: %w", name, err)
		}
	case res := <-waitBodyC.Result:
		statusCode = res.StatusCode
	case <-ctx.Done():
		return ctx.Err()
	}

	d.logProbeOutput(ctx, id, name)

	if statusCode != 0 {
		return fmt.Errorf("probe container %q exited with status %d", name, statusCode)
	}

	return nil
}

func (d *DockerDaemon) createProbe(ctx context.Context, name, image string) (string, error) {
	created, err := d.client.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config: &container.Config{
			Image: image,
			Labels: map[string]string{
				ProbeLabel: "true",
			},
		},
		HostConfig: &container.HostConfig{},
		Name:       name,
		Image:      image,
	})
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (d *DockerDaemon) pullImage(ctx context.Context, image string) error {
	d.log.Infow("pulling probe image", "image", image)

	resp, err := d.client.ImagePull(ctx, image, client.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("pull probe image %q: %w", image, err)
	}
	defer resp.Close()

	// The pull completes once the progress stream is drained.
	if _, err := io.Copy(io.Discard, resp); err != nil {
		return fmt.Errorf("pull probe image %q: %w", image, err)
	}

	return nil
}

func (d *DockerDaemon) logProbeOutput(ctx context.Context, id, name string) {
	rc, err := d.client.ContainerLogs(ctx, id, client.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		d.log.Debugw("probe logs unavailable", "container", name, "error", err)
		return
	}
	defer rc.Close()

	stdout, stderr, err := splitLogs(rc)
	if err != nil {
		d.log.Debugw("read probe logs", "container", name, "error", err)
		return
	}

	d.log.Debugw("probe finished",
		"container", name,
		"stdout_bytes", len(stdout),
		"stderr", string(bytes.TrimSpace(stderr)),
	)
}
