package models

import (
	"runtime"
	"time"
)

const (
	PrimaryComposeFile  = "docker-compose.yml"
	OverrideComposeFile = "docker-compose.override.yml"
	StagedFilePrefix    = ".tmp."

	DefaultReadyTimeout = 120 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
)

// Configuration is read from .devmount.json (all fields optional) and then
// overridden by command-line flags.
type Configuration struct {
	Dir            string          `json:"dir,omitempty"`             // project directory
	Mode           ConsistencyMode `json:"mode,omitempty"`            // appended consistency mode
	Structural     bool            `json:"structural,omitempty"`      // use the YAML tree rewriter
	ComposeCommand []string        `json:"compose_command,omitempty"` // e.g. ["docker", "compose"]
	Daemon         DaemonSettings  `json:"daemon"`
}

type DaemonSettings struct {
	Skip          bool     `json:"skip,omitempty"`
	LaunchCommand []string `json:"launch_command,omitempty"`
	ProbeImage    string   `json:"probe_image,omitempty"`
	Socket        string   `json:"socket,omitempty"` // watched for creation while waiting
	ReadyTimeout  Duration `json:"ready_timeout,omitempty"`
	PollInterval  Duration `json:"poll_interval,omitempty"`
	HelperPattern string   `json:"helper_pattern,omitempty"` // pgrep -f pattern of the VM helper
	HelperNice    *int     `json:"helper_nice,omitempty"`
}

// WithDefaults returns a copy with every unset field filled in.
func (c Configuration) WithDefaults() Configuration {
	if c.Dir == "" {
		c.Dir = "."
	}
	if c.Mode == "" {
		c.Mode = ConsistencyDelegated
	}
	if len(c.ComposeCommand) == 0 {
		c.ComposeCommand = []string{"docker-compose"}
	}

	d := &c.Daemon
	if len(d.LaunchCommand) == 0 {
		d.LaunchCommand = defaultLaunchCommand()
	}
	if d.ProbeImage == "" {
		d.ProbeImage = "hello-world"
	}
	if d.ReadyTimeout <= 0 {
		d.ReadyTimeout = Duration(DefaultReadyTimeout)
	}
	if d.PollInterval <= 0 {
		d.PollInterval = Duration(DefaultPollInterval)
	}
	if d.HelperPattern == "" {
		d.HelperPattern = "com.docker.hyperkit|com.docker.virtualization"
	}
	if d.HelperNice == nil {
		n := 19
		d.HelperNice = &n
	}

	return c
}

func defaultLaunchCommand() []string {
	if runtime.GOOS == "darwin" {
		return []string{"open", "--background", "-a", "Docker"}
	}
	return []string{"systemctl", "--user", "start", "docker-desktop"}
}
