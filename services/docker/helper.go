package docker

import (
	"bytes"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/moby/moby/api/pkg/stdcopy"
)

const ProbeLabel = "devmount.probe"

func ProbeContainerName(id uuid.UUID) string {
	return fmt.Sprintf("devmount-probe-%s", id.String())
}

// splitLogs separates a multiplexed (non-TTY) container log stream.
func splitLogs(src io.Reader) (stdout, stderr []byte, err error) {
	var out, errOut bytes.Buffer
	if _, err := stdcopy.StdCopy(&out, &errOut, src); err != nil {
		return out.Bytes(), errOut.Bytes(), fmt.Errorf("demux container logs: %w", err)
	}
	return out.Bytes(), errOut.Bytes(), nil
}
