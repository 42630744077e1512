package docker

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(stream byte, payload string) []byte {
	header := make([]byte, 8)
	header[0] = stream
	binary.BigEndian.PutUint32(header[4:], uint32(len(payload)))
	return append(header, payload...)
}

func TestSplitLogs(t *testing.T) {
	var src bytes.Buffer
	src.Write(frame(1, "Hello from Docker!\n"))
	src.Write(frame(2, "warning\n"))
	src.Write(frame(1, "bye\n"))

	stdout, stderr, err := splitLogs(&src)
	require.NoError(t, err)
	assert.Equal(t, "Hello from Docker!\nbye\n", string(stdout))
	assert.Equal(t, "warning\n", string(stderr))
}

func TestSplitLogsSystemError(t *testing.T) {
	var src bytes.Buffer
	src.Write(frame(1, "partial\n"))
	src.Write(frame(3, "daemon exploded"))

	stdout, _, err := splitLogs(&src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daemon exploded")
	assert.Equal(t, "partial\n", string(stdout))
}

func TestProbeContainerName(t *testing.T) {
	id := uuid.MustParse("0b1c6a4e-8f0e-4a7c-9d3e-2f1a5b6c7d8e")
	assert.Equal(t, "devmount-probe-0b1c6a4e-8f0e-4a7c-9d3e-2f1a5b6c7d8e", ProbeContainerName(id))
}

func TestParsePIDs(t *testing.T) {
	pids, err := parsePIDs([]byte("123\n 456\n\n"))
	require.NoError(t, err)
	assert.Equal(t, []int{123, 456}, pids)

	_, err = parsePIDs([]byte("12a\n"))
	assert.Error(t, err)

	pids, err = parsePIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, pids)
}
