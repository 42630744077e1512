package compose

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezenkico/deploy-commander/devmount/models"
)

const primary = `services:
  rover:
    image: rover
    volumes:
      - ./src:/app/src

  db:
    image: postgres
    volumes:
      - ./db:/var/lib/postgresql/data
`

const override = `services:
  rover:
    volumes:
      - ./extra:/app/extra

  db:
    volumes:
      - ./seed:/docker-entrypoint-initdb.d
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestStagePrimaryAndOverride(t *testing.T) {
	dir := writeProject(t, map[string]string{
		models.PrimaryComposeFile:  primary,
		models.OverrideComposeFile: override,
	})

	staged, err := Stage(dir, models.NewTargetSet("rover"), StageOptions{Mode: models.ConsistencyDelegated})
	require.NoError(t, err)
	require.Len(t, staged.Files, 2)

	assert.Equal(t, filepath.Join(dir, ".tmp.docker-compose.yml"), staged.Files[0])
	assert.Equal(t, filepath.Join(dir, ".tmp.docker-compose.override.yml"), staged.Files[1])

	got, err := os.ReadFile(staged.Files[0])
	require.NoError(t, err)
	assert.Equal(t, `services:
  rover:
    image: rover
    volumes:
      - ./src:/app/src:delegated

  db:
    image: postgres
`, string(got))

	got, err = os.ReadFile(staged.Files[1])
	require.NoError(t, err)
	assert.Equal(t, `services:
  rover:
    volumes:
      - ./extra:/app/extra:delegated

  db:
`, string(got))

	// originals are untouched
	orig, err := os.ReadFile(filepath.Join(dir, models.PrimaryComposeFile))
	require.NoError(t, err)
	assert.Equal(t, primary, string(orig))

	require.NoError(t, staged.Cleanup())
	require.NoError(t, staged.Cleanup())
	for _, f := range staged.Files {
		assert.NoFileExists(t, f)
	}
}

func TestStageWithoutOverride(t *testing.T) {
	dir := writeProject(t, map[string]string{models.PrimaryComposeFile: primary})

	staged, err := Stage(dir, models.NewTargetSet("db"), StageOptions{})
	require.NoError(t, err)
	defer staged.Cleanup()

	require.Len(t, staged.Files, 1)
	assert.FileExists(t, staged.Files[0])
	assert.NoFileExists(t, filepath.Join(dir, ".tmp.docker-compose.override.yml"))
}

func TestStageMissingPrimary(t *testing.T) {
	dir := writeProject(t, map[string]string{models.OverrideComposeFile: override})

	_, err := Stage(dir, models.NewTargetSet("rover"), StageOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStageStructuralParseErrorCleansUp(t *testing.T) {
	dir := writeProject(t, map[string]string{
		models.PrimaryComposeFile:  primary,
		models.OverrideComposeFile: "services: [\n",
	})

	_, err := Stage(dir, models.NewTargetSet("rover"), StageOptions{Structural: true})
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, ".tmp.docker-compose.yml"))
}

func TestStagedName(t *testing.T) {
	assert.Equal(t, filepath.Join("a", "b", ".tmp.docker-compose.yml"), StagedName(filepath.Join("a", "b", "docker-compose.yml")))
}
