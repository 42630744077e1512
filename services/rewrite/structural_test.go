package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ezenkico/deploy-commander/devmount/models"
)

type composeDoc struct {
	Services map[string]map[string]interface{} `yaml:"services"`
}

func TestRewriteStructural(t *testing.T) {
	in := []byte(`services:
  rover:
    image: rover
    volumes:
      - ./src:/app/src
      - "./quoted:/app/quoted"
      - ./cache:/app/cache:cached
      - type: bind
        source: ./bin
        target: /app/bin
  db:
    image: postgres
    volumes: [./db:/var/lib/postgresql/data]
`)

	out, err := RewriteStructural(in, models.NewTargetSet("rover"), models.ConsistencyDelegated)
	require.NoError(t, err)

	var doc composeDoc
	require.NoError(t, yaml.Unmarshal(out, &doc))

	vols, ok := doc.Services["rover"]["volumes"].([]interface{})
	require.True(t, ok)
	require.Len(t, vols, 4)
	assert.Equal(t, "./src:/app/src:delegated", vols[0])
	assert.Equal(t, "./quoted:/app/quoted", vols[1])
	assert.Equal(t, "./cache:/app/cache:cached", vols[2])
	assert.IsType(t, map[string]interface{}{}, vols[3])

	_, has := doc.Services["db"]["volumes"]
	assert.False(t, has)
	assert.Equal(t, "postgres", doc.Services["db"]["image"])
}

func TestRewriteStructuralErrors(t *testing.T) {
	_, err := RewriteStructural([]byte("services: [\n"), models.NewTargetSet("rover"), "")
	assert.Error(t, err)

	_, err = RewriteStructural([]byte("- a\n- b\n"), models.NewTargetSet("rover"), "")
	assert.ErrorIs(t, err, ErrNotMapping)
}

func TestRewriteStructuralNoServices(t *testing.T) {
	in := []byte("volumes:\n  data: {}\n")
	out, err := RewriteStructural(in, models.NewTargetSet("rover"), "")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
