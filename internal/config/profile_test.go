package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, content string, ext string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "profile."+ext)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validYAML = `
name: goblin-miner
telemetryBaseUrl: http://127.0.0.1:9191
varianceLevel: aggressive
policy:
  resourceIds: [1, 2]
  gatherAction: Mine
  foodThreshold: 50
  escapeHealthThreshold: 20
  targetIds: [10]
  lootIds: [20]
  bankObjectIds: [30]
`

func TestLoadValidYAMLProfile(t *testing.T) {
	path := writeProfile(t, validYAML, "yaml")
	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "goblin-miner", p.Name)
	assert.Equal(t, VarianceAggressive, p.VarianceLevel)
	assert.Equal(t, 4.0, p.Calibration.PxPerTile) // default applied
	assert.Equal(t, []int{1, 2}, p.Policy.ResourceIDs)
}

func TestLoadRejectsNegativeIDs(t *testing.T) {
	path := writeProfile(t, `
name: bad
policy:
  resourceIds: [-1]
`, "yaml")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsOutOfRangeThreshold(t *testing.T) {
	path := writeProfile(t, `
name: bad
policy:
  foodThreshold: 150
`, "yaml")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownVarianceLevel(t *testing.T) {
	path := writeProfile(t, `
name: bad
varianceLevel: ludicrous
`, "yaml")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadDefaultsVarianceLevelToModerate(t *testing.T) {
	path := writeProfile(t, `name: defaulted`, "yaml")
	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, VarianceModerate, p.VarianceLevel)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
