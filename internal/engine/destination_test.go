package engine_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/gocryptor/internal/engine"
)

// destinationCase is a single case from testdata/destinations.yml.
type destinationCase struct {
	Name       string `yaml:"name"`
	Path       string `yaml:"path"`
	Extension  string `yaml:"extension"`
	Encrypting bool   `yaml:"encrypting"`
	Want       string `yaml:"want"`
	Invalid    bool   `yaml:"invalid"`
}

func loadDestinationCases(t *testing.T) []destinationCase {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", "destinations.yml"))
	require.NoError(t, err)

	var cases []destinationCase
	require.NoError(t, yaml.Unmarshal(data, &cases))
	require.NotEmpty(t, cases)

	return cases
}

func TestDestination(t *testing.T) {
	t.Parallel()

	for _, tc := range loadDestinationCases(t) {
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()

			job := engine.Job{Encrypting: tc.Encrypting, Extension: tc.Extension}

			got, err := job.Destination(filepath.FromSlash(tc.Path))
			if tc.Invalid {
				require.ErrorIs(t, err, engine.ErrNoSuffix)
				assert.Equal(t, engine.StatusInvalid, engine.Classify(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tc.Want), got)
		})
	}
}

func TestValidExtension(t *testing.T) {
	t.Parallel()

	for ext, want := range map[string]bool{
		".pyflk":  true,
		".a_1":    true,
		".":       false,
		"pyflk":   false,
		".py.flk": false,
		".py flk": false,
		"":        false,
	} {
		assert.Equal(t, want, engine.ValidExtension(ext), ext)
	}
}
