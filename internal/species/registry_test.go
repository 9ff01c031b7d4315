package species

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/pugmark/internal/errors"
)

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	reg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "1"}, reg.IDs())
	assert.Equal(t, 2, reg.Len())

	elephant, err := reg.Lookup("0")
	require.NoError(t, err)
	assert.Equal(t, "Elephant", elephant.Name)
	assert.Equal(t, "Elephas maximus", elephant.ScientificName)
	assert.Equal(t, "Endangered", elephant.ConservationStatus)
	assert.Equal(t, "Grasslands, tropical evergreen forests, semi-evergreen forests.", elephant.Habitat)
	assert.True(t, strings.HasPrefix(elephant.Description, "Asian elephants are the largest"))
	assert.NotContains(t, elephant.Description, "\n")

	tiger, err := reg.Lookup("1")
	require.NoError(t, err)
	assert.Equal(t, "Tiger", tiger.Name)
	assert.Equal(t, "Panthera tigris", tiger.ScientificName)
	assert.Equal(t, tiger, reg.At(1))
}

func TestLookupOutsideClosedSet(t *testing.T) {
	t.Parallel()

	reg, err := Default()
	require.NoError(t, err)

	for _, id := range []string{"2", "unknown", "", "tiger"} {
		rec, err := reg.Lookup(id)
		require.Error(t, err, id)
		assert.True(t, errors.IsNotFound(err), id)
		assert.Empty(t, rec)
	}
}

func TestParseRejectsBadRegistries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"empty document", ""},
		{"empty list", "species: []\n"},
		{"malformed yaml", "species: [\n"},
		{"unknown field", "species:\n  - id: a\n    name: A\n    colour: red\n"},
		{"missing id", "species:\n  - name: A\n"},
		{"missing name", "species:\n  - id: a\n"},
		{"duplicate id", "species:\n  - id: a\n    name: A\n  - id: a\n    name: B\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			reg, err := Parse(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Nil(t, reg)
			assert.True(t, errors.IsConfiguration(err))
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "species.yaml")
	require.NoError(t, os.WriteFile(path, []byte("species:\n  - id: leopard\n    name: Leopard\n"), 0o600))

	reg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"leopard"}, reg.IDs())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestAllReturnsCopy(t *testing.T) {
	t.Parallel()

	reg, err := Default()
	require.NoError(t, err)

	all := reg.All()
	all[0].Name = "changed"

	rec, err := reg.Lookup("0")
	require.NoError(t, err)
	assert.Equal(t, "Elephant", rec.Name)
}
