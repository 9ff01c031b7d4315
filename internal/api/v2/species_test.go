package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/pugmark/internal/species"
)

func TestListSpecies(t *testing.T) {
	t.Parallel()
	env := setupTestEnvironment(t, fastTiming())

	rec := env.do(http.MethodGet, "/api/v2/species", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[SpeciesListResponse](t, rec)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Species, 2)
	assert.Equal(t, "0", resp.Species[0].ID)
	assert.Equal(t, "Elephant", resp.Species[0].Name)
	assert.Equal(t, "1", resp.Species[1].ID)
	assert.Equal(t, "Tiger", resp.Species[1].Name)
}

func TestGetSpecies(t *testing.T) {
	t.Parallel()
	env := setupTestEnvironment(t, fastTiming())

	tests := []struct {
		name       string
		id         string
		wantStatus int
		wantName   string
	}{
		{"tiger", "1", http.StatusOK, "Tiger"},
		{"elephant", "0", http.StatusOK, "Elephant"},
		{"unknown class", "unknown", http.StatusNotFound, ""},
		{"out of range", "7", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := env.do(http.MethodGet, "/api/v2/species/"+tt.id, nil, "")
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				resp := decode[ErrorResponse](t, rec)
				assert.Equal(t, "Species not found", resp.Message)
				return
			}
			rec2 := decode[species.Record](t, rec)
			assert.Equal(t, tt.wantName, rec2.Name)
			assert.NotEmpty(t, rec2.ScientificName)
		})
	}
}
