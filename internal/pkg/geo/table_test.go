package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_SingleDistrict(t *testing.T) {
	got := DefaultTable.Resolve([]string{"District 1"})
	assert.Equal(t, []string{"Bacacay", "Malilipot", "Malinao", "Santo Domingo", "Tiwi", "Tabaco"}, got)
}

func TestResolve_UnionInTableOrder(t *testing.T) {
	got := DefaultTable.Resolve([]string{"District 3", "District 2"})
	assert.Equal(t, []string{"Camalig", "Guinobatan", "Ligao", "Jovellar", "Legazpi", "Daraga", "Manito", "Rapu-Rapu"}, got)
}

func TestResolve_UnknownDistrictContributesNothing(t *testing.T) {
	assert.Empty(t, DefaultTable.Resolve([]string{"District 9"}))
	assert.Equal(t, DefaultTable.Resolve([]string{"District 2"}), DefaultTable.Resolve([]string{"District 9", "District 2"}))
}

func TestResolve_EmptyInput(t *testing.T) {
	assert.Empty(t, DefaultTable.Resolve(nil))
	assert.Empty(t, DefaultTable.Resolve([]string{}))
}

func TestResolve_CaseAndWhitespaceInsensitiveDistrictNames(t *testing.T) {
	assert.Equal(t, DefaultTable.Resolve([]string{"District 1"}), DefaultTable.Resolve([]string{"  district   1 "}))
}

func TestResolve_DeduplicatesSharedLocalities(t *testing.T) {
	tbl := MustTable("t1", []District{
		{Name: "North", Localities: []string{"Tiwi", "Tabaco"}},
		{Name: "Coast", Localities: []string{"tabaco", "Bacacay"}},
	})
	assert.Equal(t, []string{"Tiwi", "Tabaco", "Bacacay"}, tbl.Resolve([]string{"North", "Coast", "North"}))
}

func TestNewTable_Validation(t *testing.T) {
	_, err := NewTable("", nil)
	assert.ErrorContains(t, err, "version is required")

	_, err = NewTable("v1", []District{{Name: " "}})
	assert.ErrorContains(t, err, "has no name")

	_, err = NewTable("v1", []District{{Name: "A"}, {Name: "a"}})
	assert.ErrorContains(t, err, "duplicate district")
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "districts.yaml")
	body := "version: test-2\ndistricts:\n  - name: District 1\n    localities: [Tiwi, Tabaco]\n  - name: District 2\n    localities:\n      - Ligao\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	tbl, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, "test-2", tbl.Version)
	assert.Equal(t, []string{"District 1", "District 2"}, tbl.Names())
	assert.Equal(t, []string{"Ligao"}, tbl.Resolve([]string{"District 2"}))
}

func TestLoadTable_MissingFile(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read district table")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "santo domingo", Normalize("  Santo\tDOMINGO "))
	assert.Equal(t, "", Normalize("   "))
	// Precomposed and decomposed forms compare equal.
	assert.Equal(t, Normalize("Pe\u00f1afrancia"), Normalize("Pen\u0303afrancia"))
}
