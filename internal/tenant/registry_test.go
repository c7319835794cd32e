package tenant

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultTable() Table {
	return Table{
		Keys: map[string]string{
			"tenantA_key": "tenantA",
			"tenantB_key": "tenantB",
		},
		DisplayNames: map[string]string{
			"tenantA": "Tenant A",
			"tenantB": "Tenant B",
		},
	}
}

func TestRegistry_Resolve(t *testing.T) {
	reg, err := NewRegistry(defaultTable())
	require.NoError(t, err)

	t.Run("Known credential", func(t *testing.T) {
		rec, err := reg.Resolve("tenantA_key")
		require.NoError(t, err)
		assert.Equal(t, Record{ID: "tenantA", DisplayName: "Tenant A"}, rec)
	})

	t.Run("Unknown credential", func(t *testing.T) {
		rec, err := reg.Resolve("bogus_key")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, Record{}, rec)
	})

	t.Run("Empty credential", func(t *testing.T) {
		_, err := reg.Resolve("")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Tenant ID is not a credential", func(t *testing.T) {
		_, err := reg.Resolve("tenantA")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Credentials are case sensitive", func(t *testing.T) {
		_, err := reg.Resolve("TENANTA_KEY")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRegistry_Tenants(t *testing.T) {
	table := defaultTable()
	table.Keys["tenantA_rotated"] = "tenantA"
	table.Keys["zeta_key"] = "zeta"

	reg, err := NewRegistry(table)
	require.NoError(t, err)

	assert.Equal(t, []string{"tenantA", "tenantB", "zeta"}, reg.TenantIDs())

	rec, ok := reg.Lookup("zeta")
	require.True(t, ok)
	assert.Equal(t, "zeta", rec.DisplayName, "display name falls back to the id")

	a1, _ := reg.Resolve("tenantA_key")
	a2, _ := reg.Resolve("tenantA_rotated")
	assert.Equal(t, a1, a2)

	_, ok = reg.Lookup("tenantC")
	assert.False(t, ok)
}

func TestNewRegistry_RejectsUnsafeIDs(t *testing.T) {
	for _, id := range []string{"", ".", "..", "../tenantB", `a\b`, "a/b"} {
		t.Run(id, func(t *testing.T) {
			_, err := NewRegistry(Table{Keys: map[string]string{"k": id}})
			assert.ErrorIs(t, err, ErrInvalidTenantID)
		})
	}
}

func TestNewRegistry_RejectsCaseVariantIDs(t *testing.T) {
	_, err := NewRegistry(Table{Keys: map[string]string{"k1": "acme", "k2": "Acme"}})
	assert.ErrorIs(t, err, ErrInvalidTenantID)

	// Several keys for one tenant are fine.
	reg, err := NewRegistry(Table{Keys: map[string]string{"k1": "acme", "k2": "acme"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, reg.TenantIDs())
}

func TestNewRegistry_RejectsCaseVariantsAcrossSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`tenants:
  - id: TenantA
    display_name: Impostor
    api_keys: [other_key]
`), 0o644))

	fileTable, err := LoadFile(path)
	require.NoError(t, err)

	table := defaultTable()
	require.NoError(t, table.Merge(fileTable))

	_, err = NewRegistry(table)
	assert.ErrorIs(t, err, ErrInvalidTenantID)
}

func TestTable_Merge(t *testing.T) {
	base := defaultTable()

	err := base.Merge(Table{
		Keys:         map[string]string{"tenantC_key": "tenantC"},
		DisplayNames: map[string]string{"tenantC": "Tenant C", "tenantA": "Acme"},
	})
	require.NoError(t, err)
	assert.Equal(t, "tenantC", base.Keys["tenantC_key"])
	assert.Equal(t, "Acme", base.DisplayNames["tenantA"])

	err = base.Merge(Table{Keys: map[string]string{"tenantA_key": "tenantB"}})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestContext(t *testing.T) {
	t.Run("Missing context is a configuration fault", func(t *testing.T) {
		_, err := FromContext(context.Background())
		assert.ErrorIs(t, err, ErrNoTenantContext)
	})

	t.Run("Round trip", func(t *testing.T) {
		ctx := WithContext(context.Background(), NewContext(Record{ID: "tenantB", DisplayName: "Tenant B"}))
		tc, err := FromContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tenantB", tc.TenantID())
		assert.Equal(t, "Tenant B", tc.DisplayName())
	})

	t.Run("Zero value is rejected", func(t *testing.T) {
		ctx := WithContext(context.Background(), Context{})
		_, err := FromContext(ctx)
		assert.ErrorIs(t, err, ErrNoTenantContext)
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("Valid file", func(t *testing.T) {
		path := filepath.Join(dir, "tenants.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
tenants:
  - id: acme
    display_name: Acme Corp
    api_keys: [acme_1, acme_2]
  - id: globex
    api_keys: [globex_1]
`), 0o644))

		table, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"acme_1": "acme", "acme_2": "acme", "globex_1": "globex"}, table.Keys)
		assert.Equal(t, map[string]string{"acme": "Acme Corp"}, table.DisplayNames)
	})

	t.Run("Shared key", func(t *testing.T) {
		path := filepath.Join(dir, "dup.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
tenants:
  - id: acme
    api_keys: [shared]
  - id: globex
    api_keys: [shared]
`), 0o644))

		_, err := LoadFile(path)
		assert.ErrorIs(t, err, ErrDuplicateKey)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "absent.yaml"))
		assert.Error(t, err)
	})
}
