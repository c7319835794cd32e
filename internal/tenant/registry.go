// Package tenant maps credentials to tenant identities and carries the
// resolved identity through a request.
package tenant

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned for credentials absent from the table.
	ErrNotFound = errors.New("tenant: credential not found")

	// ErrInvalidTenantID is returned for tenant IDs that cannot be used as a
	// single directory segment.
	ErrInvalidTenantID = errors.New("tenant: invalid tenant id")

	// ErrDuplicateKey is returned when two sources map one credential to
	// different tenants.
	ErrDuplicateKey = errors.New("tenant: credential mapped to more than one tenant")
)

// Record is the static identity of a tenant.
type Record struct {
	ID          string `json:"tenant_id"`
	DisplayName string `json:"display_name"`
}

// Table is the raw configuration a Registry is built from.
type Table struct {
	// Keys maps credential -> tenant ID.
	Keys map[string]string
	// DisplayNames maps tenant ID -> human readable label.
	DisplayNames map[string]string
}

// Merge overlays other onto t. A credential already bound to a different
// tenant is a conflict.
func (t *Table) Merge(other Table) error {
	if t.Keys == nil {
		t.Keys = make(map[string]string, len(other.Keys))
	}
	if t.DisplayNames == nil {
		t.DisplayNames = make(map[string]string, len(other.DisplayNames))
	}
	for key, id := range other.Keys {
		if existing, ok := t.Keys[key]; ok && existing != id {
			return fmt.Errorf("%w: %s and %s", ErrDuplicateKey, existing, id)
		}
		t.Keys[key] = id
	}
	for id, name := range other.DisplayNames {
		t.DisplayNames[id] = name
	}
	return nil
}

// Registry is an immutable credential -> tenant lookup table.
type Registry struct {
	byKey   map[string]Record
	byID    map[string]Record
	tenants []Record
}

// NewRegistry validates the table and freezes it. Tenants without a display
// name are labelled with their ID.
func NewRegistry(table Table) (*Registry, error) {
	r := &Registry{
		byKey: make(map[string]Record, len(table.Keys)),
		byID:  make(map[string]Record),
	}
	// Tenant directories are case-insensitive, so IDs must be too.
	folded := make(map[string]string)

	for key, id := range table.Keys {
		if key == "" {
			return nil, errors.New("tenant: empty credential in table")
		}
		if err := ValidateID(id); err != nil {
			return nil, err
		}
		if other, ok := folded[strings.ToLower(id)]; ok && other != id {
			return nil, fmt.Errorf("%w: %q and %q differ only by case", ErrInvalidTenantID, other, id)
		}
		folded[strings.ToLower(id)] = id
		rec, ok := r.byID[id]
		if !ok {
			rec = Record{ID: id, DisplayName: id}
			if name := strings.TrimSpace(table.DisplayNames[id]); name != "" {
				rec.DisplayName = name
			}
			r.byID[id] = rec
			r.tenants = append(r.tenants, rec)
		}
		r.byKey[key] = rec
	}

	sort.Slice(r.tenants, func(i, j int) bool { return r.tenants[i].ID < r.tenants[j].ID })
	return r, nil
}

// Resolve returns the tenant bound to credential.
func (r *Registry) Resolve(credential string) (Record, error) {
	if credential == "" {
		return Record{}, ErrNotFound
	}
	rec, ok := r.byKey[credential]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Lookup returns the tenant with the given ID.
func (r *Registry) Lookup(tenantID string) (Record, bool) {
	rec, ok := r.byID[tenantID]
	return rec, ok
}

// Tenants returns every configured tenant ordered by ID.
func (r *Registry) Tenants() []Record {
	out := make([]Record, len(r.tenants))
	copy(out, r.tenants)
	return out
}

// TenantIDs returns every configured tenant ID ordered.
func (r *Registry) TenantIDs() []string {
	ids := make([]string, len(r.tenants))
	for i, rec := range r.tenants {
		ids[i] = rec.ID
	}
	return ids
}

// ValidateID rejects IDs that would escape or alias a tenant directory.
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." ||
		strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidTenantID, id)
	}
	return nil
}
