package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/V4T54L/docqa/internal/domain"
	"github.com/V4T54L/docqa/internal/tenant"
)

const documentExt = ".txt"

// tenantDir maps a tenant ID to its exclusive directory.
func (s *DocumentStore) tenantDir(tenantID string) (string, error) {
	if err := tenant.ValidateID(tenantID); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, strings.ToLower(tenantID)), nil
}

// readTenantDir builds one document per text file. A missing directory
// yields an empty set; unreadable files are skipped.
func (s *DocumentStore) readTenantDir(tenantID, dir string) []domain.Document {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("tenant folder not found", "tenant_id", tenantID, "path", dir)
		} else {
			s.logger.Error("failed to list tenant folder", "tenant_id", tenantID, "path", dir, "error", err)
		}
		return []domain.Document{}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, documentExt) {
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	docs := make([]domain.Document, 0, len(names))
	for _, name := range names {
		doc, err := readDocument(tenantID, dir, name)
		if err != nil {
			s.logger.Error("failed to load document", "tenant_id", tenantID, "file", name, "error", err)
			continue
		}
		s.logger.Debug("loaded document", "tenant_id", tenantID, "title", doc.Title)
		docs = append(docs, doc)
	}
	return docs
}

func readDocument(tenantID, dir, name string) (domain.Document, error) {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return domain.Document{}, err
	}
	if !utf8.Valid(raw) {
		return domain.Document{}, fmt.Errorf("%s is not valid UTF-8", name)
	}

	return domain.Document{
		ID:       tenantID + "_" + strings.TrimSuffix(name, filepath.Ext(name)),
		TenantID: tenantID,
		Title:    name,
		Content:  strings.TrimSpace(string(raw)),
	}, nil
}
