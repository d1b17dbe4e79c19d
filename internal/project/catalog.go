// Package project saves and loads catalog files and job plan bundles.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/SheetPlan/internal/model"
)

// DefaultCatalogPath returns the default file path for the catalog file.
// This is located at ~/.sheetplan/catalog.json.
func DefaultCatalogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sheetplan", "catalog.json"), nil
}

// SaveCatalog writes the catalog to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveCatalog(path string, c model.Catalog) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadCatalog reads and validates the catalog from the specified JSON file.
// If the file does not exist, it returns the default catalog and saves it.
func LoadCatalog(path string) (model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c := model.DefaultCatalog()
			if saveErr := SaveCatalog(path, c); saveErr != nil {
				return c, saveErr
			}
			return c, nil
		}
		return model.Catalog{}, err
	}
	var c model.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return model.Catalog{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return model.Catalog{}, err
	}
	return c, nil
}

// ReadCatalog reads a catalog file without creating defaults.
func ReadCatalog(path string) (model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Catalog{}, err
	}
	var c model.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return model.Catalog{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

// MergeCatalog adds the materials and sizes of imported that existing does not
// have yet. Duplicate IDs are skipped, and an imported default is dropped when
// the material already has one. It returns the number of sizes added.
func MergeCatalog(existing, imported model.Catalog) (model.Catalog, int) {
	materialIDs := make(map[string]bool, len(existing.Materials))
	for _, m := range existing.Materials {
		materialIDs[m.ID] = true
	}
	sizeIDs := make(map[string]bool, len(existing.Sizes))
	for _, s := range existing.Sizes {
		sizeIDs[s.ID] = true
	}

	for _, m := range imported.Materials {
		if !materialIDs[m.ID] {
			existing.Materials = append(existing.Materials, m)
			materialIDs[m.ID] = true
		}
	}

	added := 0
	for _, s := range imported.Sizes {
		if sizeIDs[s.ID] {
			continue
		}
		if s.IsDefault && existing.DefaultSize(s.MaterialID) != nil {
			s.IsDefault = false
		}
		existing.Sizes = append(existing.Sizes, s)
		sizeIDs[s.ID] = true
		added++
	}

	return existing, added
}
