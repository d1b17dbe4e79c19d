package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/SheetPlan/internal/model"
)

func TestDefaultCatalogPath(t *testing.T) {
	path, err := DefaultCatalogPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "catalog.json" {
		t.Errorf("expected filename catalog.json, got %s", filepath.Base(path))
	}
	if dir := filepath.Base(filepath.Dir(path)); dir != ".sheetplan" {
		t.Errorf("expected parent dir .sheetplan, got %s", dir)
	}
}

func TestSaveAndLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "catalog.json")

	board := model.NewMaterial("Board", 350, "Board")
	size := model.NewStockSheetSize("B1", 1000, 700, 25)
	size.MaterialID = board.ID
	size.IsDefault = true
	cost := decimal.RequireFromString("4.15")
	size.UnitCost = &cost
	c := model.Catalog{Materials: []model.Material{board}, Sizes: []model.StockSheetSize{size}}

	if err := SaveCatalog(path, c); err != nil {
		t.Fatalf("SaveCatalog failed: %v", err)
	}

	loaded, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if len(loaded.Sizes) != 1 || loaded.Sizes[0].ID != size.ID {
		t.Fatalf("unexpected sizes %+v", loaded.Sizes)
	}
	if loaded.Sizes[0].UnitCost == nil || !loaded.Sizes[0].UnitCost.Equal(cost) {
		t.Errorf("expected unit cost 4.15, got %v", loaded.Sizes[0].UnitCost)
	}
	if loaded.DefaultSize(board.ID) == nil {
		t.Error("expected default size to survive the round trip")
	}
}

func TestLoadCatalog_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")

	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if len(c.Sizes) == 0 || len(c.Materials) == 0 {
		t.Error("expected default catalog entries")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected default catalog to be saved: %v", err)
	}
}

func TestLoadCatalog_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json}"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(bad); err == nil {
		t.Error("expected error for invalid JSON")
	}

	negative := filepath.Join(dir, "negative.json")
	data := `{"materials":[],"sizes":[{"id":"s1","name":"S","width":100,"height":100,"available_stock":-1}]}`
	if err := os.WriteFile(negative, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(negative); err == nil {
		t.Error("expected validation error for negative stock")
	}
}

func TestMergeCatalog(t *testing.T) {
	existing := model.DefaultCatalog()
	board := existing.Materials[0]
	beforeSizes := len(existing.Sizes)

	extra := model.NewStockSheetSize("Jumbo", 1200, 900, 5)
	extra.MaterialID = board.ID
	extra.IsDefault = true
	dup := existing.Sizes[0]
	dup.Name = "renamed"

	imported := model.Catalog{
		Materials: []model.Material{board, model.NewMaterial("Kraft", 250, "Board")},
		Sizes:     []model.StockSheetSize{dup, extra},
	}

	merged, added := MergeCatalog(existing, imported)

	if added != 1 {
		t.Errorf("expected 1 added size, got %d", added)
	}
	if len(merged.Sizes) != beforeSizes+1 {
		t.Errorf("expected %d sizes, got %d", beforeSizes+1, len(merged.Sizes))
	}
	if len(merged.Materials) != 3 {
		t.Errorf("expected 3 materials, got %d", len(merged.Materials))
	}
	if merged.FindSizeByID(dup.ID).Name == "renamed" {
		t.Error("expected existing size to be kept")
	}
	if merged.FindSizeByID(extra.ID).IsDefault {
		t.Error("expected imported default to be dropped when the material has one")
	}
	if err := merged.Validate(); err != nil {
		t.Errorf("merged catalog invalid: %v", err)
	}
}
