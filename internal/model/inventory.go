package model

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Material is a board or paper grade that stock sheets are bought in.
type Material struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	GSM      int    `json:"gsm,omitempty"`
	Category string `json:"category,omitempty"`
}

// NewMaterial creates a Material with a generated ID.
func NewMaterial(name string, gsm int, category string) Material {
	return Material{
		ID:       uuid.New().String()[:8],
		Name:     name,
		GSM:      gsm,
		Category: category,
	}
}

// Catalog holds materials and the stock sheet sizes they are available in.
type Catalog struct {
	Materials []Material       `json:"materials"`
	Sizes     []StockSheetSize `json:"sizes"`
}

// DefaultCatalog returns a catalog populated with common press sheet sizes.
func DefaultCatalog() Catalog {
	board := NewMaterial("Folding Box Board", 350, "Board")
	paper := NewMaterial("Art Paper", 170, "Paper")

	sizes := []StockSheetSize{
		NewStockSheetSize("B1 1000x700", 1000, 700, 0),
		NewStockSheetSize("SRA1 900x640", 900, 640, 0),
		NewStockSheetSize("Long Grain 1020x720", 1020, 720, 0),
		NewStockSheetSize("B1 1000x700", 1000, 700, 0),
		NewStockSheetSize("SRA2 640x450", 640, 450, 0),
	}
	for i := range sizes {
		if i < 3 {
			sizes[i].MaterialID = board.ID
		} else {
			sizes[i].MaterialID = paper.ID
		}
	}
	sizes[0].IsDefault = true
	sizes[3].IsDefault = true

	return Catalog{
		Materials: []Material{board, paper},
		Sizes:     sizes,
	}
}

// FindMaterialByID returns a pointer to the material with the given ID, or nil.
func (c *Catalog) FindMaterialByID(id string) *Material {
	for i := range c.Materials {
		if c.Materials[i].ID == id {
			return &c.Materials[i]
		}
	}
	return nil
}

// FindMaterialByName returns a pointer to the first material with the given name, or nil.
func (c *Catalog) FindMaterialByName(name string) *Material {
	for i := range c.Materials {
		if c.Materials[i].Name == name {
			return &c.Materials[i]
		}
	}
	return nil
}

// FindSizeByID returns a pointer to the stock size with the given ID, or nil.
func (c *Catalog) FindSizeByID(id string) *StockSheetSize {
	for i := range c.Sizes {
		if c.Sizes[i].ID == id {
			return &c.Sizes[i]
		}
	}
	return nil
}

// SizesForMaterial returns the stock sizes of one material, ordered by ID.
func (c *Catalog) SizesForMaterial(materialID string) []StockSheetSize {
	var out []StockSheetSize
	for _, s := range c.Sizes {
		if s.MaterialID == materialID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DefaultSize returns the default stock size of a material, or nil.
func (c *Catalog) DefaultSize(materialID string) *StockSheetSize {
	for i := range c.Sizes {
		if c.Sizes[i].MaterialID == materialID && c.Sizes[i].IsDefault {
			return &c.Sizes[i]
		}
	}
	return nil
}

// Validate checks sizes for positive dimensions, unique IDs, known materials
// and at most one default per material.
func (c *Catalog) Validate() error {
	ids := make(map[string]bool, len(c.Sizes))
	defaults := make(map[string]string)
	for _, s := range c.Sizes {
		if err := s.Size().Validate("stock size " + s.Name); err != nil {
			return err
		}
		if s.AvailableStock < 0 {
			return fmt.Errorf("%w: stock size %s has negative stock %d", ErrInvalidInput, s.Name, s.AvailableStock)
		}
		if ids[s.ID] {
			return fmt.Errorf("%w: duplicate stock size id %q", ErrInvalidInput, s.ID)
		}
		ids[s.ID] = true
		if s.MaterialID != "" && c.FindMaterialByID(s.MaterialID) == nil {
			return fmt.Errorf("%w: stock size %s references unknown material %q", ErrInvalidInput, s.Name, s.MaterialID)
		}
		if s.IsDefault {
			if prev, ok := defaults[s.MaterialID]; ok {
				return fmt.Errorf("%w: material %q has two default sizes (%s, %s)", ErrInvalidInput, s.MaterialID, prev, s.ID)
			}
			defaults[s.MaterialID] = s.ID
		}
	}
	return nil
}
