// Package importer reads stock sheet catalogs from CSV and Excel files and
// blank dimensions from DXF die-lines. CSV import supports automatic
// delimiter detection, flexible column mapping, and case-insensitive
// header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/SheetPlan/internal/model"
)

// ImportResult holds the results of a catalog import.
type ImportResult struct {
	Sizes    []model.StockSheetSize
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	ID      int
	Name    int
	Width   int
	Height  int
	Stock   int
	Cost    int
	Default int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"id":      {"id", "code", "sku", "size id"},
	"name":    {"name", "label", "size", "description", "desc"},
	"width":   {"width", "w", "x", "sheet width"},
	"height":  {"height", "h", "length", "y", "sheet height"},
	"stock":   {"stock", "available", "available stock", "on hand", "qty", "quantity", "sheets"},
	"cost":    {"cost", "price", "unit cost", "price per sheet", "sheet price"},
	"default": {"default", "is default", "preferred"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		// Prefer delimiters with higher consistency and more columns
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// Returns the mapping and true if a header was detected, or a default positional
// mapping (Name, Width, Height, Stock, Cost) and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{ID: -1, Name: -1, Width: -1, Height: -1, Stock: -1, Cost: -1, Default: -1}
	slots := map[string]*int{
		"id":      &mapping.ID,
		"name":    &mapping.Name,
		"width":   &mapping.Width,
		"height":  &mapping.Height,
		"stock":   &mapping.Stock,
		"cost":    &mapping.Cost,
		"default": &mapping.Default,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias && *slots[role] == -1 {
					*slots[role] = i
					isHeader = true
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{ID: -1, Name: 0, Width: 1, Height: 2, Stock: 3, Cost: 4, Default: -1}, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1", "x", "*":
		return true, true
	case "", "no", "n", "false", "0", "-":
		return false, true
	default:
		return false, false
	}
}

// parseRow extracts a StockSheetSize from a row using the given column mapping.
// Returns the size, any error message, and any warning messages.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (model.StockSheetSize, string, []string) {
	var warnings []string

	widthStr := getCell(row, mapping.Width)
	if widthStr == "" {
		return model.StockSheetSize{}, fmt.Sprintf("%s: Missing width value", rowLabel), nil
	}
	width, err := strconv.ParseFloat(widthStr, 64)
	if err != nil {
		return model.StockSheetSize{}, fmt.Sprintf("%s: Invalid width '%s'", rowLabel, widthStr), nil
	}

	heightStr := getCell(row, mapping.Height)
	if heightStr == "" {
		return model.StockSheetSize{}, fmt.Sprintf("%s: Missing height value", rowLabel), nil
	}
	height, err := strconv.ParseFloat(heightStr, 64)
	if err != nil {
		return model.StockSheetSize{}, fmt.Sprintf("%s: Invalid height '%s'", rowLabel, heightStr), nil
	}

	if !model.PositiveFinite(width) || !model.PositiveFinite(height) {
		return model.StockSheetSize{}, fmt.Sprintf("%s: Width and height must be positive", rowLabel), nil
	}

	stock := 0
	if stockStr := getCell(row, mapping.Stock); stockStr != "" {
		stock, err = strconv.Atoi(stockStr)
		if err != nil {
			return model.StockSheetSize{}, fmt.Sprintf("%s: Invalid stock '%s'", rowLabel, stockStr), nil
		}
		if stock < 0 {
			return model.StockSheetSize{}, fmt.Sprintf("%s: Stock must not be negative", rowLabel), nil
		}
	}

	name := getCell(row, mapping.Name)
	if name == "" {
		name = model.Size{Width: width, Height: height}.String()
	}

	size := model.NewStockSheetSize(name, width, height, stock)
	if id := getCell(row, mapping.ID); id != "" {
		size.ID = id
	}

	if costStr := getCell(row, mapping.Cost); costStr != "" {
		cost, err := decimal.NewFromString(strings.TrimPrefix(costStr, "$"))
		if err != nil || cost.IsNegative() {
			warnings = append(warnings, fmt.Sprintf("%s: Invalid cost '%s', leaving size unpriced", rowLabel, costStr))
		} else {
			size.UnitCost = &cost
		}
	}

	if defStr := getCell(row, mapping.Default); defStr != "" {
		def, ok := parseBool(defStr)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s: Unknown default flag '%s', treating as no", rowLabel, defStr))
		}
		size.IsDefault = def
	}

	return size, "", warnings
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports stock sizes from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	records, err := readCSV(bytes.NewReader(data), delimiter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports stock sizes from a CSV reader with a specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	records, err := readCSV(reader, delimiter)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	if len(records) == 0 {
		return ImportResult{Errors: []string{"File is empty"}}
	}
	return importFromRows(records, "Line", nil)
}

func readCSV(r io.Reader, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// ImportExcel imports stock sizes from the first sheet of an Excel file.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		var missing []string
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Height == -1 {
			missing = append(missing, "Height")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 3 {
		// An unrecognized header still has a non-numeric width column
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	seen := make(map[string]bool)
	defaults := 0
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		size, errMsg, warnings := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Warnings = append(result.Warnings, warnings...)

		if seen[size.ID] {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: Duplicate id '%s'", rowLabel, size.ID))
			continue
		}
		seen[size.ID] = true

		if size.IsDefault {
			defaults++
			if defaults > 1 {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: Only one default size allowed, ignoring flag", rowLabel))
				size.IsDefault = false
			}
		}

		result.Sizes = append(result.Sizes, size)
	}

	return result
}
