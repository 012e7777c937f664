// Package reports builds xlsx exports of the inventory state. Output is raw
// workbook bytes; the HTTP layer decides filenames and headers.
package reports

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"github.com/aguaops/ptar-inventory/internal/domain/materials"
	"github.com/aguaops/ptar-inventory/internal/domain/movements"
)

func writeRows(header []interface{}, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := r
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func materialRows(mats []materials.Material) [][]interface{} {
	rows := make([][]interface{}, 0, len(mats))
	for _, m := range mats {
		rows = append(rows, []interface{}{
			m.Code,
			m.Name,
			m.Category,
			m.Unit,
			m.Quantity.String(),
			m.MinStock.String(),
			string(m.Status()),
			m.Location,
			m.UnitCost.String(),
			m.Quantity.Mul(m.UnitCost).String(),
		})
	}
	return rows
}

var materialHeader = []interface{}{
	"code", "name", "category", "unit", "quantity", "min_stock",
	"status", "location", "unit_cost", "valuation",
}

// Inventory exports the full material list with per-material valuation.
func Inventory(mats []materials.Material) ([]byte, error) {
	return writeRows(materialHeader, materialRows(mats))
}

// LowStock exports materials at or under their minimum, out-of-stock included.
func LowStock(mats []materials.Material) ([]byte, error) {
	return writeRows(materialHeader, materialRows(mats))
}

// Movements exports the movement history, newest first as listed.
func Movements(movs []movements.WithMaterial) ([]byte, error) {
	header := []interface{}{
		"date", "material_code", "material_name", "direction",
		"quantity", "counterparty", "responsible", "notes",
	}
	rows := make([][]interface{}, 0, len(movs))
	for _, mv := range movs {
		rows = append(rows, []interface{}{
			mv.CreatedAt.Format("2006-01-02 15:04:05"),
			mv.MaterialCode,
			mv.MaterialName,
			string(mv.Direction),
			mv.Quantity.String(),
			mv.Counterparty,
			mv.Responsible,
			mv.Notes,
		})
	}
	return writeRows(header, rows)
}
