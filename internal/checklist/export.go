package checklist

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/expedientix/edn-core/internal/entity"
)

// ExportXLSX returns an XLSX workbook (as bytes) with one row per checklist
// item, grouped in configuration order, for reviewers who work outside the
// system.
func ExportXLSX(cl *entity.Checklist) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Checklist"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Grupo",
		"ID",
		"Ítem",
		"Estado",
		"Evidencia",
		"Regla",
		"Archivo",
		"Página",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	row := 2
	for _, grp := range cl.Groups {
		for _, item := range grp.Items {
			var fileID string
			var page any
			if item.EvidenceRef != nil {
				fileID = item.EvidenceRef.FileID
				if item.EvidenceRef.Page > 0 {
					page = item.EvidenceRef.Page
				}
			}
			values := []any{
				string(grp.Key),
				item.ID,
				item.Title,
				string(item.Status),
				item.EvidenceText,
				item.RuleRef,
				fileID,
				page,
			}
			for i, v := range values {
				if v == nil {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return nil, err
				}
			}
			row++
		}
	}

	var buf, err = f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
