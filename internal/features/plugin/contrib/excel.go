package contrib

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go-docbridge/internal/features/plugin"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var excelColumns = []string{"Identifier", "Custom Identifier", "File Name", "State", "Event", "Timestamp"}

// workbookMu serializes writes; excelize rewrites the whole file on save,
// so concurrent postprocessor runs would clobber each other's rows.
var workbookMu sync.Mutex

// excelExport appends one row per document lifecycle event to an .xlsx
// workbook on disk, creating the workbook with a styled header row on
// first use.
func excelExport(logger *zap.Logger) plugin.PostprocessorFunc {
	return func(ctx context.Context, config map[string]interface{}, doc *plugin.Document, event plugin.EventType) error {
		outputPath, _ := config["output_path"].(string)
		sheetName, _ := config["sheet"].(string)
		if outputPath == "" {
			return fmt.Errorf("output_path is empty")
		}
		if sheetName == "" {
			sheetName = "Documents"
		}

		workbookMu.Lock()
		defer workbookMu.Unlock()

		f, created, err := openWorkbook(outputPath, sheetName)
		if err != nil {
			return err
		}
		defer f.Close()

		if created {
			if err := writeHeader(f, sheetName); err != nil {
				return fmt.Errorf("write header row: %w", err)
			}
		}

		row, err := nextRow(f, sheetName)
		if err != nil {
			return fmt.Errorf("find next row: %w", err)
		}

		values := []interface{}{
			doc.Identifier,
			doc.CustomIdentifier,
			doc.FileName,
			doc.State,
			string(event),
			time.Now().Format("2006-01-02 15:04:05"),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheetName, cell, v)
		}

		if err := f.SaveAs(outputPath); err != nil {
			return fmt.Errorf("save workbook %s: %w", outputPath, err)
		}

		logger.Info("document event exported to excel",
			zap.String("document", doc.Identifier),
			zap.String("event", string(event)),
			zap.String("path", outputPath),
		)
		return nil
	}
}

func openWorkbook(path, sheetName string) (*excelize.File, bool, error) {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, false, fmt.Errorf("stat workbook %s: %w", path, err)
		}
		f := excelize.NewFile()
		index, err := f.NewSheet(sheetName)
		if err != nil {
			f.Close()
			return nil, false, err
		}
		f.SetActiveSheet(index)
		return f, true, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("open workbook %s: %w", path, err)
	}
	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		index, err := f.NewSheet(sheetName)
		if err != nil {
			f.Close()
			return nil, false, err
		}
		f.SetActiveSheet(index)
		return f, true, nil
	}
	return f, false, nil
}

func writeHeader(f *excelize.File, sheetName string) error {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range excelColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return err
		}
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i := range excelColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 20)
	}
	return nil
}

func nextRow(f *excelize.File, sheetName string) (int, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return 0, err
	}
	return len(rows) + 1, nil
}
