package spreadsheet

import (
	"fmt"
	"log"

	"github.com/xuri/excelize/v2"

	"github.com/ospreysec/iocharvest/internal/core/domain"
	"github.com/ospreysec/iocharvest/internal/core/ports"
)

// ExcelDecoder reads a staged workbook into text tables, one per sheet. The
// first physical row becomes the declared column names; header relocation
// is the domain layer's job.
type ExcelDecoder struct{}

func NewExcelDecoder() *ExcelDecoder {
	return &ExcelDecoder{}
}

func (d *ExcelDecoder) Decode(path string) ([]ports.Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var sheets []ports.Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			// One broken sheet does not sink the workbook.
			log.Printf("⚠️ skipping unreadable sheet %q in %s: %v", name, path, err)
			continue
		}

		table := domain.Table{}
		if len(rows) > 0 {
			table.Columns = rows[0]
			table.Rows = rows[1:]
		}
		sheets = append(sheets, ports.Sheet{Name: name, Table: table})
	}
	return sheets, nil
}
