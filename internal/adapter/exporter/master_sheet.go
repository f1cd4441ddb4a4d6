package exporter

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/ospreysec/iocharvest/internal/core/domain"
	"github.com/ospreysec/iocharvest/internal/core/ports"
)

const masterSheetName = "Sheet1"

// MasterSheetStore persists the cumulative dataset as one xlsx workbook.
// Formatted mode applies wrap-text and generous column widths to the
// category columns so multi-line blobs stay readable.
type MasterSheetStore struct {
	path      string
	formatted bool
}

func NewMasterSheetStore(path string, formatted bool) *MasterSheetStore {
	return &MasterSheetStore{path: path, formatted: formatted}
}

// Load reads the persisted dataset verbatim. A missing file is the Fresh
// state, reported as (nil, nil).
func (s *MasterSheetStore) Load(ctx context.Context) (*domain.Dataset, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open master sheet %s: %w", s.path, err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return &domain.Dataset{}, nil
	}
	rows, err := f.GetRows(names[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read master sheet %s: %w", s.path, err)
	}
	if len(rows) == 0 {
		return &domain.Dataset{}, nil
	}
	return &domain.Dataset{Columns: rows[0], Rows: rows[1:]}, nil
}

// Save writes the merged dataset back. The write-lock probe runs first so a
// master held open elsewhere surfaces as ErrDatasetLocked before any bytes
// move.
func (s *MasterSheetStore) Save(ctx context.Context, ds *domain.Dataset) error {
	if err := s.probeWritable(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeRow(f, 1, ds.Columns); err != nil {
		return err
	}
	for i, row := range ds.Rows {
		if err := writeRow(f, i+2, row); err != nil {
			return err
		}
	}

	if s.formatted {
		if err := s.applyCategoryFormatting(f, ds); err != nil {
			return err
		}
	}

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("failed to write master sheet %s: %w", s.path, err)
	}
	return nil
}

func writeRow(f *excelize.File, rowNum int, cells []string) error {
	for col, v := range cells {
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return fmt.Errorf("bad cell coordinate: %w", err)
		}
		if err := f.SetCellValue(masterSheetName, cell, v); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}

// applyCategoryFormatting widens the category columns (everything after
// Subject and Date) and wraps their text.
func (s *MasterSheetStore) applyCategoryFormatting(f *excelize.File, ds *domain.Dataset) error {
	if len(ds.Columns) <= 2 || len(ds.Rows) == 0 {
		return nil
	}

	first, err := excelize.ColumnNumberToName(3)
	if err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(ds.Columns))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(masterSheetName, first, last, 48); err != nil {
		return fmt.Errorf("failed to set column widths: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("failed to create wrap style: %w", err)
	}
	top := first + "2"
	bottom, err := excelize.CoordinatesToCellName(len(ds.Columns), len(ds.Rows)+1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(masterSheetName, top, bottom, style); err != nil {
		return fmt.Errorf("failed to apply wrap style: %w", err)
	}
	return nil
}

// probeWritable opens the existing master for writing without touching its
// content. Excel (or anything else) holding it open shows up here.
func (s *MasterSheetStore) probeWritable() error {
	f, err := os.OpenFile(s.path, os.O_WRONLY, 0o644)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrDatasetLocked, err)
	}
	f.Close()
	return nil
}
