package exporter

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ospreysec/iocharvest/internal/core/domain"
)

func TestMasterSheetStore_LoadMissingIsFresh(t *testing.T) {
	store := NewMasterSheetStore(filepath.Join(t.TempDir(), "master.xlsx"), false)

	ds, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ds != nil {
		t.Errorf("missing file must load as Fresh (nil), got %+v", ds)
	}
}

func TestMasterSheetStore_SaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.xlsx")
	store := NewMasterSheetStore(path, false)
	ctx := context.Background()

	in := &domain.Dataset{
		Columns: []string{"Subject", "Date", "md5", "ip"},
		Rows: [][]string{
			{"first report", "2026-01-05", "aaa, bbb", "10.0.0.1"},
			{"second report", "2026-01-04", "ccc", ""},
		},
	}
	if err := store.Save(ctx, in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	out, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out == nil {
		t.Fatal("expected an existing dataset after save")
	}
	if !reflect.DeepEqual(out.Columns, in.Columns) {
		t.Errorf("columns = %v, want %v", out.Columns, in.Columns)
	}
	if len(out.Rows) != 2 || out.Rows[0][2] != "aaa, bbb" || out.Rows[1][0] != "second report" {
		t.Errorf("rows = %v, want persisted rows verbatim and in order", out.Rows)
	}
}

func TestMasterSheetStore_FormattedSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.xlsx")
	store := NewMasterSheetStore(path, true)
	ctx := context.Background()

	in := &domain.Dataset{
		Columns: []string{"Subject", "Date", "md5"},
		Rows:    [][]string{{"r", "2026-01-05", "aaa\nbbb"}},
	}
	if err := store.Save(ctx, in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	out, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out.Rows[0][2] != "aaa\nbbb" {
		t.Errorf("cell = %q, want the line-break blob preserved", out.Rows[0][2])
	}
}
