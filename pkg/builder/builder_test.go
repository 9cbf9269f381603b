package builder

import (
	"context"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v14/arrow/array"

	"github.com/licorflow/licorflow/pkg/registry"
	"github.com/licorflow/licorflow/pkg/table"
	"github.com/licorflow/licorflow/pkg/tokenizer"
)

func buildFromLog(t *testing.T, device, config, log string) *table.Table {
	t.Helper()
	schema, err := registry.Lookup(device, config)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	doc, err := tokenizer.New().Tokenize(context.Background(), strings.NewReader(log))
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	tbl, err := New().Build(schema, doc)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(tbl.Release)
	return tbl
}

const gasExLog = "[Header]\nConsole s/n\t68C-901292\n" +
	"[Data]\n" +
	"Sys\tSys\tGasEx\tGasEx\tGasEx\textra\n" +
	"obs\tdate\tA\tE\tCi\tcustom\n" +
	"\t\t\t\t\t\n" +
	"1\t2025-05-30 09:48:01\t12.1\t0.0021\t280.5\tx\n" +
	"2\t2025-05-30 09:48:05\tbogus\t0.0022\t278.1\ty\n" +
	"3\t2025-05-30 09:48:09\t12.2\t-\t275.9\tz\n"

func TestBuild_Shape(t *testing.T) {
	tbl := buildFromLog(t, "6800", "standard", gasExLog)

	if tbl.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", tbl.NumRows())
	}
	if int(tbl.NumCols()) != len(tbl.Schema.Columns) {
		t.Errorf("cols = %d, want %d (schema-authoritative)", tbl.NumCols(), len(tbl.Schema.Columns))
	}
	// Layout columns the schema does not declare are dropped.
	if tbl.ColumnIndex("custom") != -1 {
		t.Error("column \"custom\" should have been dropped")
	}
}

func TestBuild_Coercion(t *testing.T) {
	tbl := buildFromLog(t, "6800", "standard", gasExLog)

	aIdx := tbl.ColumnIndex("A")
	a := tbl.Record.Column(aIdx).(*array.Float64)
	if a.IsNull(0) || a.Value(0) != 12.1 {
		t.Errorf("A[0] = %v (null=%v), want 12.1", a.Value(0), a.IsNull(0))
	}
	// "bogus" coerces to null with a warning, the row survives.
	if !a.IsNull(1) {
		t.Errorf("A[1] should be null, got %v", a.Value(1))
	}
	if a.IsNull(2) {
		t.Error("A[2] should not be null")
	}

	// "-" is an instrument null token, not a coercion failure.
	eIdx := tbl.ColumnIndex("E")
	e := tbl.Record.Column(eIdx).(*array.Float64)
	if !e.IsNull(2) {
		t.Error("E[2] should be null for token \"-\"")
	}

	var coercions int
	for _, w := range tbl.Warnings {
		if w.Kind == table.WarnCoercion {
			coercions++
			if w.Column != "A" || w.Obs != 2 {
				t.Errorf("warning = %+v, want column A obs 2", w)
			}
		}
	}
	if coercions != 1 {
		t.Errorf("got %d coercion warnings, want 1", coercions)
	}
}

func TestBuild_Timestamp(t *testing.T) {
	tbl := buildFromLog(t, "6800", "standard", gasExLog)

	idx := tbl.ColumnIndex("date")
	ts := tbl.Record.Column(idx).(*array.Timestamp)
	if ts.IsNull(0) {
		t.Fatal("date[0] should be parsed")
	}
	// 2025-05-30 09:48:01 UTC in microseconds.
	want := int64(1748598481000000)
	if int64(ts.Value(0)) != want {
		t.Errorf("date[0] = %d, want %d", ts.Value(0), want)
	}
}

func TestBuild_MissingSubsystemIsNull(t *testing.T) {
	// Fluorescence lines exist only for obs 1; obs 2 keeps its row with the
	// flr columns null.
	log := "[Header]\nConsole s/n\t68C-901292\n" +
		"[Data]\n" +
		"Sys\tGasEx\tGasEx\n" +
		"obs\tA\tE\n" +
		"\t\t\n" +
		"1\t12.1\t0.002\n" +
		"2\t12.4\t0.003\n" +
		"[Data]\n" +
		"Sys\tFlrLS\n" +
		"obs\tPhiPS2\n" +
		"\t\n" +
		"1\t0.61\n"

	tbl := buildFromLog(t, "6800", "fluorometer", log)
	if tbl.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.NumRows())
	}

	phi := tbl.Record.Column(tbl.ColumnIndex("PhiPS2")).(*array.Float64)
	if phi.IsNull(0) || phi.Value(0) != 0.61 {
		t.Errorf("PhiPS2[0] = %v, want 0.61", phi.Value(0))
	}
	if !phi.IsNull(1) {
		t.Error("PhiPS2[1] should be null: no fluorescence line for obs 2")
	}
}

func TestBuild_ObsColumn(t *testing.T) {
	tbl := buildFromLog(t, "6800", "standard", gasExLog)

	obs := tbl.Record.Column(tbl.ColumnIndex("obs")).(*array.Int64)
	for i := 0; i < 3; i++ {
		if obs.IsNull(i) {
			t.Fatalf("obs[%d] is null", i)
		}
		if obs.Value(i) != int64(i+1) {
			t.Errorf("obs[%d] = %d, want %d", i, obs.Value(i), i+1)
		}
	}

	f, _ := tbl.ArrowSchema().FieldsByName("obs")
	if f[0].Nullable {
		t.Error("obs field should not be nullable")
	}
}

func TestBuild_FieldMetadata(t *testing.T) {
	tbl := buildFromLog(t, "6800", "standard", gasExLog)

	fields, _ := tbl.ArrowSchema().FieldsByName("A")
	meta := fields[0].Metadata
	idx := meta.FindKey("units")
	if idx < 0 {
		t.Fatal("A field has no units metadata")
	}
	if meta.Values()[idx] != "µmol m-2 s-1" {
		t.Errorf("A units = %q", meta.Values()[idx])
	}
}
