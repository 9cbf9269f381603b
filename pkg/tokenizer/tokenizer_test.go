package tokenizer

import (
	"context"
	"strings"
	"testing"

	"github.com/licorflow/licorflow/pkg/errors"
	"github.com/licorflow/licorflow/pkg/registry"
)

const sampleLog = "[Header]\n" +
	"Console s/n\t68C-901292\n" +
	"Console ver\tBluestem v.2.1.13\n" +
	"Head s/n\t68H-581292\n" +
	"[Remarks]\n" +
	"09:48:01 starting light response\n" +
	"[Data]\n" +
	"Sys\tSys\tGasEx\tGasEx\tGasEx\n" +
	"obs\ttime\tA\tE\tCi\n" +
	"\ts\tµmol m-2 s-1\tmol m-2 s-1\tµmol mol-1\n" +
	"1\t1748594881\t12.1\t0.0021\t280.5\n" +
	"2\t1748594885\t12.4\t0.0022\t278.1\n" +
	"3\t1748594889\t12.2\t0.0023\t275.9\n" +
	"[Remarks]\n" +
	"09:49:30 fluorescence kinetics\n" +
	"[Data]\n" +
	"Sys\tFlrLS\tFlrLS\tFlrLS\n" +
	"obs\tF\tPhiPS2\tETR\n" +
	"\t\t\tµmol m-2 s-1\n" +
	"1\t561.2\t0.61\t115.3\n" +
	"2\t559.8\t0.60\t114.1\n" +
	"3\t560.4\t0.62\t116.0\n"

func tokenize(t *testing.T, content string) (*Document, error) {
	t.Helper()
	return New().Tokenize(context.Background(), strings.NewReader(content))
}

func TestTokenize_MergesBlocksByObs(t *testing.T) {
	doc, err := tokenize(t, sampleLog)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}

	if len(doc.Records) != 3 {
		t.Fatalf("got %d records, want 3 (one per distinct obs)", len(doc.Records))
	}
	if len(doc.Layouts) != 2 {
		t.Errorf("got %d layouts, want 2", len(doc.Layouts))
	}

	// Records in first-seen obs order.
	for i, rec := range doc.Records {
		if rec.Obs != int64(i+1) {
			t.Errorf("record %d has obs %d, want %d", i, rec.Obs, i+1)
		}
	}

	// Both subsystems merged into one record.
	rec := doc.Records[0]
	if f, ok := rec.Fields["A"]; !ok || f.Value != "12.1" {
		t.Errorf("record 1 A = %+v, want 12.1", f)
	}
	if f, ok := rec.Fields["PhiPS2"]; !ok || f.Value != "0.61" {
		t.Errorf("record 1 PhiPS2 = %+v, want 0.61", f)
	}
	if rec.Fields["PhiPS2"].Section != registry.SectionFlr {
		t.Errorf("PhiPS2 section = %s, want flr", rec.Fields["PhiPS2"].Section)
	}
	if rec.Fields["A"].Section != registry.SectionGasEx {
		t.Errorf("A section = %s, want gasex", rec.Fields["A"].Section)
	}

	// Restarting obs at 1 in the second block is a merge, not an order break.
	if len(doc.ObsOrderBreaks) != 0 {
		t.Errorf("unexpected obs order breaks: %v", doc.ObsOrderBreaks)
	}
}

func TestTokenize_Header(t *testing.T) {
	doc, err := tokenize(t, sampleLog)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if doc.Header["Console s/n"] != "68C-901292" {
		t.Errorf("Console s/n = %q", doc.Header["Console s/n"])
	}
	if len(doc.Remarks) != 2 {
		t.Errorf("got %d remarks, want 2", len(doc.Remarks))
	}
	if doc.Remarks[0].Text != "09:48:01 starting light response" {
		t.Errorf("remark = %q", doc.Remarks[0].Text)
	}
}

func TestTokenize_ShortLine(t *testing.T) {
	log := "[Header]\n" +
		"Console s/n\t68C-901292\n" +
		"[Data]\n" +
		"Sys\tGasEx\tGasEx\n" +
		"obs\tA\tE\n" +
		"\t\t\n" +
		"1\t12.1\t0.002\n" +
		"2\t12.4\n" // missing trailing E

	doc, err := tokenize(t, log)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if len(doc.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(doc.Records))
	}
	if len(doc.ShortLines) != 1 {
		t.Fatalf("got %d short-line anomalies, want 1", len(doc.ShortLines))
	}
	if doc.ShortLines[0].Obs != 2 {
		t.Errorf("short line obs = %d, want 2", doc.ShortLines[0].Obs)
	}
	if _, ok := doc.Records[1].Fields["E"]; ok {
		t.Error("missing trailing field should be absent from the record")
	}
}

func TestTokenize_UnclassifiableLine(t *testing.T) {
	log := "[Header]\n" +
		"Console s/n\t68C-901292\n" +
		"[Data]\n" +
		"Sys\tGasEx\n" +
		"obs\tA\n" +
		"\t\n" +
		"1\t12.1\n" +
		"garbage line that is not a row\n" +
		"2\t12.4\n"

	_, err := tokenize(t, log)
	if err == nil {
		t.Fatal("Tokenize should fail on unclassifiable line")
	}
	if !errors.IsCode(err, errors.CodeParse) {
		t.Errorf("code = %s, want %s", errors.GetCode(err), errors.CodeParse)
	}
	var e *errors.Error
	if !errorsAs(err, &e) {
		t.Fatal("error is not *errors.Error")
	}
	if e.Context["line"] != 8 {
		t.Errorf("error line = %v, want 8", e.Context["line"])
	}
}

func TestTokenize_NonMonotonicObs(t *testing.T) {
	log := "[Header]\n" +
		"Console s/n\t68C-901292\n" +
		"[Data]\n" +
		"Sys\tGasEx\n" +
		"obs\tA\n" +
		"\t\n" +
		"1\t12.1\n" +
		"3\t12.4\n" +
		"2\t12.3\n"

	doc, err := tokenize(t, log)
	if err != nil {
		t.Fatalf("non-monotonic obs must not be fatal: %v", err)
	}
	if len(doc.ObsOrderBreaks) != 1 {
		t.Fatalf("got %d obs order breaks, want 1", len(doc.ObsOrderBreaks))
	}
	// Rows stay in file order, not re-sorted.
	got := []int64{doc.Records[0].Obs, doc.Records[1].Obs, doc.Records[2].Obs}
	want := []int64{1, 3, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record order = %v, want %v", got, want)
			break
		}
	}
}

func TestTokenize_StructuralErrors(t *testing.T) {
	cases := []struct {
		name string
		log  string
	}{
		{"no header", "not a section\n"},
		{"data before header", "[Data]\nobs\n"},
		{"truncated layout", "[Header]\nk\tv\n[Data]\nSys\n[Remarks]\n"},
		{"layout without obs", "[Header]\nk\tv\n[Data]\nSys\tGasEx\ntime\tA\n\t\n1\t2\n"},
		{"ends inside layout", "[Header]\nk\tv\n[Data]\nSys\tGasEx\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tokenize(t, tc.log)
			if err == nil {
				t.Fatal("Tokenize should fail")
			}
			if !errors.IsCode(err, errors.CodeParse) {
				t.Errorf("code = %s, want %s", errors.GetCode(err), errors.CodeParse)
			}
		})
	}
}

func TestTokenize_EmptyData(t *testing.T) {
	log := "[Header]\nConsole s/n\t68C-901292\n"
	_, err := tokenize(t, log)
	if err == nil {
		t.Fatal("Tokenize should fail on a log with no data rows")
	}
	if !errors.IsCode(err, errors.CodeEmptyData) {
		t.Errorf("code = %s, want %s", errors.GetCode(err), errors.CodeEmptyData)
	}
}

func TestTokenize_DuplicateColumnNames(t *testing.T) {
	log := "[Header]\nk\tv\n" +
		"[Data]\n" +
		"Sys\tGasEx\tGasEx\n" +
		"obs\tA\tA\n" +
		"\t\t\n" +
		"1\t10\t20\n"

	doc, err := tokenize(t, log)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	l := doc.Layouts[0]
	if l.Names[1] != "A" || l.Names[2] != "A_1" {
		t.Errorf("names = %v, want [obs A A_1]", l.Names)
	}
	if doc.Records[0].Fields["A_1"].Value != "20" {
		t.Errorf("A_1 = %q, want 20", doc.Records[0].Fields["A_1"].Value)
	}
}

// errorsAs avoids importing the stdlib errors package under a second name.
func errorsAs(err error, target **errors.Error) bool {
	for err != nil {
		if e, ok := err.(*errors.Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
