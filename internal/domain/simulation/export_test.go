package simulation

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleVisits() []VisitRecord {
	return []VisitRecord{
		{
			PatID: 1, Visit: 1, Age: 67, Sex: SexMale,
			SBP: 112.5, HR: 68.2, TIRLowSys: 7.142857142857143, TIRLowHR: 0,
			K: 4.4, Cr: 1.31, CrPctCh: 4.8, GFR: 58.9,
			SxHypot: 0, SxBrady: 1,
			RAASi: 2, BB: 3, MRA: 0, SGLT2i: 1,
		},
		{
			PatID: 2, Visit: 1, Age: 74, Sex: SexFemale,
			SBP: 98.1, HR: 74.9, TIRLowSys: 21.4, TIRLowHR: 3.6,
			K: 5.6, Cr: 2.05, CrPctCh: 31.2, GFR: 26.4,
			SxHypot: 1, SxBrady: 0,
			RAASi: 1, BB: 2, MRA: 2, SGLT2i: 0,
		},
	}
}

func TestWriteVisitCSV_HeaderMatchesSchema(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteVisitCSV(&buf, sampleVisits()); err != nil {
		t.Fatalf("WriteVisitCSV: %v", err)
	}

	cr := csv.NewReader(&buf)
	header, err := cr.Read()
	if err != nil {
		t.Fatalf("reading header: %v", err)
	}
	if len(header) != len(VisitColumns) {
		t.Fatalf("header has %d columns, want %d", len(header), len(VisitColumns))
	}
	for i, name := range VisitColumns {
		if header[i] != name {
			t.Errorf("column %d: got %q, want %q", i, header[i], name)
		}
	}
}

func TestVisitCSV_RoundTrip(t *testing.T) {
	want := sampleVisits()

	var buf bytes.Buffer
	if err := WriteVisitCSV(&buf, want); err != nil {
		t.Fatalf("WriteVisitCSV: %v", err)
	}

	got, err := ReadVisitCSV(&buf)
	if err != nil {
		t.Fatalf("ReadVisitCSV: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d mismatch:\n got %+v\nwant %+v", i, got[i], want[i])
		}
	}
}

func TestReadVisitCSV_RejectsWrongHeader(t *testing.T) {
	in := strings.NewReader("Pat_ID,Visit,Age\n1,1,67\n")
	if _, err := ReadVisitCSV(in); err == nil {
		t.Fatal("expected error for truncated header")
	}

	cols := make([]string, len(VisitColumns))
	copy(cols, VisitColumns)
	cols[3] = "Gender"
	in = strings.NewReader(strings.Join(cols, ",") + "\n")
	if _, err := ReadVisitCSV(in); err == nil {
		t.Fatal("expected error for renamed column")
	}
}

func TestReadVisitCSV_RejectsBadValues(t *testing.T) {
	row := sampleVisits()[0].CSVRow()
	row[3] = "X" // unknown sex code
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Write(VisitColumns)
	cw.Write(row)
	cw.Flush()

	if _, err := ReadVisitCSV(&buf); err == nil {
		t.Fatal("expected error for unknown sex code")
	}
}

func TestWriteHomeCSV_Timestamps(t *testing.T) {
	readings := []HomeReading{
		{PatientID: 1, Day: 1, TimeOfDay: TimeAM, SBP: 110.4, HR: 71.2},
		{PatientID: 1, Day: 3, TimeOfDay: TimePM, SBP: 104.8, HR: 69.5},
	}

	var buf bytes.Buffer
	if err := WriteHomeCSV(&buf, readings); err != nil {
		t.Fatalf("WriteHomeCSV: %v", err)
	}

	cr := csv.NewReader(&buf)
	rows, err := cr.ReadAll()
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	for i, name := range HomeColumns {
		if rows[0][i] != name {
			t.Errorf("header column %d: got %q, want %q", i, rows[0][i], name)
		}
	}
	if rows[1][1] != "2025-01-01 08:00:00" {
		t.Errorf("day 1 AM timestamp: got %q", rows[1][1])
	}
	if rows[2][1] != "2025-01-03 20:00:00" {
		t.Errorf("day 3 PM timestamp: got %q", rows[2][1])
	}
}

func TestWriteVisitNDJSON_OneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteVisitNDJSON(&buf, sampleVisits()); err != nil {
		t.Fatalf("WriteVisitNDJSON: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"Pat_ID":1`) {
		t.Errorf("first line missing Pat_ID field: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"Cr_pct_ch":31.2`) {
		t.Errorf("second line missing Cr_pct_ch field: %s", lines[1])
	}
}

func TestExportSnapshot_WritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	cohort := &Cohort{
		Visits: sampleVisits(),
		Home: []HomeReading{
			{PatientID: 1, Day: 1, TimeOfDay: TimeAM, SBP: 110, HR: 70},
		},
	}

	if err := ExportSnapshot(dir, cohort); err != nil {
		t.Fatalf("ExportSnapshot: %v", err)
	}

	for _, name := range []string{"visit_table.csv", "home_readings.csv"} {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected %s to exist: %v", name, err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}

	// No temp files should survive a successful export.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading export dir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected exactly 2 files in export dir, found %d", len(entries))
	}
}
