package simulation

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// VisitColumns is the exact visit-table column order. Downstream consumers
// key on these names; do not reorder.
var VisitColumns = []string{
	"Pat_ID",
	"Visit",
	"Age",
	"Sex",
	"SBP",
	"HR",
	"TIR_low_sys",
	"TIR_low_HR",
	"K",
	"Cr",
	"Cr_pct_ch",
	"GFR",
	"Sx_hypot",
	"Sx_brady",
	"RAASi",
	"BB",
	"MRA",
	"SGLT2i",
}

// HomeColumns is the home-readings file schema.
var HomeColumns = []string{"patient_id", "datetime", "sbp_home", "hr_home"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// CSVRow renders one visit record in VisitColumns order.
func (v VisitRecord) CSVRow() []string {
	return []string{
		strconv.Itoa(v.PatID),
		strconv.Itoa(v.Visit),
		strconv.Itoa(v.Age),
		string(v.Sex),
		formatFloat(v.SBP),
		formatFloat(v.HR),
		formatFloat(v.TIRLowSys),
		formatFloat(v.TIRLowHR),
		formatFloat(v.K),
		formatFloat(v.Cr),
		formatFloat(v.CrPctCh),
		formatFloat(v.GFR),
		strconv.Itoa(v.SxHypot),
		strconv.Itoa(v.SxBrady),
		strconv.Itoa(v.RAASi),
		strconv.Itoa(v.BB),
		strconv.Itoa(v.MRA),
		strconv.Itoa(v.SGLT2i),
	}
}

// WriteVisitCSV writes the visit table with the exact documented header.
func WriteVisitCSV(w io.Writer, visits []VisitRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(VisitColumns); err != nil {
		return fmt.Errorf("writing visit header: %w", err)
	}
	for _, v := range visits {
		if err := cw.Write(v.CSVRow()); err != nil {
			return fmt.Errorf("writing visit row %d: %w", v.PatID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHomeCSV writes the home-readings file. Timestamps anchor on
// HomeStartDate with AM at 08:00 and PM at 20:00.
func WriteHomeCSV(w io.Writer, readings []HomeReading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(HomeColumns); err != nil {
		return fmt.Errorf("writing home header: %w", err)
	}
	for _, r := range readings {
		row := []string{
			strconv.Itoa(r.PatientID),
			r.Timestamp().Format("2006-01-02 15:04:05"),
			formatFloat(r.SBP),
			formatFloat(r.HR),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing home row for patient %d: %w", r.PatientID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteVisitNDJSON writes one JSON object per visit row, newline-delimited.
func WriteVisitNDJSON(w io.Writer, visits []VisitRecord) error {
	enc := json.NewEncoder(w)
	for _, v := range visits {
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding visit row %d: %w", v.PatID, err)
		}
	}
	return nil
}

// writeFileAtomic writes via a temp file in the target directory and renames
// into place, so a failed export never leaves a truncated snapshot behind.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming snapshot into place: %w", err)
	}
	return nil
}

// ExportSnapshot persists visit_table.csv and home_readings.csv under dir.
func ExportSnapshot(dir string, cohort *Cohort) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, "visit_table.csv"), func(w io.Writer) error {
		return WriteVisitCSV(w, cohort.Visits)
	}); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, "home_readings.csv"), func(w io.Writer) error {
		return WriteHomeCSV(w, cohort.Home)
	})
}

// ReadVisitCSV parses a visit table previously written by WriteVisitCSV (or
// any compatible producer). The header must match VisitColumns exactly.
func ReadVisitCSV(r io.Reader) ([]VisitRecord, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading visit header: %w", err)
	}
	if len(header) != len(VisitColumns) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(VisitColumns), len(header))
	}
	for i, name := range VisitColumns {
		if header[i] != name {
			return nil, fmt.Errorf("column %d: expected %q, got %q", i, name, header[i])
		}
	}

	var visits []VisitRecord
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading visit row: %w", err)
		}
		line++

		v, err := parseVisitRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		visits = append(visits, v)
	}
	return visits, nil
}

func parseVisitRow(row []string) (VisitRecord, error) {
	var v VisitRecord
	var err error

	ints := []struct {
		dst  *int
		idx  int
		name string
	}{
		{&v.PatID, 0, "Pat_ID"},
		{&v.Visit, 1, "Visit"},
		{&v.Age, 2, "Age"},
		{&v.SxHypot, 12, "Sx_hypot"},
		{&v.SxBrady, 13, "Sx_brady"},
		{&v.RAASi, 14, "RAASi"},
		{&v.BB, 15, "BB"},
		{&v.MRA, 16, "MRA"},
		{&v.SGLT2i, 17, "SGLT2i"},
	}
	for _, f := range ints {
		if *f.dst, err = strconv.Atoi(row[f.idx]); err != nil {
			return v, fmt.Errorf("parsing %s: %w", f.name, err)
		}
	}

	floats := []struct {
		dst  *float64
		idx  int
		name string
	}{
		{&v.SBP, 4, "SBP"},
		{&v.HR, 5, "HR"},
		{&v.TIRLowSys, 6, "TIR_low_sys"},
		{&v.TIRLowHR, 7, "TIR_low_HR"},
		{&v.K, 8, "K"},
		{&v.Cr, 9, "Cr"},
		{&v.CrPctCh, 10, "Cr_pct_ch"},
		{&v.GFR, 11, "GFR"},
	}
	for _, f := range floats {
		if *f.dst, err = strconv.ParseFloat(row[f.idx], 64); err != nil {
			return v, fmt.Errorf("parsing %s: %w", f.name, err)
		}
	}

	v.Sex = Sex(row[3])
	if v.Sex != SexMale && v.Sex != SexFemale {
		return v, fmt.Errorf("parsing Sex: unknown value %q", row[3])
	}
	return v, nil
}
