package titration

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/hfsim/hfsim/internal/domain/simulation"
)

// TitratedColumns is the visit-table schema with the advisor columns
// appended.
var TitratedColumns = append(append([]string{}, simulation.VisitColumns...),
	"Sequence", "titration", "criteria")

// WriteTitratedCSV writes a visit table with the three advisor columns.
func WriteTitratedCSV(w io.Writer, rows []TitratedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TitratedColumns); err != nil {
		return fmt.Errorf("writing titrated header: %w", err)
	}
	for _, r := range rows {
		row := append(r.VisitRecord.CSVRow(),
			string(r.Sequence),
			strconv.Itoa(r.Titration),
			r.Criteria,
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing titrated row %d: %w", r.PatID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
