package titration

import "github.com/hfsim/hfsim/internal/domain/simulation"

// TitratedRow is a visit row with the advisor columns appended.
type TitratedRow struct {
	simulation.VisitRecord
	Sequence  Class  `json:"Sequence"`
	Titration int    `json:"titration"`
	Criteria  string `json:"criteria"`
}

// AddTitrationColumns applies the advisor to every row of a visit table and
// appends Sequence / titration / criteria. Rows are independent; the input
// slice is not modified.
func AddTitrationColumns(advisor *Advisor, visits []simulation.VisitRecord) []TitratedRow {
	out := make([]TitratedRow, len(visits))
	for i, v := range visits {
		rec := advisor.Recommend(FromRecord(v))
		out[i] = TitratedRow{
			VisitRecord: v,
			Sequence:    rec.Class,
			Titration:   rec.Direction,
			Criteria:    rec.Reason,
		}
	}
	return out
}
