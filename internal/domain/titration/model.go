// Package titration implements the protocol-driven medication titration
// advisor: a pure, priority-ordered rule engine mapping one visit record to
// exactly one recommendation (class, direction, reason).
package titration

import "github.com/hfsim/hfsim/internal/domain/simulation"

// Class identifies a medication pillar, or NONE for no change.
type Class string

const (
	ClassRAASi  Class = "RAASi"
	ClassBB     Class = "BB"
	ClassMRA    Class = "MRA"
	ClassSGLT2i Class = "SGLT2i"
	ClassNone   Class = "NONE"
)

// CanonicalOrder fixes the scan order for per-class evaluation, initiation,
// and uptitration.
var CanonicalOrder = []Class{ClassRAASi, ClassBB, ClassMRA, ClassSGLT2i}

// Titration directions.
const (
	Down     = -1
	NoChange = 0
	Up       = +1
)

// Recommendation is the advisor output. Class is NONE iff Direction is 0.
type Recommendation struct {
	Class     Class  `json:"Sequence"`
	Direction int    `json:"titration"`
	Reason    string `json:"criteria"`
}

// VisitInput is the record the advisor consumes. Optional inputs default at
// construction: doses 0, symptom flags false, TIR burdens 0, and a nil
// CrPctCh is treated as renal-safe. The zero value is a valid, stable,
// untreated patient.
type VisitInput struct {
	Sex       simulation.Sex `json:"Sex"`
	TIRLowSys float64        `json:"TIR_low_sys"`
	TIRLowHR  float64        `json:"TIR_low_HR"`
	K         float64        `json:"K"`
	Cr        float64        `json:"Cr"`
	CrPctCh   *float64       `json:"Cr_pct_ch,omitempty"`
	GFR       float64        `json:"GFR"`
	SxHypot   bool           `json:"Sx_hypot"`
	SxBrady   bool           `json:"Sx_brady"`
	RAASi     int            `json:"RAASi"`
	BB        int            `json:"BB"`
	MRA       int            `json:"MRA"`
	SGLT2i    int            `json:"SGLT2i"`
}

// FromRecord builds the advisor input from an assembled visit row.
func FromRecord(r simulation.VisitRecord) VisitInput {
	crPct := r.CrPctCh
	return VisitInput{
		Sex:       r.Sex,
		TIRLowSys: r.TIRLowSys,
		TIRLowHR:  r.TIRLowHR,
		K:         r.K,
		Cr:        r.Cr,
		CrPctCh:   &crPct,
		GFR:       r.GFR,
		SxHypot:   r.SxHypot == 1,
		SxBrady:   r.SxBrady == 1,
		RAASi:     r.RAASi,
		BB:        r.BB,
		MRA:       r.MRA,
		SGLT2i:    r.SGLT2i,
	}
}

// Dose returns the current dose level for a class.
func (in VisitInput) Dose(c Class) int {
	switch c {
	case ClassRAASi:
		return in.RAASi
	case ClassBB:
		return in.BB
	case ClassMRA:
		return in.MRA
	case ClassSGLT2i:
		return in.SGLT2i
	default:
		return 0
	}
}
