package simulation

import "time"

// Sex is the biological sex used by the eGFR equation and the MRA
// creatinine cutoff.
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

// TimeOfDay labels one of the two daily home readings.
type TimeOfDay string

const (
	TimeAM TimeOfDay = "AM"
	TimePM TimeOfDay = "PM"
)

// HomeStartDate anchors home-reading timestamps: day 1 of the monitoring
// window, AM readings at 08:00, PM readings at 20:00.
var HomeStartDate = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// PatientBaseline is the pre-medication physiologic state sampled once per
// patient and never mutated afterward.
type PatientBaseline struct {
	PatID int     `json:"Pat_ID"`
	Age   int     `json:"Age"`
	Sex   Sex     `json:"Sex"`
	SBP0  float64 `json:"SBP0"`
	HR0   float64 `json:"HR0"`
	Cr0   float64 `json:"Cr0"`
	K0    float64 `json:"K0"`
}

// MedicationRegimen holds the dose level (0 = not on drug) for the four
// guideline-directed classes. SGLT2i is binary presence. The ARNI sub-flag
// amplifies the RAASi blood-pressure and potassium effects.
type MedicationRegimen struct {
	RAASi       int  `json:"RAASi"`
	BB          int  `json:"BB"`
	MRA         int  `json:"MRA"`
	SGLT2i      int  `json:"SGLT2i"`
	RAASiIsARNI bool `json:"RAASi_is_ARNI"`
}

// HomeReading is one non-missing home SBP/HR measurement.
type HomeReading struct {
	PatientID int       `json:"patient_id"`
	Day       int       `json:"day"` // 1-based
	TimeOfDay TimeOfDay `json:"tod"`
	SBP       float64   `json:"sbp_home"`
	HR        float64   `json:"hr_home"`
}

// Timestamp places the reading on the monitoring calendar.
func (r HomeReading) Timestamp() time.Time {
	hour := 8
	if r.TimeOfDay == TimePM {
		hour = 20
	}
	return HomeStartDate.AddDate(0, 0, r.Day-1).Add(time.Duration(hour) * time.Hour)
}

// VisitRecord is one assembled visit-table row. All numeric fields are
// hard-clamped to the configured clinical bounds; symptom flags are 0/1.
type VisitRecord struct {
	PatID     int     `json:"Pat_ID"`
	Visit     int     `json:"Visit"`
	Age       int     `json:"Age"`
	Sex       Sex     `json:"Sex"`
	SBP       float64 `json:"SBP"`
	HR        float64 `json:"HR"`
	TIRLowSys float64 `json:"TIR_low_sys"`
	TIRLowHR  float64 `json:"TIR_low_HR"`
	K         float64 `json:"K"`
	Cr        float64 `json:"Cr"`
	CrPctCh   float64 `json:"Cr_pct_ch"`
	GFR       float64 `json:"GFR"`
	SxHypot   int     `json:"Sx_hypot"`
	SxBrady   int     `json:"Sx_brady"`
	RAASi     int     `json:"RAASi"`
	BB        int     `json:"BB"`
	MRA       int     `json:"MRA"`
	SGLT2i    int     `json:"SGLT2i"`
}

// LatentRecord carries per-patient hidden state useful for calibration and
// debugging but absent from the visit table.
type LatentRecord struct {
	PatID       int     `json:"Pat_ID"`
	CrPrior     float64 `json:"Cr_prior"`
	Cr0         float64 `json:"Cr0"`
	EGFRPrior   float64 `json:"eGFR_prior"`
	RAASiIsARNI bool    `json:"RAASi_is_ARNI"`
	WRFEvent    bool    `json:"WRF_event"`
}

// Cohort is the full output of one simulation run.
type Cohort struct {
	RunID  string         `json:"runId"`
	Seed   int64          `json:"seed"`
	Visits []VisitRecord  `json:"visits"`
	Home   []HomeReading  `json:"home"`
	Latent []LatentRecord `json:"latent,omitempty"`
}
