// Package simulation generates a synthetic HFrEF visit-1 cohort: baseline
// demographics and labs, a guideline-directed medication regimen, a renal
// trajectory, medication-driven vitals and potassium, a two-week home
// blood-pressure/heart-rate monitoring series, and the derived clinic visit
// row. Output is reproducible for a fixed seed and population size.
package simulation

import "fmt"

// ---------------------------------------------------------------------------
// Bounds
// ---------------------------------------------------------------------------

// Bounds is a closed [Low, High] clamp interval for a physiologic quantity.
type Bounds struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Clamp returns v forced into the interval.
func (b Bounds) Clamp(v float64) float64 {
	if v < b.Low {
		return b.Low
	}
	if v > b.High {
		return b.High
	}
	return v
}

// Contains reports whether v lies inside the interval.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Low && v <= b.High
}

func (b Bounds) valid() bool {
	return b.Low < b.High
}

// ---------------------------------------------------------------------------
// SimulatorConfig
// ---------------------------------------------------------------------------

// SimulatorConfig holds every distributional parameter and protocol threshold
// used by the simulator and the titration advisor. Construct it with
// DefaultSimulatorConfig, override individual fields, then Validate before
// use; the simulation stages never mutate it.
type SimulatorConfig struct {
	Seed           int64 `json:"seed"`
	VisitNumber    int   `json:"visitNumber"`
	NDaysHome      int   `json:"nDaysHome"`
	ReadingsPerDay int   `json:"readingsPerDay"`

	// Low-range thresholds for home-reading burden.
	LowSBPThreshold float64 `json:"lowSbpThreshold"`
	LowHRThreshold  float64 `json:"lowHrThreshold"`

	// Hard output clamps.
	ClinicSBPBounds Bounds `json:"clinicSbpBounds"`
	ClinicHRBounds  Bounds `json:"clinicHrBounds"`
	KBounds         Bounds `json:"kBounds"`
	CrBounds        Bounds `json:"crBounds"`
	GFRBounds       Bounds `json:"gfrBounds"`

	// Baseline sampling.
	AgeMin            int     `json:"ageMin"`
	AgeMax            int     `json:"ageMax"`
	PMale             float64 `json:"pMale"`
	BaselineSBPMean   float64 `json:"baselineSbpMean"`
	BaselineSBPSD     float64 `json:"baselineSbpSd"`
	BaselineSBPBounds Bounds  `json:"baselineSbpBounds"`
	BaselineHRMean    float64 `json:"baselineHrMean"`
	BaselineHRSD      float64 `json:"baselineHrSd"`
	BaselineHRBounds  Bounds  `json:"baselineHrBounds"`
	BaselineCrMean    float64 `json:"baselineCrMean"`
	BaselineCrSD      float64 `json:"baselineCrSd"`
	BaselineCrBounds  Bounds  `json:"baselineCrBounds"`
	BaselineKMean     float64 `json:"baselineKMean"`
	BaselineKSD       float64 `json:"baselineKSd"`
	BaselineKBounds   Bounds  `json:"baselineKBounds"`

	// Medication assignment.
	PAnyRAASi       float64    `json:"pAnyRaasi"`
	PAnyBB          float64    `json:"pAnyBb"`
	PAnyMRA         float64    `json:"pAnyMra"`
	PSGLT2i         float64    `json:"pSglt2i"`
	PARNIGivenRAASi float64    `json:"pArniGivenRaasi"`
	DoseProbs       [4]float64 `json:"doseProbs"` // levels 1..4 given presence

	// Saturation constants.
	CRAASi  float64 `json:"cRaasi"`
	CBB     float64 `json:"cBb"`
	CMRA    float64 `json:"cMra"`
	CSGLT2i float64 `json:"cSglt2i"`

	// Expected physiologic effects at full saturation.
	RAASiSBPDrop  float64 `json:"raasiSbpDrop"`
	RAASiCrRise   float64 `json:"raasiCrRise"`
	RAASiKRise    float64 `json:"raasiKRise"`
	BBHRDrop      float64 `json:"bbHrDrop"`
	BBSBPDrop     float64 `json:"bbSbpDrop"`
	MRASBPDrop    float64 `json:"mraSbpDrop"`
	MRACrRise     float64 `json:"mraCrRise"`
	MRAKRise      float64 `json:"mraKRise"`
	SGLT2iSBPDrop float64 `json:"sglt2iSbpDrop"`
	SGLT2iCrRise  float64 `json:"sglt2iCrRise"`

	// ARNI amplifies the RAASi blood-pressure and potassium effects.
	ARNISBPExtraMultiplier float64 `json:"arniSbpExtraMultiplier"`
	ARNIKExtraMultiplier   float64 `json:"arniKExtraMultiplier"`

	// Per-patient random sensitivity SDs (multiplicative, clipped normals).
	SBPSensSD    float64 `json:"sbpSensSd"`
	HRSensSD     float64 `json:"hrSensSd"`
	RenalSensSD  float64 `json:"renalSensSd"`
	HyperkSensSD float64 `json:"hyperkSensSd"`

	// Potassium cross-term and spike model.
	KRAASiMRACrossTerm   float64 `json:"kRaasiMraCrossTerm"`
	HyperkSpikeIntercept float64 `json:"hyperkSpikeIntercept"`
	HyperkSlopeEGFRLow   float64 `json:"hyperkSlopeEgfrLow"`
	HyperkSlopeRAASi     float64 `json:"hyperkSlopeRaasi"`
	HyperkSlopeMRA       float64 `json:"hyperkSlopeMra"`
	HyperkSlopeCombo     float64 `json:"hyperkSlopeCombo"`
	HyperkSpikeMean      float64 `json:"hyperkSpikeMean"`
	HyperkSpikeSD        float64 `json:"hyperkSpikeSd"`

	// Measurement noise on the "true" vitals.
	SBPMeasureNoiseSD float64 `json:"sbpMeasureNoiseSd"`
	HRMeasureNoiseSD  float64 `json:"hrMeasureNoiseSd"`

	// Renal trajectory: prior creatinine and percent-change composition.
	CrPriorNoiseSigma float64 `json:"crPriorNoiseSigma"`
	CrPctBaseMean     float64 `json:"crPctBaseMean"`
	CrPctBaseSD       float64 `json:"crPctBaseSd"`
	CrPctNoiseSD      float64 `json:"crPctNoiseSd"`
	CrPctRAASLow      float64 `json:"crPctRaasLow"`
	CrPctRAASCKD60    float64 `json:"crPctRaasCkd60"`
	CrPctRAASCKD30    float64 `json:"crPctRaasCkd30"`
	CrPctMRALow       float64 `json:"crPctMraLow"`
	CrPctMRACKD60     float64 `json:"crPctMraCkd60"`
	CrPctBounds       Bounds  `json:"crPctBounds"`

	// SGLT2i recent-initiation creatinine bump.
	SGLT2RecentStartProb float64 `json:"sglt2RecentStartProb"`
	SGLT2BumpLow         float64 `json:"sglt2BumpLow"`
	SGLT2BumpHigh        float64 `json:"sglt2BumpHigh"`

	// Worsening-renal-function tail event.
	WRFIntercept  float64 `json:"wrfIntercept"`
	WRFSlopeCKD60 float64 `json:"wrfSlopeCkd60"`
	WRFSlopeCKD30 float64 `json:"wrfSlopeCkd30"`
	WRFSlopeRAASi float64 `json:"wrfSlopeRaasi"`
	WRFSlopeMRA   float64 `json:"wrfSlopeMra"`
	WRFSlopeCombo float64 `json:"wrfSlopeCombo"`
	WRFMagLow     float64 `json:"wrfMagLow"`
	WRFMagHigh    float64 `json:"wrfMagHigh"`

	// Home monitoring dynamics.
	HomeDayNoiseSBP     float64 `json:"homeDayNoiseSbp"`
	HomeDayNoiseHR      float64 `json:"homeDayNoiseHr"`
	HomeAMPMSBP         float64 `json:"homeAmpmSbp"`
	HomeAMPMHR          float64 `json:"homeAmpmHr"`
	HomeReadingNoiseSBP float64 `json:"homeReadingNoiseSbp"`
	HomeReadingNoiseHR  float64 `json:"homeReadingNoiseHr"`
	HomeMissingProb     float64 `json:"homeMissingProb"`
	HomeOutlierProb     float64 `json:"homeOutlierProb"`
	HomeOutlierSBPMean  float64 `json:"homeOutlierSbpMean"`
	HomeOutlierSBPSD    float64 `json:"homeOutlierSbpSd"`
	HomeOutlierHRMean   float64 `json:"homeOutlierHrMean"`
	HomeOutlierHRSD     float64 `json:"homeOutlierHrSd"`

	// Clinic-visit derivation.
	WhitecoatSBPMean   float64 `json:"whitecoatSbpMean"`
	WhitecoatSBPSD     float64 `json:"whitecoatSbpSd"`
	ClinicHROffsetMean float64 `json:"clinicHrOffsetMean"`
	ClinicHROffsetSD   float64 `json:"clinicHrOffsetSd"`
	ClinicNoiseSBP     float64 `json:"clinicNoiseSbp"`
	ClinicNoiseHR      float64 `json:"clinicNoiseHr"`

	// Symptom-flag logistic model.
	SxHypotIntercept float64 `json:"sxHypotIntercept"`
	SxBradyIntercept float64 `json:"sxBradyIntercept"`
	SxTIRScale       float64 `json:"sxTirScale"`
	SxTIRMidpoint    float64 `json:"sxTirMidpoint"`

	// Titration protocol thresholds.
	TIRHigh           float64 `json:"tirHigh"`
	TIRWatchUpper     float64 `json:"tirWatchUpper"`
	KHold             float64 `json:"kHold"`
	KMRAInit          float64 `json:"kMraInit"`
	KMRAUp            float64 `json:"kMraUp"`
	GFRMRAMin         float64 `json:"gfrMraMin"`
	GFRSGLT2Min       float64 `json:"gfrSglt2Min"`
	CrPctHold         float64 `json:"crPctHold"`
	CrRAASiMax        float64 `json:"crRaasiMax"`
	CrMRACutoffFemale float64 `json:"crMraCutoffFemale"`
	CrMRACutoffMale   float64 `json:"crMraCutoffMale"`
}

// DefaultSimulatorConfig returns the calibrated default parameter set.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		Seed:           42,
		VisitNumber:    1,
		NDaysHome:      14,
		ReadingsPerDay: 2,

		LowSBPThreshold: 90.0,
		LowHRThreshold:  50.0,

		ClinicSBPBounds: Bounds{70.0, 180.0},
		ClinicHRBounds:  Bounds{35.0, 130.0},
		KBounds:         Bounds{3.0, 6.8},
		CrBounds:        Bounds{0.5, 4.0},
		GFRBounds:       Bounds{5.0, 140.0},

		AgeMin:            45,
		AgeMax:            85,
		PMale:             0.62,
		BaselineSBPMean:   116.0,
		BaselineSBPSD:     12.0,
		BaselineSBPBounds: Bounds{95.0, 140.0},
		BaselineHRMean:    82.0,
		BaselineHRSD:      11.0,
		BaselineHRBounds:  Bounds{65.0, 105.0},
		BaselineCrMean:    1.25,
		BaselineCrSD:      0.38,
		BaselineCrBounds:  Bounds{0.8, 2.2},
		BaselineKMean:     4.25,
		BaselineKSD:       0.34,
		BaselineKBounds:   Bounds{3.6, 5.2},

		PAnyRAASi:       0.82,
		PAnyBB:          0.88,
		PAnyMRA:         0.55,
		PSGLT2i:         0.72,
		PARNIGivenRAASi: 0.45,
		DoseProbs:       [4]float64{0.35, 0.30, 0.22, 0.13},

		CRAASi:  1.6,
		CBB:     1.4,
		CMRA:    1.5,
		CSGLT2i: 1.0,

		RAASiSBPDrop:  -10.0,
		RAASiCrRise:   0.12,
		RAASiKRise:    0.18,
		BBHRDrop:      -18.0,
		BBSBPDrop:     -4.0,
		MRASBPDrop:    -2.5,
		MRACrRise:     0.10,
		MRAKRise:      0.32,
		SGLT2iSBPDrop: -3.0,
		SGLT2iCrRise:  0.03,

		ARNISBPExtraMultiplier: 0.25,
		ARNIKExtraMultiplier:   0.15,

		SBPSensSD:    0.20,
		HRSensSD:     0.18,
		RenalSensSD:  0.25,
		HyperkSensSD: 0.22,

		KRAASiMRACrossTerm:   0.10,
		HyperkSpikeIntercept: -4.7,
		HyperkSlopeEGFRLow:   0.055,
		HyperkSlopeRAASi:     0.40,
		HyperkSlopeMRA:       0.75,
		HyperkSlopeCombo:     0.25,
		HyperkSpikeMean:      0.8,
		HyperkSpikeSD:        0.22,

		SBPMeasureNoiseSD: 3.0,
		HRMeasureNoiseSD:  2.5,

		CrPriorNoiseSigma: 0.08,
		CrPctBaseMean:     2.0,
		CrPctBaseSD:       6.0,
		CrPctNoiseSD:      4.0,
		CrPctRAASLow:      4.0,
		CrPctRAASCKD60:    3.0,
		CrPctRAASCKD30:    4.0,
		CrPctMRALow:       2.0,
		CrPctMRACKD60:     2.0,
		CrPctBounds:       Bounds{-25.0, 100.0},

		SGLT2RecentStartProb: 0.25,
		SGLT2BumpLow:         5.0,
		SGLT2BumpHigh:        15.0,

		WRFIntercept:  -4.3,
		WRFSlopeCKD60: 0.7,
		WRFSlopeCKD30: 1.1,
		WRFSlopeRAASi: 0.38,
		WRFSlopeMRA:   0.22,
		WRFSlopeCombo: 0.25,
		WRFMagLow:     30.0,
		WRFMagHigh:    80.0,

		HomeDayNoiseSBP:     5.5,
		HomeDayNoiseHR:      4.5,
		HomeAMPMSBP:         3.0,
		HomeAMPMHR:          2.5,
		HomeReadingNoiseSBP: 3.0,
		HomeReadingNoiseHR:  2.5,
		HomeMissingProb:     0.08,
		HomeOutlierProb:     0.02,
		HomeOutlierSBPMean:  -18.0,
		HomeOutlierSBPSD:    6.0,
		HomeOutlierHRMean:   -14.0,
		HomeOutlierHRSD:     5.0,

		WhitecoatSBPMean:   4.0,
		WhitecoatSBPSD:     4.0,
		ClinicHROffsetMean: 1.0,
		ClinicHROffsetSD:   2.0,
		ClinicNoiseSBP:     3.0,
		ClinicNoiseHR:      2.0,

		SxHypotIntercept: -2.95,
		SxBradyIntercept: -3.15,
		SxTIRScale:       0.11,
		SxTIRMidpoint:    10.0,

		TIRHigh:           10.0,
		TIRWatchUpper:     20.0,
		KHold:             5.5,
		KMRAInit:          5.0,
		KMRAUp:            5.0,
		GFRMRAMin:         30.0,
		GFRSGLT2Min:       25.0,
		CrPctHold:         50.0,
		CrRAASiMax:        3.0,
		CrMRACutoffFemale: 2.0,
		CrMRACutoffMale:   2.5,
	}
}

// Validate checks the configuration is safe to simulate with. It fails fast
// on inverted bounds, probabilities outside [0,1], non-positive saturation
// constants, and a dose-level distribution that does not sum to 1.
func (c *SimulatorConfig) Validate() error {
	if c.NDaysHome < 0 {
		return fmt.Errorf("nDaysHome must be >= 0, got %d", c.NDaysHome)
	}
	if c.AgeMin > c.AgeMax {
		return fmt.Errorf("age bounds inverted: [%d, %d]", c.AgeMin, c.AgeMax)
	}

	bounds := map[string]Bounds{
		"clinicSbpBounds":   c.ClinicSBPBounds,
		"clinicHrBounds":    c.ClinicHRBounds,
		"kBounds":           c.KBounds,
		"crBounds":          c.CrBounds,
		"gfrBounds":         c.GFRBounds,
		"baselineSbpBounds": c.BaselineSBPBounds,
		"baselineHrBounds":  c.BaselineHRBounds,
		"baselineCrBounds":  c.BaselineCrBounds,
		"baselineKBounds":   c.BaselineKBounds,
		"crPctBounds":       c.CrPctBounds,
	}
	for name, b := range bounds {
		if !b.valid() {
			return fmt.Errorf("%s inverted: [%g, %g]", name, b.Low, b.High)
		}
	}

	probs := map[string]float64{
		"pMale":                c.PMale,
		"pAnyRaasi":            c.PAnyRAASi,
		"pAnyBb":               c.PAnyBB,
		"pAnyMra":              c.PAnyMRA,
		"pSglt2i":              c.PSGLT2i,
		"pArniGivenRaasi":      c.PARNIGivenRAASi,
		"sglt2RecentStartProb": c.SGLT2RecentStartProb,
		"homeMissingProb":      c.HomeMissingProb,
		"homeOutlierProb":      c.HomeOutlierProb,
	}
	for name, p := range probs {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be in [0,1], got %g", name, p)
		}
	}

	var doseSum float64
	for i, p := range c.DoseProbs {
		if p < 0 || p > 1 {
			return fmt.Errorf("doseProbs[%d] must be in [0,1], got %g", i, p)
		}
		doseSum += p
	}
	if doseSum < 1-1e-9 || doseSum > 1+1e-9 {
		return fmt.Errorf("doseProbs must sum to 1, got %g", doseSum)
	}

	sats := map[string]float64{
		"cRaasi":  c.CRAASi,
		"cBb":     c.CBB,
		"cMra":    c.CMRA,
		"cSglt2i": c.CSGLT2i,
	}
	for name, s := range sats {
		if s <= 0 {
			return fmt.Errorf("saturation constant %s must be > 0, got %g", name, s)
		}
	}

	if c.WRFMagLow > c.WRFMagHigh {
		return fmt.Errorf("wrfMag bounds inverted: [%g, %g]", c.WRFMagLow, c.WRFMagHigh)
	}
	if c.SGLT2BumpLow > c.SGLT2BumpHigh {
		return fmt.Errorf("sglt2Bump bounds inverted: [%g, %g]", c.SGLT2BumpLow, c.SGLT2BumpHigh)
	}
	if c.TIRHigh >= c.TIRWatchUpper {
		return fmt.Errorf("tirWatchUpper (%g) must exceed tirHigh (%g)", c.TIRWatchUpper, c.TIRHigh)
	}

	return nil
}
