package simulation

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
)

func newTestService(t *testing.T, cfg SimulatorConfig) *Service {
	t.Helper()
	svc, err := NewService(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func simulate(t *testing.T, cfg SimulatorConfig, n int) *Cohort {
	t.Helper()
	cohort, err := newTestService(t, cfg).SimulateVisit1(n)
	if err != nil {
		t.Fatalf("SimulateVisit1(%d): %v", n, err)
	}
	return cohort
}

func TestSimulateVisit1_FieldsWithinBounds(t *testing.T) {
	cfg := DefaultSimulatorConfig()
	cfg.Seed = 123
	cohort := simulate(t, cfg, 250)

	if len(cohort.Visits) != 250 {
		t.Fatalf("expected 250 visit rows, got %d", len(cohort.Visits))
	}

	for _, v := range cohort.Visits {
		if v.Visit != cfg.VisitNumber {
			t.Errorf("patient %d: visit number %d, want %d", v.PatID, v.Visit, cfg.VisitNumber)
		}
		if v.Age < cfg.AgeMin || v.Age > cfg.AgeMax {
			t.Errorf("patient %d: age %d outside [%d, %d]", v.PatID, v.Age, cfg.AgeMin, cfg.AgeMax)
		}
		if v.Sex != SexMale && v.Sex != SexFemale {
			t.Errorf("patient %d: unexpected sex %q", v.PatID, v.Sex)
		}
		if !cfg.ClinicSBPBounds.Contains(v.SBP) {
			t.Errorf("patient %d: SBP %.2f outside clinic bounds", v.PatID, v.SBP)
		}
		if !cfg.ClinicHRBounds.Contains(v.HR) {
			t.Errorf("patient %d: HR %.2f outside clinic bounds", v.PatID, v.HR)
		}
		if !cfg.KBounds.Contains(v.K) {
			t.Errorf("patient %d: K %.2f outside bounds", v.PatID, v.K)
		}
		if !cfg.CrBounds.Contains(v.Cr) {
			t.Errorf("patient %d: Cr %.2f outside bounds", v.PatID, v.Cr)
		}
		if !cfg.GFRBounds.Contains(v.GFR) {
			t.Errorf("patient %d: GFR %.2f outside bounds", v.PatID, v.GFR)
		}
		if v.TIRLowSys < 0 || v.TIRLowSys > 100 {
			t.Errorf("patient %d: TIR_low_sys %.2f outside [0,100]", v.PatID, v.TIRLowSys)
		}
		if v.TIRLowHR < 0 || v.TIRLowHR > 100 {
			t.Errorf("patient %d: TIR_low_HR %.2f outside [0,100]", v.PatID, v.TIRLowHR)
		}
		if v.SxHypot != 0 && v.SxHypot != 1 {
			t.Errorf("patient %d: Sx_hypot %d not binary", v.PatID, v.SxHypot)
		}
		if v.SxBrady != 0 && v.SxBrady != 1 {
			t.Errorf("patient %d: Sx_brady %d not binary", v.PatID, v.SxBrady)
		}
		for name, dose := range map[string]int{"RAASi": v.RAASi, "BB": v.BB, "MRA": v.MRA} {
			if dose < 0 || dose > 4 {
				t.Errorf("patient %d: %s dose %d outside [0,4]", v.PatID, name, dose)
			}
		}
		if v.SGLT2i != 0 && v.SGLT2i != 1 {
			t.Errorf("patient %d: SGLT2i %d not binary", v.PatID, v.SGLT2i)
		}
	}
}

func TestSimulateVisit1_CrRoundTrip(t *testing.T) {
	cfg := DefaultSimulatorConfig()
	cfg.Seed = 7
	cohort := simulate(t, cfg, 300)

	for i, v := range cohort.Visits {
		prior := cohort.Latent[i].CrPrior
		got := (v.Cr - prior) / prior * 100.0
		tol := 1e-6 * math.Max(1.0, math.Abs(v.CrPctCh))
		if math.Abs(got-v.CrPctCh) > tol {
			t.Errorf("patient %d: recomputed pct change %.9f != stored %.9f", v.PatID, got, v.CrPctCh)
		}
	}
}

func TestSimulateVisit1_Deterministic(t *testing.T) {
	cfg := DefaultSimulatorConfig()
	cfg.Seed = 99

	a := simulate(t, cfg, 120)
	b := simulate(t, cfg, 120)

	if len(a.Visits) != len(b.Visits) {
		t.Fatalf("visit row counts differ: %d vs %d", len(a.Visits), len(b.Visits))
	}
	for i := range a.Visits {
		if a.Visits[i] != b.Visits[i] {
			t.Fatalf("visit row %d differs between identical runs:\n%+v\n%+v", i, a.Visits[i], b.Visits[i])
		}
	}

	if len(a.Home) != len(b.Home) {
		t.Fatalf("home reading counts differ: %d vs %d", len(a.Home), len(b.Home))
	}
	for i := range a.Home {
		if a.Home[i] != b.Home[i] {
			t.Fatalf("home reading %d differs between identical runs", i)
		}
	}

	for i := range a.Latent {
		if a.Latent[i] != b.Latent[i] {
			t.Fatalf("latent row %d differs between identical runs", i)
		}
	}
}

func TestSimulateVisit1_SeedChangesOutput(t *testing.T) {
	cfgA := DefaultSimulatorConfig()
	cfgA.Seed = 1
	cfgB := DefaultSimulatorConfig()
	cfgB.Seed = 2

	a := simulate(t, cfgA, 50)
	b := simulate(t, cfgB, 50)

	same := len(a.Visits) == len(b.Visits)
	if same {
		for i := range a.Visits {
			if a.Visits[i] != b.Visits[i] {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("different seeds produced identical cohorts")
	}
}

func TestSimulateVisit1_ZeroHomeReadings(t *testing.T) {
	cfg := DefaultSimulatorConfig()
	cfg.Seed = 5
	cfg.HomeMissingProb = 1.0 // every reading dropped

	cohort := simulate(t, cfg, 40)

	if len(cohort.Home) != 0 {
		t.Fatalf("expected no home readings, got %d", len(cohort.Home))
	}
	for _, v := range cohort.Visits {
		if v.TIRLowSys != 0 || v.TIRLowHR != 0 {
			t.Errorf("patient %d: expected zero TIR with no readings, got %.2f / %.2f",
				v.PatID, v.TIRLowSys, v.TIRLowHR)
		}
		if !cfg.ClinicSBPBounds.Contains(v.SBP) || !cfg.ClinicHRBounds.Contains(v.HR) {
			t.Errorf("patient %d: clinic vitals should fall back to true values and stay bounded", v.PatID)
		}
	}
}

func TestSimulateVisit1_RejectsNonPositiveCount(t *testing.T) {
	svc := newTestService(t, DefaultSimulatorConfig())
	if _, err := svc.SimulateVisit1(0); err == nil {
		t.Error("expected error for zero patients")
	}
	if _, err := svc.SimulateVisit1(-3); err == nil {
		t.Error("expected error for negative patients")
	}
}

func TestNewService_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultSimulatorConfig()
	cfg.CrBounds = Bounds{4.0, 0.5}
	if _, err := NewService(cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected error for inverted bounds")
	}
}

func TestCalibrate_RatesWellFormed(t *testing.T) {
	cfg := DefaultSimulatorConfig()
	cfg.Seed = 2024
	svc := newTestService(t, cfg)

	rep, err := svc.Calibrate(400)
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if rep.Patients != 400 {
		t.Errorf("expected 400 patients, got %d", rep.Patients)
	}

	rates := map[string]float64{
		"wrfRate":           rep.WRFRate,
		"wrfRateEgfrLt30":   rep.WRFRateEGFRLt30,
		"wrfRateEgfr30To59": rep.WRFRateEGFR30To59,
		"wrfRateEgfrGe60":   rep.WRFRateEGFRGe60,
		"kGt55":             rep.KGt55,
		"kGt60":             rep.KGt60,
		"kGt55Mra":          rep.KGt55MRA,
		"sxHypotRate":       rep.SxHypot,
		"anyRaasi":          rep.AnyRAASi,
		"arniOverall":       rep.ARNIOverall,
		"arniGivenRaasi":    rep.ARNIGivenRAASi,
		"anyBb":             rep.AnyBB,
		"anyMra":            rep.AnyMRA,
		"anySglt2i":         rep.AnySGLT2i,
	}
	for name, r := range rates {
		if r < 0 || r > 1 {
			t.Errorf("%s = %g outside [0,1]", name, r)
		}
	}

	if rep.CrPctChIQR[0] > rep.CrPctChIQR[1] {
		t.Errorf("IQR inverted: %v", rep.CrPctChIQR)
	}
	if rep.KGt60 > rep.KGt55 {
		t.Errorf("K>6.0 rate %g exceeds K>5.5 rate %g", rep.KGt60, rep.KGt55)
	}
}

func TestCalibrate_EmptyStrataReportZero(t *testing.T) {
	// Force the whole population above eGFR 60 so both low strata are empty.
	cfg := DefaultSimulatorConfig()
	cfg.Seed = 31
	cfg.BaselineCrMean = 0.6
	cfg.BaselineCrSD = 0.05
	cfg.BaselineCrBounds = Bounds{0.5, 0.7}
	cfg.CrPriorNoiseSigma = 0.01
	cfg.AgeMax = 55

	svc := newTestService(t, cfg)
	rep, err := svc.Calibrate(100)
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}

	if rep.WRFRateEGFRLt30 != 0 {
		t.Errorf("expected 0 for empty <30 stratum, got %g", rep.WRFRateEGFRLt30)
	}
	if rep.WRFRateEGFR30To59 != 0 {
		t.Errorf("expected 0 for empty 30-59 stratum, got %g", rep.WRFRateEGFR30To59)
	}
}

func TestWRFLogit_MonotonicInRiskFactors(t *testing.T) {
	cfg := DefaultSimulatorConfig()

	meds := MedicationRegimen{RAASi: 2, MRA: 1}
	healthy := wrfLogit(&cfg, 90, meds)
	ckd3 := wrfLogit(&cfg, 45, meds)
	ckd4 := wrfLogit(&cfg, 20, meds)

	if !(ckd4 > ckd3 && ckd3 > healthy) {
		t.Errorf("expected WRF risk to rise as eGFR falls: %.3f, %.3f, %.3f", healthy, ckd3, ckd4)
	}

	lowDose := wrfLogit(&cfg, 45, MedicationRegimen{RAASi: 1, MRA: 1})
	highDose := wrfLogit(&cfg, 45, MedicationRegimen{RAASi: 4, MRA: 4})
	if highDose <= lowDose {
		t.Errorf("expected WRF risk to rise with dose: %.3f vs %.3f", lowDose, highDose)
	}
}

func TestSat_Saturates(t *testing.T) {
	if sat(0, 1.6) != 0 {
		t.Errorf("sat(0) should be 0, got %g", sat(0, 1.6))
	}
	prev := 0.0
	for dose := 1.0; dose <= 4; dose++ {
		s := sat(dose, 1.6)
		if s <= prev {
			t.Errorf("sat not increasing at dose %g: %g <= %g", dose, s, prev)
		}
		if s >= 1 {
			t.Errorf("sat(%g) should stay below 1, got %g", dose, s)
		}
		prev = s
	}
}
