package simulation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog"
)

// Service runs cohort simulations against one validated configuration.
type Service struct {
	cfg    SimulatorConfig
	logger zerolog.Logger
}

// NewService validates the configuration and returns a simulation service.
func NewService(cfg SimulatorConfig, logger zerolog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("simulator config: %w", err)
	}
	return &Service{cfg: cfg, logger: logger}, nil
}

// Config returns a copy of the service configuration.
func (s *Service) Config() SimulatorConfig {
	return s.cfg
}

// SimulateVisit1 generates the visit-1 cohort for n patients: baselines and
// regimens, the renal trajectory, medication physiology, the home-monitoring
// series, clinic vitals, and symptom flags, assembled into one VisitRecord
// per patient. Stages run in a fixed order over one random stream, so a
// fixed seed and n reproduce the cohort exactly.
func (s *Service) SimulateVisit1(n int) (*Cohort, error) {
	if n <= 0 {
		return nil, fmt.Errorf("patient count must be > 0, got %d", n)
	}

	start := time.Now()
	rng := NewSampler(s.cfg.Seed)

	base := sampleBaselines(rng, &s.cfg, n)
	meds := sampleRegimens(rng, &s.cfg, n)
	renal := simulateRenal(rng, &s.cfg, base, meds)
	sens := sampleSensitivities(rng, &s.cfg, n)
	physio := simulatePhysiology(rng, &s.cfg, base, meds, renal, sens)
	home, tir := simulateHomeMonitoring(rng, &s.cfg, base, physio)
	clinic := deriveClinicVitals(rng, &s.cfg, base, physio, home)
	hypot, brady := deriveSymptomFlags(rng, &s.cfg, tir)

	cohort := &Cohort{
		RunID:  uuid.NewString(),
		Seed:   s.cfg.Seed,
		Visits: make([]VisitRecord, n),
		Home:   home,
		Latent: make([]LatentRecord, n),
	}

	for i := 0; i < n; i++ {
		cohort.Visits[i] = VisitRecord{
			PatID:     base[i].PatID,
			Visit:     s.cfg.VisitNumber,
			Age:       base[i].Age,
			Sex:       base[i].Sex,
			SBP:       clinic[i].SBP,
			HR:        clinic[i].HR,
			TIRLowSys: tir[i].TIRLowSys,
			TIRLowHR:  tir[i].TIRLowHR,
			K:         physio[i].K,
			Cr:        renal[i].CrVisit,
			CrPctCh:   renal[i].CrPctCh,
			GFR:       renal[i].EGFRVisit,
			SxHypot:   hypot[i],
			SxBrady:   brady[i],
			RAASi:     meds[i].RAASi,
			BB:        meds[i].BB,
			MRA:       meds[i].MRA,
			SGLT2i:    meds[i].SGLT2i,
		}
		cohort.Latent[i] = LatentRecord{
			PatID:       base[i].PatID,
			CrPrior:     renal[i].CrPrior,
			Cr0:         base[i].Cr0,
			EGFRPrior:   renal[i].EGFRPrior,
			RAASiIsARNI: meds[i].RAASiIsARNI,
			WRFEvent:    renal[i].WRFEvent,
		}
	}

	s.logger.Info().
		Str("run_id", cohort.RunID).
		Int64("seed", s.cfg.Seed).
		Int("patients", n).
		Int("home_readings", len(home)).
		Dur("duration", time.Since(start)).
		Msg("cohort simulated")

	return cohort, nil
}

// CalibrationReport summarizes safety-relevant rates over a large synthetic
// population. It is a sanity/regression tool: the stratified renal-worsening
// rates should rise as baseline kidney function falls.
type CalibrationReport struct {
	Patients int `json:"patients"`

	CrPctChMean   float64    `json:"crPctChMean"`
	CrPctChMedian float64    `json:"crPctChMedian"`
	CrPctChIQR    [2]float64 `json:"crPctChIqr"`

	WRFRate            float64 `json:"wrfRate"` // Cr_pct_ch >= 30
	WRFRateEGFRLt30    float64 `json:"wrfRateEgfrLt30"`
	WRFRateEGFR30To59  float64 `json:"wrfRateEgfr30To59"`
	WRFRateEGFRGe60    float64 `json:"wrfRateEgfrGe60"`
	WRFMonotonicByEGFR bool    `json:"wrfMonotonicByEgfr"`

	KGt55    float64 `json:"kGt55"`
	KGt60    float64 `json:"kGt60"`
	KGt55MRA float64 `json:"kGt55Mra"`
	SxHypot  float64 `json:"sxHypotRate"`

	AnyRAASi       float64 `json:"anyRaasi"`
	ARNIOverall    float64 `json:"arniOverall"`
	ARNIGivenRAASi float64 `json:"arniGivenRaasi"`
	AnyBB          float64 `json:"anyBb"`
	AnyMRA         float64 `json:"anyMra"`
	AnySGLT2i      float64 `json:"anySglt2i"`
}

// wrfThresholdPct is the percent creatinine rise counted as worsening renal
// function in the calibration report.
const wrfThresholdPct = 30.0

// rate returns hits/total, or 0 for an empty stratum.
func rate(hits, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

// Calibrate runs a fresh n-patient simulation and reports summary rates.
func (s *Service) Calibrate(n int) (*CalibrationReport, error) {
	cohort, err := s.SimulateVisit1(n)
	if err != nil {
		return nil, err
	}
	return buildCalibrationReport(cohort), nil
}

func buildCalibrationReport(cohort *Cohort) *CalibrationReport {
	n := len(cohort.Visits)
	rep := &CalibrationReport{Patients: n}

	crPct := make([]float64, n)
	for i, v := range cohort.Visits {
		crPct[i] = v.CrPctCh
	}
	// stats errors only on empty input, which SimulateVisit1 rules out.
	rep.CrPctChMean, _ = stats.Mean(crPct)
	rep.CrPctChMedian, _ = stats.Median(crPct)
	q25, _ := stats.Percentile(crPct, 25)
	q75, _ := stats.Percentile(crPct, 75)
	rep.CrPctChIQR = [2]float64{q25, q75}

	var (
		wrf, wrfLt30, wrfMid, wrfGe60 int
		nLt30, nMid, nGe60            int
		kGt55, kGt60, kGt55MRA, nMRA  int
		sxHypot                       int
		anyRAASi, arni, anyBB         int
		anyMRA, anySGLT2i             int
	)
	for i, v := range cohort.Visits {
		worsened := v.CrPctCh >= wrfThresholdPct
		if worsened {
			wrf++
		}
		switch egfr := cohort.Latent[i].EGFRPrior; {
		case egfr < 30:
			nLt30++
			if worsened {
				wrfLt30++
			}
		case egfr < 60:
			nMid++
			if worsened {
				wrfMid++
			}
		default:
			nGe60++
			if worsened {
				wrfGe60++
			}
		}

		if v.K > 5.5 {
			kGt55++
		}
		if v.K > 6.0 {
			kGt60++
		}
		if v.MRA > 0 {
			nMRA++
			if v.K > 5.5 {
				kGt55MRA++
			}
		}
		if v.SxHypot == 1 {
			sxHypot++
		}
		if v.RAASi > 0 {
			anyRAASi++
		}
		if cohort.Latent[i].RAASiIsARNI {
			arni++
		}
		if v.BB > 0 {
			anyBB++
		}
		if v.MRA > 0 {
			anyMRA++
		}
		if v.SGLT2i > 0 {
			anySGLT2i++
		}
	}

	rep.WRFRate = rate(wrf, n)
	rep.WRFRateEGFRLt30 = rate(wrfLt30, nLt30)
	rep.WRFRateEGFR30To59 = rate(wrfMid, nMid)
	rep.WRFRateEGFRGe60 = rate(wrfGe60, nGe60)
	rep.WRFMonotonicByEGFR = rep.WRFRateEGFRLt30 >= rep.WRFRateEGFR30To59 &&
		rep.WRFRateEGFR30To59 >= rep.WRFRateEGFRGe60

	rep.KGt55 = rate(kGt55, n)
	rep.KGt60 = rate(kGt60, n)
	rep.KGt55MRA = rate(kGt55MRA, nMRA)
	rep.SxHypot = rate(sxHypot, n)

	rep.AnyRAASi = rate(anyRAASi, n)
	rep.ARNIOverall = rate(arni, n)
	rep.ARNIGivenRAASi = rate(arni, anyRAASi)
	rep.AnyBB = rate(anyBB, n)
	rep.AnyMRA = rate(anyMRA, n)
	rep.AnySGLT2i = rate(anySGLT2i, n)

	return rep
}
