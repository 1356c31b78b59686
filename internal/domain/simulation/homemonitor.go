package simulation

// tirResult is the per-patient time-in-low-range burden over the home
// monitoring window, in percent of non-missing readings.
type tirResult struct {
	TIRLowSys float64
	TIRLowHR  float64
}

// simulateHomeMonitoring generates the twice-daily home series for each
// patient: a shared day-level drift offset, a fixed AM/PM directional offset,
// per-reading noise, missingness, and rare large negative outliers modeling
// device or positional artifacts. Patients with zero surviving readings get
// a burden of 0, never NaN.
func simulateHomeMonitoring(s *Sampler, cfg *SimulatorConfig, patients []PatientBaseline, physio []physioOutcome) ([]HomeReading, []tirResult) {
	var readings []HomeReading
	tir := make([]tirResult, len(patients))

	for i := range patients {
		var nObs, nLowSBP, nLowHR int

		for day := 1; day <= cfg.NDaysHome; day++ {
			dayShiftSBP := s.Normal(0, cfg.HomeDayNoiseSBP)
			dayShiftHR := s.Normal(0, cfg.HomeDayNoiseHR)

			for _, tod := range []TimeOfDay{TimeAM, TimePM} {
				if s.Bernoulli(cfg.HomeMissingProb) {
					continue
				}
				sign := -1.0
				if tod == TimePM {
					sign = 1.0
				}

				sbp := physio[i].SBPTrue + dayShiftSBP + sign*cfg.HomeAMPMSBP + s.Normal(0, cfg.HomeReadingNoiseSBP)
				hr := physio[i].HRTrue + dayShiftHR + sign*cfg.HomeAMPMHR + s.Normal(0, cfg.HomeReadingNoiseHR)

				if s.Bernoulli(cfg.HomeOutlierProb) {
					sbp += s.Normal(cfg.HomeOutlierSBPMean, cfg.HomeOutlierSBPSD)
				}
				if s.Bernoulli(cfg.HomeOutlierProb) {
					hr += s.Normal(cfg.HomeOutlierHRMean, cfg.HomeOutlierHRSD)
				}

				readings = append(readings, HomeReading{
					PatientID: patients[i].PatID,
					Day:       day,
					TimeOfDay: tod,
					SBP:       sbp,
					HR:        hr,
				})

				nObs++
				if sbp < cfg.LowSBPThreshold {
					nLowSBP++
				}
				if hr < cfg.LowHRThreshold {
					nLowHR++
				}
			}
		}

		if nObs > 0 {
			tir[i].TIRLowSys = 100.0 * float64(nLowSBP) / float64(nObs)
			tir[i].TIRLowHR = 100.0 * float64(nLowHR) / float64(nObs)
		}
	}

	return readings, tir
}

// clinicVitals is the in-clinic SBP/HR measurement pair.
type clinicVitals struct {
	SBP float64
	HR  float64
}

// deriveClinicVitals derives the clinic reading from the mean of the last
// two monitoring days (falling back to the true value when no home data
// survived), plus a white-coat offset and extra measurement noise, clamped
// to clinic-plausible bounds.
func deriveClinicVitals(s *Sampler, cfg *SimulatorConfig, patients []PatientBaseline, physio []physioOutcome, readings []HomeReading) []clinicVitals {
	type acc struct {
		sumSBP, sumHR float64
		n             int
	}
	recent := make(map[int]*acc, len(patients))
	cutoff := cfg.NDaysHome - 2
	for _, r := range readings {
		if r.Day < cutoff {
			continue
		}
		a := recent[r.PatientID]
		if a == nil {
			a = &acc{}
			recent[r.PatientID] = a
		}
		a.sumSBP += r.SBP
		a.sumHR += r.HR
		a.n++
	}

	out := make([]clinicVitals, len(patients))
	for i := range patients {
		baseSBP := physio[i].SBPTrue
		baseHR := physio[i].HRTrue
		if a := recent[patients[i].PatID]; a != nil && a.n > 0 {
			baseSBP = a.sumSBP / float64(a.n)
			baseHR = a.sumHR / float64(a.n)
		}

		sbp := baseSBP + s.Normal(cfg.WhitecoatSBPMean, cfg.WhitecoatSBPSD) + s.Normal(0, cfg.ClinicNoiseSBP)
		hr := baseHR + s.Normal(cfg.ClinicHROffsetMean, cfg.ClinicHROffsetSD) + s.Normal(0, cfg.ClinicNoiseHR)

		out[i] = clinicVitals{
			SBP: cfg.ClinicSBPBounds.Clamp(sbp),
			HR:  cfg.ClinicHRBounds.Clamp(hr),
		}
	}
	return out
}

// symptomProbability is the logistic link from a time-in-low-range burden to
// a symptom flag probability.
func symptomProbability(cfg *SimulatorConfig, tir, intercept float64) float64 {
	return sigmoid(intercept + cfg.SxTIRScale*(tir-cfg.SxTIRMidpoint))
}

// deriveSymptomFlags draws the hypotension and bradycardia symptom flags.
// All hypotension draws are consumed first, then all bradycardia draws.
func deriveSymptomFlags(s *Sampler, cfg *SimulatorConfig, tir []tirResult) ([]int, []int) {
	hypot := make([]int, len(tir))
	brady := make([]int, len(tir))
	for i := range tir {
		if s.Bernoulli(symptomProbability(cfg, tir[i].TIRLowSys, cfg.SxHypotIntercept)) {
			hypot[i] = 1
		}
	}
	for i := range tir {
		if s.Bernoulli(symptomProbability(cfg, tir[i].TIRLowHR, cfg.SxBradyIntercept)) {
			brady[i] = 1
		}
	}
	return hypot, brady
}
