package simulation

import "math"

// sat maps a dose level to fractional physiologic effect, 1 - exp(-dose/c):
// monotonically increasing, asymptoting to 1, diminishing returns per level.
func sat(dose, c float64) float64 {
	return 1.0 - math.Exp(-dose/c)
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// physioOutcome holds the pre-monitoring "true" vitals and the visit
// potassium for one patient.
type physioOutcome struct {
	SBPTrue    float64
	HRTrue     float64
	K          float64
	HyperkFlag bool
}

// sensitivities are the per-patient multiplicative effect modifiers.
type sensitivities struct {
	SBP    float64
	HR     float64
	Hyperk float64
}

// sampleSensitivities draws the clipped-normal sensitivity multipliers,
// stage by stage.
func sampleSensitivities(s *Sampler, cfg *SimulatorConfig, n int) []sensitivities {
	out := make([]sensitivities, n)
	for i := range out {
		out[i].SBP = s.TruncNormal(1.0, cfg.SBPSensSD, Bounds{0.4, 1.7})
	}
	for i := range out {
		out[i].HR = s.TruncNormal(1.0, cfg.HRSensSD, Bounds{0.5, 1.8})
	}
	for i := range out {
		out[i].Hyperk = s.TruncNormal(1.0, cfg.HyperkSensSD, Bounds{0.5, 1.8})
	}
	return out
}

// hyperkLogit is the linear predictor for the hyperkalemia spike event.
func hyperkLogit(cfg *SimulatorConfig, egfrVisit float64, meds MedicationRegimen) float64 {
	logit := cfg.HyperkSpikeIntercept +
		cfg.HyperkSlopeEGFRLow*(80.0-egfrVisit) +
		cfg.HyperkSlopeRAASi*float64(meds.RAASi) +
		cfg.HyperkSlopeMRA*float64(meds.MRA)
	if meds.RAASi > 0 && meds.MRA > 0 {
		logit += cfg.HyperkSlopeCombo
	}
	return logit
}

// simulatePhysiology propagates medication saturation effects from baseline
// to the visit: SBP and HR deltas with measurement noise, and the potassium
// delta with a rare hyperkalemia spike. Potassium is clamped; SBP/HR are the
// "true" values fed to home monitoring and clamped only at clinic derivation.
func simulatePhysiology(s *Sampler, cfg *SimulatorConfig, base []PatientBaseline, meds []MedicationRegimen, renal []renalOutcome, sens []sensitivities) []physioOutcome {
	n := len(base)
	out := make([]physioOutcome, n)

	for i := range out {
		raasiSat := sat(float64(meds[i].RAASi), cfg.CRAASi)
		bbSat := sat(float64(meds[i].BB), cfg.CBB)
		mraSat := sat(float64(meds[i].MRA), cfg.CMRA)
		sgltSat := sat(float64(meds[i].SGLT2i), cfg.CSGLT2i)

		sbpMult, kMult := 1.0, 1.0
		if meds[i].RAASiIsARNI {
			sbpMult += cfg.ARNISBPExtraMultiplier
			kMult += cfg.ARNIKExtraMultiplier
		}

		sbpDelta := sens[i].SBP * (cfg.RAASiSBPDrop*raasiSat*sbpMult +
			cfg.BBSBPDrop*bbSat +
			cfg.MRASBPDrop*mraSat +
			cfg.SGLT2iSBPDrop*sgltSat)
		hrDelta := sens[i].HR * cfg.BBHRDrop * bbSat

		out[i].SBPTrue = base[i].SBP0 + sbpDelta + s.Normal(0, cfg.SBPMeasureNoiseSD)
		out[i].HRTrue = base[i].HR0 + hrDelta + s.Normal(0, cfg.HRMeasureNoiseSD)

		kDelta := sens[i].Hyperk * (cfg.RAASiKRise*raasiSat*kMult +
			cfg.MRAKRise*mraSat +
			cfg.KRAASiMRACrossTerm*raasiSat*mraSat)

		p := sigmoid(hyperkLogit(cfg, renal[i].EGFRVisit, meds[i]))
		out[i].HyperkFlag = s.Bernoulli(p)
		spike := s.Normal(cfg.HyperkSpikeMean, cfg.HyperkSpikeSD)
		if !out[i].HyperkFlag {
			spike = 0
		}

		out[i].K = cfg.KBounds.Clamp(base[i].K0 + kDelta + spike)
	}

	return out
}
