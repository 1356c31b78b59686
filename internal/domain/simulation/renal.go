package simulation

// renalOutcome is the per-patient creatinine timeline from the last
// stable value to the current visit.
type renalOutcome struct {
	CrPrior   float64
	EGFRPrior float64
	CrPctCh   float64
	CrVisit   float64
	EGFRVisit float64
	WRFEvent  bool
}

// wrfLogit is the linear predictor for the worsening-renal-function tail
// event: CKD-stage indicators, per-class dose slopes, and a RAASi+MRA
// interaction.
func wrfLogit(cfg *SimulatorConfig, egfrPrior float64, meds MedicationRegimen) float64 {
	logit := cfg.WRFIntercept +
		cfg.WRFSlopeRAASi*float64(meds.RAASi) +
		cfg.WRFSlopeMRA*float64(meds.MRA)
	if egfrPrior < 60 {
		logit += cfg.WRFSlopeCKD60
	}
	if egfrPrior < 30 {
		logit += cfg.WRFSlopeCKD30
	}
	if meds.RAASi > 0 && meds.MRA > 0 {
		logit += cfg.WRFSlopeCombo
	}
	return logit
}

// simulateRenal derives Cr_prior -> Cr_pct_ch -> Cr_visit per patient.
// Every random draw is consumed unconditionally so the stream layout does
// not depend on which events fire.
func simulateRenal(s *Sampler, cfg *SimulatorConfig, base []PatientBaseline, meds []MedicationRegimen) []renalOutcome {
	n := len(base)
	out := make([]renalOutcome, n)

	for i := range out {
		out[i].CrPrior = cfg.CrBounds.Clamp(base[i].Cr0 * s.LogNormal(0.0, cfg.CrPriorNoiseSigma))
		out[i].EGFRPrior = cfg.GFRBounds.Clamp(EGFRCKDEpi2021(out[i].CrPrior, base[i].Age, base[i].Sex))
	}

	recentStart := make([]bool, n)
	for i := range recentStart {
		recentStart[i] = meds[i].SGLT2i == 1 && s.Bernoulli(cfg.SGLT2RecentStartProb)
	}

	drift := make([]float64, n)
	for i := range drift {
		drift[i] = s.Normal(cfg.CrPctBaseMean, cfg.CrPctBaseSD)
	}
	noise := make([]float64, n)
	for i := range noise {
		noise[i] = s.Normal(0.0, cfg.CrPctNoiseSD)
	}

	bump := make([]float64, n)
	for i := range bump {
		draw := s.Uniform(cfg.SGLT2BumpLow, cfg.SGLT2BumpHigh)
		if recentStart[i] {
			bump[i] = draw
		}
	}

	for i := range out {
		p := sigmoid(wrfLogit(cfg, out[i].EGFRPrior, meds[i]))
		out[i].WRFEvent = s.Bernoulli(p)
	}
	tail := make([]float64, n)
	for i := range tail {
		draw := s.Uniform(cfg.WRFMagLow, cfg.WRFMagHigh)
		if out[i].WRFEvent {
			tail[i] = draw
		}
	}

	for i := range out {
		raasiSat := sat(float64(meds[i].RAASi), cfg.CRAASi)
		mraSat := sat(float64(meds[i].MRA), cfg.CMRA)

		var ckd60, ckd30 float64
		if out[i].EGFRPrior < 60 {
			ckd60 = 1
		}
		if out[i].EGFRPrior < 30 {
			ckd30 = 1
		}

		medEffect := raasiSat*(cfg.CrPctRAASLow+cfg.CrPctRAASCKD60*ckd60+cfg.CrPctRAASCKD30*ckd30) +
			mraSat*(cfg.CrPctMRALow+cfg.CrPctMRACKD60*ckd60)

		pct := cfg.CrPctBounds.Clamp(drift[i] + medEffect + bump[i] + noise[i] + tail[i])

		out[i].CrVisit = cfg.CrBounds.Clamp(out[i].CrPrior * (1.0 + pct/100.0))
		// Re-derive from the clamped visit value so the stored percent-change
		// always reproduces Cr_visit exactly, even when the absolute clamp binds.
		out[i].CrPctCh = (out[i].CrVisit - out[i].CrPrior) / out[i].CrPrior * 100.0
		out[i].EGFRVisit = cfg.GFRBounds.Clamp(EGFRCKDEpi2021(out[i].CrVisit, base[i].Age, base[i].Sex))
	}

	return out
}
