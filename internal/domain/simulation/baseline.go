package simulation

// sampleBaselines draws demographics and pre-medication vitals/labs for n
// patients. Draws are taken stage by stage (all sexes, then all ages, ...)
// so the stream layout is independent of per-patient branching.
func sampleBaselines(s *Sampler, cfg *SimulatorConfig, n int) []PatientBaseline {
	out := make([]PatientBaseline, n)
	for i := range out {
		out[i].PatID = i + 1
		out[i].Sex = SexFemale
		if s.Bernoulli(cfg.PMale) {
			out[i].Sex = SexMale
		}
	}
	for i := range out {
		out[i].Age = s.IntBetween(cfg.AgeMin, cfg.AgeMax)
	}
	for i := range out {
		out[i].SBP0 = s.TruncNormal(cfg.BaselineSBPMean, cfg.BaselineSBPSD, cfg.BaselineSBPBounds)
	}
	for i := range out {
		out[i].HR0 = s.TruncNormal(cfg.BaselineHRMean, cfg.BaselineHRSD, cfg.BaselineHRBounds)
	}
	for i := range out {
		out[i].Cr0 = s.TruncNormal(cfg.BaselineCrMean, cfg.BaselineCrSD, cfg.BaselineCrBounds)
	}
	for i := range out {
		out[i].K0 = s.TruncNormal(cfg.BaselineKMean, cfg.BaselineKSD, cfg.BaselineKBounds)
	}
	return out
}

// sampleDose gates a categorical dose level behind a presence draw. Both
// draws are always consumed so absence does not shift the stream.
func sampleDose(s *Sampler, pAny float64, probs [4]float64) int {
	present := s.Bernoulli(pAny)
	dose := s.DoseLevel(probs)
	if !present {
		return 0
	}
	return dose
}

// sampleRegimens draws the medication regimen for n patients: Bernoulli-gated
// dose 1-4 for RAASi/BB/MRA, binary SGLT2i, and an ARNI sub-flag drawn only
// for RAASi-treated patients.
func sampleRegimens(s *Sampler, cfg *SimulatorConfig, n int) []MedicationRegimen {
	out := make([]MedicationRegimen, n)
	for i := range out {
		out[i].RAASi = sampleDose(s, cfg.PAnyRAASi, cfg.DoseProbs)
	}
	for i := range out {
		out[i].BB = sampleDose(s, cfg.PAnyBB, cfg.DoseProbs)
	}
	for i := range out {
		out[i].MRA = sampleDose(s, cfg.PAnyMRA, cfg.DoseProbs)
	}
	for i := range out {
		if s.Bernoulli(cfg.PSGLT2i) {
			out[i].SGLT2i = 1
		}
	}
	for i := range out {
		arni := s.Bernoulli(cfg.PARNIGivenRAASi)
		out[i].RAASiIsARNI = out[i].RAASi > 0 && arni
	}
	return out
}
