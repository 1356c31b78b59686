package simulation

import "math"

// EGFRCKDEpi2021 computes the CKD-EPI 2021 creatinine-only eGFR (race-free),
// in mL/min/1.73m². Pure; out-of-range creatinine produces extreme values
// that the caller is expected to clamp.
func EGFRCKDEpi2021(creatinineMgDl float64, ageYears int, sex Sex) float64 {
	kappa, alpha, sexFactor := 0.9, -0.302, 1.0
	if sex == SexFemale {
		kappa, alpha, sexFactor = 0.7, -0.241, 1.012
	}

	ratio := creatinineMgDl / kappa
	minTerm := math.Pow(math.Min(ratio, 1.0), alpha)
	maxTerm := math.Pow(math.Max(ratio, 1.0), -1.200)

	return 142.0 * minTerm * maxTerm * math.Pow(0.9938, float64(ageYears)) * sexFactor
}
