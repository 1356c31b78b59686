package titration

import (
	"fmt"

	"github.com/hfsim/hfsim/internal/domain/simulation"
)

// Stable reason codes for the deterministic safety priorities. Tests and
// audit logs key on the prefix before the colon.
const (
	ReasonSafetyBradycardia = "safety_bradycardia: BB protocol down-titration"
	ReasonSafetyHyperkMRA   = "safety_hyperkalemia: MRA protocol down-titration"
	ReasonSafetyHyperkRAASi = "safety_hyperkalemia: RAASi protocol down-titration"
	ReasonSafetyHypotension = "safety_hypotension: RAASi protocol down-titration"
	ReasonSafetyRenalRAASi  = "safety_renal_worsening: RAASi protocol down-titration"
	ReasonSafetyRenalMRA    = "safety_renal_worsening: MRA protocol down-titration"
	ReasonProtocolNoChange  = "protocol_no_change: no down-trigger and all pillars at max or maintained"
)

// Advisor evaluates the titration protocol against one threshold set. It is
// stateless: Recommend is a pure function of its input, evaluated
// independently per row.
type Advisor struct {
	cfg simulation.SimulatorConfig
}

// NewAdvisor returns an advisor using the given protocol thresholds.
func NewAdvisor(cfg simulation.SimulatorConfig) *Advisor {
	return &Advisor{cfg: cfg}
}

func (a *Advisor) stableBP(in VisitInput) bool {
	return !in.SxHypot && in.TIRLowSys <= a.cfg.TIRHigh
}

func (a *Advisor) stableHR(in VisitInput) bool {
	return !in.SxBrady && in.TIRLowHR <= a.cfg.TIRHigh
}

// crSafe treats a missing percent-change as renal-safe.
func (a *Advisor) crSafe(in VisitInput) bool {
	return in.CrPctCh == nil || *in.CrPctCh < a.cfg.CrPctHold
}

func (a *Advisor) crHold(in VisitInput) bool {
	return in.CrPctCh != nil && *in.CrPctCh >= a.cfg.CrPctHold
}

// watchZone is the hysteresis band: a TIR burden above the high-burden
// threshold but below the watch upper bound. Protocols hold rather than
// oscillate while a burden sits here and the patient is asymptomatic.
func (a *Advisor) watchZone(in VisitInput) bool {
	inBand := func(tir float64) bool {
		return tir > a.cfg.TIRHigh && tir < a.cfg.TIRWatchUpper
	}
	return inBand(in.TIRLowHR) || inBand(in.TIRLowSys)
}

func (a *Advisor) mraCrCutoff(sex simulation.Sex) float64 {
	if sex == simulation.SexFemale {
		return a.cfg.CrMRACutoffFemale
	}
	return a.cfg.CrMRACutoffMale
}

// protocol verdicts for one class considered in isolation.
type protocolAction int

const (
	actionDown protocolAction = -1
	actionHold protocolAction = 0
	actionUp   protocolAction = +1
)

func (a *Advisor) raasiProtocol(in VisitInput) (protocolAction, string) {
	if in.Cr >= a.cfg.CrRAASiMax || a.crHold(in) || in.K >= a.cfg.KHold ||
		in.TIRLowSys > a.cfg.TIRHigh || in.SxHypot {
		return actionDown, "safety_raasi_protocol_down: RAASi protocol down-titration"
	}
	if a.watchZone(in) && !in.SxHypot {
		return actionHold, "no_change_raasi_protocol"
	}
	if in.Cr < a.cfg.CrRAASiMax && a.crSafe(in) && in.K < a.cfg.KHold && a.stableBP(in) {
		return actionUp, "uptitration_raasi_protocol"
	}
	return actionHold, "no_change_raasi_protocol"
}

func (a *Advisor) bbProtocol(in VisitInput) (protocolAction, string) {
	if in.TIRLowHR > a.cfg.TIRHigh || in.TIRLowSys > a.cfg.TIRHigh || in.SxBrady || in.SxHypot {
		return actionDown, "safety_bradycardia/bp_protocol_down: BB protocol down-titration"
	}
	if a.watchZone(in) && !in.SxBrady && !in.SxHypot {
		return actionHold, "no_change_bb_protocol"
	}
	if a.stableHR(in) && a.stableBP(in) {
		return actionUp, "uptitration_bb_protocol"
	}
	return actionHold, "no_change_bb_protocol"
}

func (a *Advisor) mraProtocol(in VisitInput) (protocolAction, string) {
	cutoff := a.mraCrCutoff(in.Sex)
	if in.GFR <= a.cfg.GFRMRAMin || in.Cr >= cutoff || a.crHold(in) ||
		in.K >= a.cfg.KHold || in.TIRLowSys > a.cfg.TIRHigh || in.SxHypot {
		return actionDown, "safety_hyperkalemia/renal/bp_protocol_down: MRA protocol down-titration"
	}
	if a.watchZone(in) && !in.SxHypot {
		return actionHold, "no_change_mra_protocol"
	}
	if in.GFR > a.cfg.GFRMRAMin && in.Cr < cutoff && a.crSafe(in) &&
		in.K < a.cfg.KMRAUp && a.stableBP(in) {
		return actionUp, "uptitration_mra_protocol"
	}
	return actionHold, "no_change_mra_protocol"
}

func (a *Advisor) sglt2Protocol(in VisitInput) (protocolAction, string) {
	// The protocol text's SGLT2i down-titration wording is internally
	// inconsistent; implemented to match the other classes: down on low
	// eGFR, high low-SBP burden, or symptomatic hypotension.
	if in.GFR <= a.cfg.GFRSGLT2Min || in.TIRLowSys > a.cfg.TIRHigh || in.SxHypot {
		return actionDown, "safety_sglt2i_protocol_down: SGLT2i protocol down-titration"
	}
	if a.watchZone(in) && !in.SxHypot {
		return actionHold, "no_change_sglt2i_protocol"
	}
	if in.GFR > a.cfg.GFRSGLT2Min && a.stableBP(in) {
		return actionUp, "uptitration_sglt2i_protocol"
	}
	return actionHold, "no_change_sglt2i_protocol"
}

func (a *Advisor) classProtocol(c Class, in VisitInput) (protocolAction, string) {
	switch c {
	case ClassRAASi:
		return a.raasiProtocol(in)
	case ClassBB:
		return a.bbProtocol(in)
	case ClassMRA:
		return a.mraProtocol(in)
	default:
		return a.sglt2Protocol(in)
	}
}

// initiationEligible reports whether a class at dose 0 may be started.
// Stable blood pressure is always required; each class adds its own gate.
func (a *Advisor) initiationEligible(c Class, in VisitInput) bool {
	if !a.stableBP(in) {
		return false
	}
	switch c {
	case ClassRAASi:
		return in.K < a.cfg.KHold && a.crSafe(in) && in.Cr < a.cfg.CrRAASiMax
	case ClassBB:
		return a.stableHR(in)
	case ClassMRA:
		return in.GFR > a.cfg.GFRMRAMin && in.K < a.cfg.KMRAInit && in.Cr < a.mraCrCutoff(in.Sex)
	default:
		return in.GFR > a.cfg.GFRSGLT2Min
	}
}

// Recommend applies the protocol to one visit record. The first matching
// rule wins, scanned top to bottom:
//
//  1. bradycardia safety (BB down)
//  2. hyperkalemia safety (MRA down, else RAASi)
//  3. hypotension safety (RAASi down; no cascade to other classes)
//  4. renal safety (down the higher-dosed of RAASi/MRA, ties favor RAASi)
//  5. per-class protocol down scan in canonical order
//  6. initiation of the first eligible zero-dose class
//  7. uptitration of the first protocol-eligible submaximal class,
//     SGLT2i excluded (binary dosing)
//  8. no change
func (a *Advisor) Recommend(in VisitInput) Recommendation {
	if (in.SxBrady || in.TIRLowHR > a.cfg.TIRHigh) && in.BB > 0 {
		return Recommendation{ClassBB, Down, ReasonSafetyBradycardia}
	}

	if in.K >= a.cfg.KHold {
		if in.MRA > 0 {
			return Recommendation{ClassMRA, Down, ReasonSafetyHyperkMRA}
		}
		if in.RAASi > 0 {
			return Recommendation{ClassRAASi, Down, ReasonSafetyHyperkRAASi}
		}
	}

	if (in.SxHypot || in.TIRLowSys > a.cfg.TIRHigh) && in.RAASi > 0 {
		return Recommendation{ClassRAASi, Down, ReasonSafetyHypotension}
	}

	if a.crHold(in) && (in.RAASi > 0 || in.MRA > 0) {
		if in.MRA > in.RAASi {
			return Recommendation{ClassMRA, Down, ReasonSafetyRenalMRA}
		}
		return Recommendation{ClassRAASi, Down, ReasonSafetyRenalRAASi}
	}

	for _, c := range CanonicalOrder {
		if in.Dose(c) == 0 {
			continue
		}
		if action, reason := a.classProtocol(c, in); action == actionDown {
			return Recommendation{c, Down, reason}
		}
	}

	for _, c := range CanonicalOrder {
		if in.Dose(c) == 0 && a.initiationEligible(c, in) {
			reason := fmt.Sprintf("initiation_priority_order: %s is first eligible zero-dose pillar", c)
			return Recommendation{c, Up, reason}
		}
	}

	allDosed := true
	for _, c := range CanonicalOrder {
		if in.Dose(c) == 0 {
			allDosed = false
			break
		}
	}
	if allDosed {
		for _, c := range CanonicalOrder {
			if c == ClassSGLT2i || in.Dose(c) >= 4 {
				continue
			}
			if action, _ := a.classProtocol(c, in); action == actionUp {
				reason := fmt.Sprintf("uptitration_priority_order: %s is first eligible submaximal pillar", c)
				return Recommendation{c, Up, reason}
			}
		}
	}

	return Recommendation{ClassNone, NoChange, ReasonProtocolNoChange}
}
