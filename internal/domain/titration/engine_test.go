package titration

import (
	"strings"
	"testing"

	"github.com/hfsim/hfsim/internal/domain/simulation"
)

func newTestAdvisor() *Advisor {
	return NewAdvisor(simulation.DefaultSimulatorConfig())
}

func pct(v float64) *float64 { return &v }

// baseVisit is a stable patient on all four pillars: no recommendation
// should trigger on safety grounds.
func baseVisit() VisitInput {
	return VisitInput{
		Sex:     simulation.SexMale,
		K:       4.5,
		Cr:      1.2,
		CrPctCh: pct(5.0),
		GFR:     55,
		RAASi:   1,
		BB:      1,
		MRA:     1,
		SGLT2i:  1,
	}
}

func expectRec(t *testing.T, got Recommendation, class Class, dir int) {
	t.Helper()
	if got.Class != class || got.Direction != dir {
		t.Fatalf("got (%s, %d, %q), want (%s, %d)", got.Class, got.Direction, got.Reason, class, dir)
	}
}

func TestRecommend_BradycardiaBeatsEverything(t *testing.T) {
	a := newTestAdvisor()

	in := baseVisit()
	in.SxBrady = true
	in.BB = 2
	// Stack competing triggers; bradycardia still wins.
	in.K = 5.7
	in.SxHypot = true
	in.CrPctCh = pct(60)

	rec := a.Recommend(in)
	expectRec(t, rec, ClassBB, Down)
	if rec.Reason != ReasonSafetyBradycardia {
		t.Errorf("unexpected reason: %q", rec.Reason)
	}
}

func TestRecommend_BradycardiaViaHomeBurden(t *testing.T) {
	a := newTestAdvisor()
	in := baseVisit()
	in.TIRLowHR = 25
	in.BB = 3

	expectRec(t, a.Recommend(in), ClassBB, Down)
}

func TestRecommend_HyperkalemiaPrefersMRA(t *testing.T) {
	a := newTestAdvisor()
	in := baseVisit()
	in.K = 5.7
	in.MRA = 2

	rec := a.Recommend(in)
	expectRec(t, rec, ClassMRA, Down)
	if rec.Reason != ReasonSafetyHyperkMRA {
		t.Errorf("unexpected reason: %q", rec.Reason)
	}
}

func TestRecommend_HyperkalemiaFallsBackToRAASi(t *testing.T) {
	a := newTestAdvisor()
	in := baseVisit()
	in.K = 5.7
	in.MRA = 0
	in.RAASi = 2

	rec := a.Recommend(in)
	expectRec(t, rec, ClassRAASi, Down)
	if rec.Reason != ReasonSafetyHyperkRAASi {
		t.Errorf("unexpected reason: %q", rec.Reason)
	}
}

func TestRecommend_HyperkalemiaBoundaryInclusive(t *testing.T) {
	a := newTestAdvisor()
	in := baseVisit()
	in.K = 5.5 // threshold itself triggers

	expectRec(t, a.Recommend(in), ClassMRA, Down)
}

func TestRecommend_HypotensionDownsRAASiOnly(t *testing.T) {
	a := newTestAdvisor()
	in := baseVisit()
	in.SxHypot = true
	in.RAASi = 2

	rec := a.Recommend(in)
	expectRec(t, rec, ClassRAASi, Down)
	if rec.Reason != ReasonSafetyHypotension {
		t.Errorf("unexpected reason: %q", rec.Reason)
	}
}

func TestRecommend_HypotensionWithoutRAASiFallsToProtocolScan(t *testing.T) {
	// No RAASi on board: the dedicated hypotension priority cannot act, so
	// the per-class scan picks the first dosed class whose protocol downs.
	a := newTestAdvisor()
	in := baseVisit()
	in.SxHypot = true
	in.RAASi = 0
	in.BB = 2

	rec := a.Recommend(in)
	expectRec(t, rec, ClassBB, Down)
}

func TestRecommend_RenalWorseningPicksHigherDose(t *testing.T) {
	a := newTestAdvisor()
	in := baseVisit()
	in.CrPctCh = pct(60)
	in.RAASi = 1
	in.MRA = 3

	rec := a.Recommend(in)
	expectRec(t, rec, ClassMRA, Down)
	if rec.Reason != ReasonSafetyRenalMRA {
		t.Errorf("unexpected reason: %q", rec.Reason)
	}
}

func TestRecommend_RenalWorseningTieFavorsRAASi(t *testing.T) {
	a := newTestAdvisor()
	in := baseVisit()
	in.CrPctCh = pct(55)
	in.RAASi = 2
	in.MRA = 2

	rec := a.Recommend(in)
	expectRec(t, rec, ClassRAASi, Down)
	if rec.Reason != ReasonSafetyRenalRAASi {
		t.Errorf("unexpected reason: %q", rec.Reason)
	}
}

func TestRecommend_MissingCrPctChIsRenalSafe(t *testing.T) {
	a := newTestAdvisor()
	in := baseVisit()
	in.CrPctCh = nil
	in.RAASi = 2
	in.BB = 3
	in.MRA = 2

	rec := a.Recommend(in)
	expectRec(t, rec, ClassRAASi, Up)
}

func TestRecommend_InitiationOrderRAASiFirst(t *testing.T) {
	a := newTestAdvisor()
	var in VisitInput // zero value: stable, untreated
	in.Sex = simulation.SexMale

	rec := a.Recommend(in)
	expectRec(t, rec, ClassRAASi, Up)
	if !strings.HasPrefix(rec.Reason, "initiation_priority_order") {
		t.Errorf("unexpected reason: %q", rec.Reason)
	}
}

func TestRecommend_InitiationSkipsToNextPillar(t *testing.T) {
	a := newTestAdvisor()
	in := baseVisit()
	in.RAASi = 2
	in.BB = 0
	in.MRA = 0
	in.SGLT2i = 0

	expectRec(t, a.Recommend(in), ClassBB, Up)
}

func TestRecommend_InitiationRespectsClassGates(t *testing.T) {
	a := newTestAdvisor()
	in := baseVisit()
	in.MRA = 0
	in.SGLT2i = 0
	in.GFR = 28 // below the MRA floor but above the SGLT2i floor

	expectRec(t, a.Recommend(in), ClassSGLT2i, Up)
}

func TestRecommend_UptitrationRequiresAllPillarsDosed(t *testing.T) {
	a := newTestAdvisor()
	in := baseVisit()
	in.RAASi = 2
	in.BB = 3
	in.MRA = 2
	in.SGLT2i = 1

	rec := a.Recommend(in)
	expectRec(t, rec, ClassRAASi, Up)
	if !strings.HasPrefix(rec.Reason, "uptitration_priority_order") {
		t.Errorf("unexpected reason: %q", rec.Reason)
	}
}

func TestRecommend_UptitrationSkipsMaxedClasses(t *testing.T) {
	a := newTestAdvisor()
	in := baseVisit()
	in.RAASi = 4
	in.BB = 2
	in.MRA = 1
	in.SGLT2i = 1

	expectRec(t, a.Recommend(in), ClassBB, Up)
}

func TestRecommend_UptitrationNeverTargetsSGLT2i(t *testing.T) {
	a := newTestAdvisor()
	in := baseVisit()
	in.RAASi = 4
	in.BB = 4
	in.MRA = 4
	in.SGLT2i = 1

	rec := a.Recommend(in)
	expectRec(t, rec, ClassNone, NoChange)
	if rec.Reason != ReasonProtocolNoChange {
		t.Errorf("unexpected reason: %q", rec.Reason)
	}
}

func TestRecommend_WatchZoneHoldsInsteadOfOscillating(t *testing.T) {
	// HR burden sits between the high-burden threshold and the watch upper
	// bound with no symptoms and no BB on board: nothing should change.
	a := newTestAdvisor()
	in := baseVisit()
	in.BB = 0
	in.TIRLowHR = 15

	rec := a.Recommend(in)
	expectRec(t, rec, ClassNone, NoChange)
}

func TestRecommend_MRAInitiationSexSpecificCutoff(t *testing.T) {
	a := newTestAdvisor()

	in := baseVisit()
	in.MRA = 0
	in.SGLT2i = 0
	in.Cr = 2.2 // above the female cutoff, below the male cutoff

	in.Sex = simulation.SexMale
	expectRec(t, a.Recommend(in), ClassMRA, Up)

	in.Sex = simulation.SexFemale
	expectRec(t, a.Recommend(in), ClassSGLT2i, Up)
}

func TestFromRecord_MapsFlagsAndPointer(t *testing.T) {
	r := simulation.VisitRecord{
		Sex: simulation.SexFemale, K: 4.1, Cr: 1.4, CrPctCh: 12.5, GFR: 48,
		SxHypot: 1, SxBrady: 0, RAASi: 2, BB: 1, MRA: 0, SGLT2i: 1,
	}
	in := FromRecord(r)

	if !in.SxHypot || in.SxBrady {
		t.Errorf("symptom flags mapped wrong: hypot=%v brady=%v", in.SxHypot, in.SxBrady)
	}
	if in.CrPctCh == nil || *in.CrPctCh != 12.5 {
		t.Errorf("expected CrPctCh pointer to 12.5, got %v", in.CrPctCh)
	}
	if in.Sex != simulation.SexFemale || in.RAASi != 2 || in.SGLT2i != 1 {
		t.Errorf("field mapping wrong: %+v", in)
	}
}
