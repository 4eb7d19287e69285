package evaluate

import (
	"testing"

	"github.com/ppiankov/jobtrust/internal/model"
	"github.com/ppiankov/jobtrust/internal/rules"
)

var full = model.CapabilityProfile{PosterExpected: true, CompanyInfoExpected: true, RecruiterRulesApplicable: true}

func newEvaluator() *Evaluator {
	return New(rules.Default(), model.DefaultScoringConfig().PayTransparencyJurisdictions)
}

func outcomeOf(t *testing.T, evals []Evaluation, id string) rules.Outcome {
	t.Helper()
	for _, ev := range evals {
		if ev.Rule.ID == id {
			return ev.Outcome
		}
	}
	t.Fatalf("rule %s not evaluated", id)
	return rules.Inapplicable
}

func TestEvaluate_RegistryOrder(t *testing.T) {
	evals := newEvaluator().Evaluate(model.JobRecord{Platform: "linkedin"}, full)

	reg := rules.Default().Rules()
	if len(evals) != len(reg) {
		t.Fatalf("expected %d evaluations, got %d", len(reg), len(evals))
	}
	for i := range reg {
		if evals[i].Rule.ID != reg[i].ID {
			t.Errorf("position %d: expected %s, got %s", i, reg[i].ID, evals[i].Rule.ID)
		}
	}
}

func TestEvaluate_StripsHTMLBeforeTextRules(t *testing.T) {
	rec := model.JobRecord{
		Description: `<div><p>Short.</p><script>var kubernetes = "urgent";</script></div>`,
	}
	evals := newEvaluator().Evaluate(rec, full)

	if got := outcomeOf(t, evals, rules.UrgencyPressure); got != rules.NotMatched {
		t.Errorf("script content leaked into text rules: urgency %s", got)
	}
	if got := outcomeOf(t, evals, rules.NoTechStackMentioned); got != rules.Matched {
		t.Errorf("expected no tech stack in visible text, got %s", got)
	}
	if got := outcomeOf(t, evals, rules.VagueDescription); got != rules.Matched {
		t.Errorf("expected vague description, got %s", got)
	}
}

func TestEvaluate_PayTransparencyJurisdiction(t *testing.T) {
	thin := model.CapabilityProfile{}
	ev := newEvaluator()

	inNY := ev.Evaluate(model.JobRecord{Jurisdiction: "us-ny", Description: "Warehouse shift lead."}, thin)
	if got := outcomeOf(t, inNY, rules.SalaryNotDisclosed); got != rules.Matched {
		t.Errorf("expected salary rule to apply in a pay-transparency region, got %s", got)
	}

	inTX := ev.Evaluate(model.JobRecord{Jurisdiction: "US-TX", Description: "Warehouse shift lead."}, thin)
	if got := outcomeOf(t, inTX, rules.SalaryNotDisclosed); got != rules.Inapplicable {
		t.Errorf("expected salary rule to be inapplicable on a thin platform elsewhere, got %s", got)
	}
}

func TestMatchedAndCount(t *testing.T) {
	rec := model.JobRecord{
		Location: "Remote",
		Signals:  model.PlatformSignals{DaysSincePosted: model.Int(90), RepostCount: model.Int(5)},
	}
	evals := newEvaluator().Evaluate(rec, model.CapabilityProfile{})

	matched := Matched(evals)
	if len(matched) != Count(evals, rules.Matched) {
		t.Errorf("Matched and Count disagree: %d vs %d", len(matched), Count(evals, rules.Matched))
	}

	want := []string{rules.GenericRemoteLocation, rules.StalePosting, rules.FrequentReposting}
	if len(matched) != len(want) {
		t.Fatalf("expected %d matches, got %d", len(want), len(matched))
	}
	for i, id := range want {
		if matched[i].Rule.ID != id {
			t.Errorf("match %d: expected %s, got %s", i, id, matched[i].Rule.ID)
		}
	}
}

func TestJurisdictionSet(t *testing.T) {
	set := JurisdictionSet([]string{" us-ca ", "CA_ON", ""})
	if !InSet(set, "US-CA") || !InSet(set, "ca-on") {
		t.Error("expected normalized codes to match")
	}
	if InSet(set, "") {
		t.Error("empty jurisdiction must never match")
	}
	if len(set) != 2 {
		t.Errorf("expected 2 entries, got %d", len(set))
	}
}
