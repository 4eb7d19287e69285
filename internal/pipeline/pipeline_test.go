package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/jobtrust/internal/llm"
	"github.com/ppiankov/jobtrust/internal/model"
	"github.com/ppiankov/jobtrust/internal/rules"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func loadFixture(t *testing.T, name string) model.JobRecord {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	var record model.JobRecord
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("decode fixture %s: %v", name, err)
	}
	return record
}

// cloneRecord deep-copies a record so tests can strip fields without touching shared pointers
func cloneRecord(t *testing.T, r model.JobRecord) model.JobRecord {
	t.Helper()
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out model.JobRecord
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func newTestPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	p, err := New(cfg, append([]Option{WithClock(fixedClock)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestPipeline_ReferenceFixtures(t *testing.T) {
	p := newTestPipeline(t)

	tests := []struct {
		fixture    string
		target     float64
		levels     []model.Level
		confidence model.Confidence
	}{
		{"verified_company.json", 92, []model.Level{model.LevelLikelyReal}, model.ConfidenceHigh},
		{"typical_midsize.json", 73, []model.Level{model.LevelLikelyReal, model.LevelUncertain}, model.ConfidenceMedium},
		{"recruiter_cluster.json", 34, []model.Level{model.LevelLikelyFake}, ""},
		{"stale_posting.json", 49, []model.Level{model.LevelUncertain}, ""},
		{"no_identity_remote.json", 12, []model.Level{model.LevelLikelyFake}, model.ConfidenceHigh},
	}

	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			res, err := p.Score(context.Background(), loadFixture(t, tt.fixture))
			if err != nil {
				t.Fatalf("Score: %v", err)
			}
			s := res.Score

			if math.Abs(s.Score-tt.target) > 5 {
				t.Errorf("score %.1f outside %.0f±5 (red flags: %v)", s.Score, tt.target, s.RedFlags)
			}

			levelOK := false
			for _, l := range tt.levels {
				if s.Level == l {
					levelOK = true
				}
			}
			if !levelOK {
				t.Errorf("level %s, want one of %v", s.Level, tt.levels)
			}

			if tt.confidence != "" && s.Confidence != tt.confidence {
				t.Errorf("confidence %s, want %s", s.Confidence, tt.confidence)
			}
			if !s.ComputedAt.Equal(fixedNow) {
				t.Errorf("computed_at %v, want %v", s.ComputedAt, fixedNow)
			}
		})
	}
}

func TestPipeline_RecruiterClusterActivations(t *testing.T) {
	p := newTestPipeline(t)
	res, err := p.Score(context.Background(), loadFixture(t, "recruiter_cluster.json"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	recruiter := 0
	for _, a := range res.Score.Activations {
		if a.Category == model.CategoryRecruiter {
			recruiter++
			// Domain does not match the company, so the cluster keeps its full weight
			if a.AdjustedWeight != a.BaseWeight {
				t.Errorf("%s: adjusted %v, base %v", a.RuleID, a.AdjustedWeight, a.BaseWeight)
			}
		}
	}
	if recruiter < 5 {
		t.Errorf("expected at least 5 recruiter activations, got %d", recruiter)
	}
}

func TestPipeline_Deterministic(t *testing.T) {
	p := newTestPipeline(t)
	record := loadFixture(t, "typical_midsize.json")

	first, err := p.Score(context.Background(), record)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := p.Score(context.Background(), record)
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		if !reflect.DeepEqual(first.Score, again.Score) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, first.Score, again.Score)
		}
	}
}

func TestPipeline_ConcurrentCalls(t *testing.T) {
	p := newTestPipeline(t)
	fixtures := []string{"verified_company.json", "typical_midsize.json", "recruiter_cluster.json", "stale_posting.json", "no_identity_remote.json"}

	want := make(map[string]model.ScoreResult)
	records := make(map[string]model.JobRecord)
	for _, f := range fixtures {
		records[f] = loadFixture(t, f)
		res, err := p.Score(context.Background(), records[f])
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		want[f] = res.Score
	}

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 100; i++ {
		f := fixtures[i%len(fixtures)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := p.Score(context.Background(), records[f])
			if err != nil {
				errs <- err
				return
			}
			if !reflect.DeepEqual(res.Score, want[f]) {
				errs <- errors.New(f + ": concurrent result differs from sequential result")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

// stripFields removes one optional field at a time
var stripFields = []struct {
	name  string
	strip func(r *model.JobRecord)
}{
	{"poster", func(r *model.JobRecord) { r.Poster = nil }},
	{"poster.name", func(r *model.JobRecord) { r.Poster.Name = "" }},
	{"poster.title", func(r *model.JobRecord) { r.Poster.Title = "" }},
	{"poster.account_age", func(r *model.JobRecord) { r.Poster.AccountAgeMonths = nil }},
	{"poster.posting_count", func(r *model.JobRecord) { r.Poster.RecentPostingCount = nil }},
	{"company", func(r *model.JobRecord) { r.Company = nil }},
	{"company.name", func(r *model.JobRecord) { r.Company.Name = "" }},
	{"company.domain", func(r *model.JobRecord) { r.Company.Domain = "" }},
	{"company.domain_matches", func(r *model.JobRecord) { r.Company.DomainMatchesName = nil }},
	{"company.employee_count", func(r *model.JobRecord) { r.Company.EmployeeCount = nil }},
	{"company.rating", func(r *model.JobRecord) { r.Company.Rating = nil }},
	{"company.recent_layoffs", func(r *model.JobRecord) { r.Company.RecentLayoffs = nil }},
	{"signals.days", func(r *model.JobRecord) { r.Signals.DaysSincePosted = nil }},
	{"signals.reposts", func(r *model.JobRecord) { r.Signals.RepostCount = nil }},
	{"signals.applicants", func(r *model.JobRecord) { r.Signals.ApplicantCount = nil }},
	{"signals.actively_hiring", func(r *model.JobRecord) { r.Signals.ActivelyHiring = nil }},
	{"description", func(r *model.JobRecord) { r.Description = "" }},
	{"location", func(r *model.JobRecord) { r.Location = "" }},
	{"jurisdiction", func(r *model.JobRecord) { r.Jurisdiction = "" }},
	{"salary", func(r *model.JobRecord) { r.Salary = nil }},
	{"derived.domain_mismatch", func(r *model.JobRecord) { r.Derived.DomainMismatch = nil }},
	{"derived.poster_no_company", func(r *model.JobRecord) { r.Derived.PosterNoCompany = nil }},
	{"derived.location_mismatch", func(r *model.JobRecord) { r.Derived.PosterLocationMismatch = nil }},
	{"derived.company_mismatch", func(r *model.JobRecord) { r.Derived.PosterCompanyMismatch = nil }},
	{"derived.no_identity", func(r *model.JobRecord) { r.Derived.NoPosterIdentity = nil }},
}

// matchedRedWeight sums the base weight of red flags that do not fire on absence.
// Base weights depend only on which rules matched, so context reliefs do not move it.
func matchedRedWeight(t *testing.T, reg *rules.Registry, acts []model.RuleActivation) float64 {
	t.Helper()
	total := 0.0
	for _, a := range acts {
		if a.Polarity != model.PolarityRedFlag {
			continue
		}
		r, err := reg.Rule(a.RuleID)
		if err != nil {
			t.Fatalf("unknown rule %s", a.RuleID)
		}
		if !r.AbsenceTrigger {
			total += a.BaseWeight
		}
	}
	return total
}

func activation(acts []model.RuleActivation, id string) (model.RuleActivation, bool) {
	for _, a := range acts {
		if a.RuleID == id {
			return a, true
		}
	}
	return model.RuleActivation{}, false
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// withApplicants is the stale posting with applicants on record, which halves not_actively_recruiting
func withApplicants(t *testing.T) model.JobRecord {
	t.Helper()
	r := loadFixture(t, "stale_posting.json")
	r.Signals.ApplicantCount = model.Int(5)
	return r
}

// consistentCluster is the recruiter cluster under a verified company domain, which
// triggers the correlation discount
func consistentCluster(t *testing.T) model.JobRecord {
	t.Helper()
	r := loadFixture(t, "recruiter_cluster.json")
	r.Company.DomainMatchesName = model.Bool(true)
	r.Derived.DomainMismatch = model.Bool(false)
	return r
}

func TestPipeline_MissingFieldsAreNonPunitive(t *testing.T) {
	p := newTestPipeline(t)

	records := map[string]model.JobRecord{
		"consistent_cluster":    consistentCluster(t),
		"stale_with_applicants": withApplicants(t),
	}
	for _, f := range []string{"verified_company.json", "typical_midsize.json", "recruiter_cluster.json", "stale_posting.json", "no_identity_remote.json"} {
		records[f] = loadFixture(t, f)
	}

	for name, base := range records {
		baseRes, err := p.Score(context.Background(), base)
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		baseline := matchedRedWeight(t, p.Registry(), baseRes.Score.Activations)

		for _, field := range stripFields {
			stripped := cloneRecord(t, base)
			if stripped.Poster == nil && strings.HasPrefix(field.name, "poster.") {
				continue
			}
			if stripped.Company == nil && strings.HasPrefix(field.name, "company.") {
				continue
			}
			field.strip(&stripped)

			res, err := p.Score(context.Background(), stripped)
			if err != nil {
				t.Fatalf("Score: %v", err)
			}
			if got := matchedRedWeight(t, p.Registry(), res.Score.Activations); got > baseline+1e-9 {
				t.Errorf("%s without %s: matched red weight rose from %.3f to %.3f", name, field.name, baseline, got)
			}
		}
	}
}

// Reliefs need evidence. Removing the field that granted one restores the rule's
// full weight without adding any new match.
func TestPipeline_MissingEvidenceWithdrawsRelief(t *testing.T) {
	p := newTestPipeline(t)

	tests := []struct {
		name   string
		record model.JobRecord
		strip  func(r *model.JobRecord)
		rule   string
	}{
		{
			name:   "applicant count",
			record: withApplicants(t),
			strip:  func(r *model.JobRecord) { r.Signals.ApplicantCount = nil },
			rule:   rules.NotActivelyRecruiting,
		},
		{
			name:   "company block",
			record: consistentCluster(t),
			strip:  func(r *model.JobRecord) { r.Company = nil },
			rule:   rules.PosterCompanyMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := p.Score(context.Background(), tt.record)
			if err != nil {
				t.Fatalf("Score: %v", err)
			}
			stripped := cloneRecord(t, tt.record)
			tt.strip(&stripped)
			after, err := p.Score(context.Background(), stripped)
			if err != nil {
				t.Fatalf("Score: %v", err)
			}

			relieved, ok := activation(before.Score.Activations, tt.rule)
			if !ok {
				t.Fatalf("expected %s to fire", tt.rule)
			}
			if relieved.AdjustedWeight >= relieved.BaseWeight || len(relieved.Reasons) == 0 {
				t.Fatalf("expected %s to be relieved, got %+v", tt.rule, relieved)
			}

			full, ok := activation(after.Score.Activations, tt.rule)
			if !ok {
				t.Fatalf("expected %s to still fire", tt.rule)
			}
			if !approx(full.AdjustedWeight, full.BaseWeight) {
				t.Errorf("expected full weight %.3f once the evidence is gone, got %.3f", full.BaseWeight, full.AdjustedWeight)
			}

			// No rule that does not fire on absence may join the match set
			matched := map[string]bool{}
			for _, a := range before.Score.Activations {
				matched[a.RuleID] = true
			}
			for _, a := range after.Score.Activations {
				r, _ := p.Registry().Rule(a.RuleID)
				if !matched[a.RuleID] && !r.AbsenceTrigger {
					t.Errorf("%s started firing after the field was removed", a.RuleID)
				}
			}
		})
	}
}

func TestPipeline_AbsenceRulesFireOnMissingData(t *testing.T) {
	p := newTestPipeline(t)
	record := loadFixture(t, "verified_company.json")

	before, _ := p.Score(context.Background(), record)

	stripped := cloneRecord(t, record)
	stripped.Salary = nil
	after, err := p.Score(context.Background(), stripped)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	fired := false
	for _, a := range after.Score.Activations {
		if a.RuleID == rules.SalaryNotDisclosed {
			fired = true
		}
	}
	if !fired {
		t.Error("expected salary_not_disclosed to fire once salary is removed")
	}
	if after.Score.Score >= before.Score.Score {
		t.Errorf("expected a lower score without salary, got %.1f vs %.1f", after.Score.Score, before.Score.Score)
	}
}

func TestPipeline_CollectionMethodChangesProfile(t *testing.T) {
	p := newTestPipeline(t)
	record := loadFixture(t, "recruiter_cluster.json")

	api, _ := p.Score(context.Background(), record)

	record.CollectionMethod = "feed"
	feed, err := p.Score(context.Background(), record)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if feed.Profile.RecruiterRulesApplicable {
		t.Error("linkedin feeds should not expose recruiter behaviour")
	}
	for _, a := range feed.Score.Activations {
		if a.Category == model.CategoryRecruiter {
			t.Errorf("recruiter rule %s fired on a feed record", a.RuleID)
		}
	}
	if feed.Score.Score <= api.Score.Score {
		t.Errorf("expected feed score above api score, got %.1f vs %.1f", feed.Score.Score, api.Score.Score)
	}
}

func TestPipeline_UnknownPlatform(t *testing.T) {
	p := newTestPipeline(t)
	record := loadFixture(t, "no_identity_remote.json")

	known, _ := p.Score(context.Background(), record)

	record.Platform = "craigslist"
	res, err := p.Score(context.Background(), record)
	if err != nil {
		t.Fatalf("unknown platform must not fail: %v", err)
	}
	if res.Profile != (model.CapabilityProfile{}) {
		t.Errorf("expected least-permissive profile, got %+v", res.Profile)
	}
	if res.Score.Score <= known.Score.Score {
		t.Errorf("expected gated absence rules to lift the score, got %.1f vs %.1f", res.Score.Score, known.Score.Score)
	}
}

func TestPipeline_InvalidRecord(t *testing.T) {
	p := newTestPipeline(t)
	_, err := p.Score(context.Background(), model.JobRecord{Title: "No platform"})
	if !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestPipeline_CancelledContext(t *testing.T) {
	p := newTestPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Score(ctx, loadFixture(t, "verified_company.json")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPipeline_CacheHit(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.MemoryTTL = time.Minute

	p, err := New(cfg, WithClock(fixedClock))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	record := loadFixture(t, "stale_posting.json")

	first, err := p.Score(context.Background(), record)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if first.Cached {
		t.Error("first call must not be cached")
	}

	second, err := p.Score(context.Background(), record)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !second.Cached {
		t.Fatal("second call should be served from cache")
	}

	a, b := first.Score, second.Score
	if a.Score != b.Score || a.Level != b.Level || a.Confidence != b.Confidence {
		t.Errorf("cached verdict differs: %+v vs %+v", a, b)
	}
	if !reflect.DeepEqual(a.RedFlags, b.RedFlags) || !reflect.DeepEqual(a.ActivatedRules, b.ActivatedRules) {
		t.Error("cached explanations differ")
	}
	if len(b.Activations) != len(a.Activations) {
		t.Errorf("cached activations lost: %d vs %d", len(b.Activations), len(a.Activations))
	}

	// A different collection method is a different key
	record.CollectionMethod = "feed"
	third, _ := p.Score(context.Background(), record)
	if third.Cached {
		t.Error("collection method must participate in the cache key")
	}
}

func TestPipeline_CacheHitRestampsComputedAt(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.MemoryTTL = time.Minute

	var mu sync.Mutex
	now := fixedNow
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	p, err := New(cfg, WithClock(clock))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	record := loadFixture(t, "verified_company.json")

	first, err := p.Score(context.Background(), record)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	mu.Lock()
	now = fixedNow.Add(time.Hour)
	mu.Unlock()

	second, err := p.Score(context.Background(), record)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !second.Cached {
		t.Fatal("second call should be served from cache")
	}
	if !first.Score.ComputedAt.Equal(fixedNow) {
		t.Errorf("first computed_at = %v, want %v", first.Score.ComputedAt, fixedNow)
	}
	if want := fixedNow.Add(time.Hour); !second.Score.ComputedAt.Equal(want) {
		t.Errorf("cached computed_at = %v, want %v", second.Score.ComputedAt, want)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Scoring.LikelyFakeThreshold = 80

	if _, err := New(cfg); err == nil {
		t.Error("expected calibration error")
	}

	cfg = model.DefaultConfig()
	cfg.LLM.Provider = "mystery"
	if _, err := New(cfg); err == nil {
		t.Error("expected unknown provider error")
	}
}

func TestPipeline_NarrativeNeverChangesScore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		case "/api/generate":
			_, _ = w.Write([]byte(`{"model":"llama3.1","response":"The posting is old (stale_posting).","done":true,"eval_count":12}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	summarizer, err := llm.NewSummarizer(llm.Config{
		Provider: "ollama", Model: "llama3.1", BaseURL: server.URL, Timeout: 5, StrictEvidence: true,
	})
	if err != nil {
		t.Fatalf("NewSummarizer: %v", err)
	}

	record := loadFixture(t, "stale_posting.json")
	plain, _ := newTestPipeline(t).Score(context.Background(), record)
	narrated, err := newTestPipeline(t, WithSummarizer(summarizer)).Score(context.Background(), record)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if narrated.Narrative == nil || !narrated.Narrative.Enabled {
		t.Fatalf("expected narrative, got %+v", narrated.Narrative)
	}
	if narrated.Narrative.Text != "The posting is old (stale_posting)." {
		t.Errorf("unexpected narrative %q", narrated.Narrative.Text)
	}
	if !reflect.DeepEqual(plain.Score, narrated.Score) {
		t.Error("narrative must not alter the score")
	}
}
