package rules

import (
	"strings"
	"testing"

	"github.com/ppiankov/jobtrust/internal/model"
)

var fullProfile = model.CapabilityProfile{PosterExpected: true, CompanyInfoExpected: true, RecruiterRulesApplicable: true}

func run(t *testing.T, id string, in Input) Outcome {
	t.Helper()
	r, err := Default().Rule(id)
	if err != nil {
		t.Fatalf("lookup %s: %v", id, err)
	}
	return r.Trigger(in)
}

func TestCatalog_EmptyRecordIsInapplicableForPresenceRules(t *testing.T) {
	in := Input{Profile: fullProfile}

	for _, r := range DefaultRules() {
		if r.AbsenceTrigger {
			continue
		}
		if got := r.Trigger(in); got != Inapplicable {
			t.Errorf("%s: expected inapplicable on an empty record, got %s", r.ID, got)
		}
	}
}

func TestCatalog_NothingFiresOnLeastPermissiveEmptyRecord(t *testing.T) {
	in := Input{Profile: model.CapabilityProfile{}}

	for _, r := range DefaultRules() {
		if got := r.Trigger(in); got == Matched {
			t.Errorf("%s: fired on an empty record for an unknown platform", r.ID)
		}
	}
}

func TestCatalog_RecruiterRulesGatedByProfile(t *testing.T) {
	rec := model.JobRecord{
		Poster: &model.PosterInfo{Name: "A", Title: "Talent Acquisition Partner", AccountAgeMonths: model.Int(1), RecentPostingCount: model.Int(50)},
		Derived: model.DerivedSignals{
			PosterNoCompany:        model.Bool(true),
			PosterLocationMismatch: model.Bool(true),
			PosterCompanyMismatch:  model.Bool(true),
		},
	}

	gated := Input{Record: rec, Profile: model.CapabilityProfile{PosterExpected: true, CompanyInfoExpected: true}}
	open := Input{Record: rec, Profile: fullProfile}

	for _, r := range DefaultRules() {
		if r.Category != model.CategoryRecruiter {
			continue
		}
		if got := r.Trigger(gated); got != Inapplicable {
			t.Errorf("%s: expected inapplicable without recruiter capability, got %s", r.ID, got)
		}
		if got := r.Trigger(open); got != Matched {
			t.Errorf("%s: expected match with recruiter capability, got %s", r.ID, got)
		}
	}
}

func TestCatalog_NumericThresholds(t *testing.T) {
	tests := []struct {
		name string
		id   string
		rec  model.JobRecord
		want Outcome
	}{
		{"stale at 31 days", StalePosting, model.JobRecord{Signals: model.PlatformSignals{DaysSincePosted: model.Int(31)}}, Matched},
		{"not stale at 30 days", StalePosting, model.JobRecord{Signals: model.PlatformSignals{DaysSincePosted: model.Int(30)}}, NotMatched},
		{"zero days is a value", StalePosting, model.JobRecord{Signals: model.PlatformSignals{DaysSincePosted: model.Int(0)}}, NotMatched},
		{"reposted 3 times", FrequentReposting, model.JobRecord{Signals: model.PlatformSignals{RepostCount: model.Int(3)}}, Matched},
		{"reposted twice", FrequentReposting, model.JobRecord{Signals: model.PlatformSignals{RepostCount: model.Int(2)}}, NotMatched},
		{"new account", PosterNewAccount, model.JobRecord{Poster: &model.PosterInfo{AccountAgeMonths: model.Int(5)}}, Matched},
		{"six month account", PosterNewAccount, model.JobRecord{Poster: &model.PosterInfo{AccountAgeMonths: model.Int(6)}}, NotMatched},
		{"poster without age", PosterNewAccount, model.JobRecord{Poster: &model.PosterInfo{Name: "A"}}, Inapplicable},
		{"low rating", LowCompanyRating, model.JobRecord{Company: &model.CompanyInfo{Rating: model.Float(2.9)}}, Matched},
		{"company without rating", LowCompanyRating, model.JobRecord{Company: &model.CompanyInfo{Name: "X"}}, Inapplicable},
		{"strong rating", StrongCompanyRating, model.JobRecord{Company: &model.CompanyInfo{Rating: model.Float(4.0)}}, Matched},
		{"established", EstablishedCompany, model.JobRecord{Company: &model.CompanyInfo{EmployeeCount: model.Int(200)}}, Matched},
		{"not actively hiring", NotActivelyRecruiting, model.JobRecord{Signals: model.PlatformSignals{ActivelyHiring: model.Bool(false)}}, Matched},
		{"actively hiring", NotActivelyRecruiting, model.JobRecord{Signals: model.PlatformSignals{ActivelyHiring: model.Bool(true)}}, NotMatched},
		{"applicant pool needs both fields", ActiveApplicantPool, model.JobRecord{Signals: model.PlatformSignals{ApplicantCount: model.Int(40)}}, Inapplicable},
		{"active pool", ActiveApplicantPool, model.JobRecord{Signals: model.PlatformSignals{ApplicantCount: model.Int(40), DaysSincePosted: model.Int(3)}}, Matched},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := run(t, tt.id, Input{Record: tt.rec, Profile: fullProfile})
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCatalog_SalaryNotDisclosed(t *testing.T) {
	companyOnly := model.CapabilityProfile{CompanyInfoExpected: true}
	thin := model.CapabilityProfile{}

	tests := []struct {
		name string
		in   Input
		want Outcome
	}{
		{"expected and missing", Input{Profile: companyOnly, Text: "We build things."}, Matched},
		{"structured salary", Input{Profile: companyOnly, Record: model.JobRecord{Salary: &model.SalaryInfo{Min: model.Float(1)}}}, NotMatched},
		{"salary in text", Input{Profile: companyOnly, Text: "Pay is $120,000 per year."}, NotMatched},
		{"thin platform", Input{Profile: thin, Text: "We build things."}, Inapplicable},
		{"thin platform in pay-transparency region", Input{Profile: thin, PayTransparent: true}, Matched},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(t, SalaryNotDisclosed, tt.in); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCatalog_AbsenceTriggers(t *testing.T) {
	in := Input{Profile: fullProfile}

	if got := run(t, NoPosterIdentity, in); got != Matched {
		t.Errorf("no_poster_identity: expected match with no poster, got %s", got)
	}
	if got := run(t, CompanyInfoMissing, in); got != Matched {
		t.Errorf("company_info_missing: expected match with no company, got %s", got)
	}

	// Absence triggers respect the profile
	if got := run(t, NoPosterIdentity, Input{}); got != Inapplicable {
		t.Errorf("no_poster_identity: expected inapplicable when poster not expected, got %s", got)
	}

	in.Record.Poster = &model.PosterInfo{Name: "Dana"}
	if got := run(t, NoPosterIdentity, in); got != NotMatched {
		t.Errorf("no_poster_identity: expected no match with a named poster, got %s", got)
	}

	in.Record.Derived.NoPosterIdentity = model.Bool(true)
	if got := run(t, NoPosterIdentity, in); got != Matched {
		t.Errorf("no_poster_identity: expected collector flag to win, got %s", got)
	}
}

func TestCatalog_TextRules(t *testing.T) {
	long := strings.Repeat("We maintain billing services written in Go and PostgreSQL. ", 5)

	tests := []struct {
		name string
		id   string
		text string
		want Outcome
	}{
		{"no description", VagueDescription, "", Inapplicable},
		{"short description", VagueDescription, "Great job, apply.", Matched},
		{"long description", VagueDescription, long, NotMatched},
		{"tech present", NoTechStackMentioned, long, NotMatched},
		{"tech absent", NoTechStackMentioned, "Friendly team, flexible hours.", Matched},
		{"urgency", UrgencyPressure, "Urgent hiring, apply now!", Matched},
		{"no urgency", UrgencyPressure, long, NotMatched},
		{"whatsapp", OffPlatformContact, "Message us on WhatsApp to continue.", Matched},
		{"personal mail", OffPlatformContact, "Send your CV to jobs.hr2024@gmail.com", Matched},
		{"fee", UpfrontPaymentRequest, "A small registration fee covers onboarding.", Matched},
		{"no fee", UpfrontPaymentRequest, long, NotMatched},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(t, tt.id, Input{Text: tt.text, Profile: fullProfile}); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCatalog_GenericRemote(t *testing.T) {
	tests := []struct {
		location string
		want     Outcome
	}{
		{"", Inapplicable},
		{"Remote", Matched},
		{"Remote (Anywhere)", Matched},
		{"Worldwide", Matched},
		{"Remote - Germany", NotMatched},
		{"Austin, TX", NotMatched},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			in := Input{Record: model.JobRecord{Location: tt.location}}
			if got := run(t, GenericRemoteLocation, in); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
