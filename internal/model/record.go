package model

// JobRecord is a normalized job posting as produced by the collection pipeline.
// Optional values are pointers or nil sub-structs: nil means the collector never saw
// the field, which is not the same thing as false or zero.
type JobRecord struct {
	ID               string `json:"id,omitempty" yaml:"id,omitempty"`
	ExternalID       string `json:"external_id,omitempty" yaml:"external_id,omitempty"`
	Title            string `json:"title,omitempty" yaml:"title,omitempty"`
	Platform         string `json:"platform" yaml:"platform"`                                       // e.g. "linkedin", "indeed"
	CollectionMethod string `json:"collection_method,omitempty" yaml:"collection_method,omitempty"` // e.g. "api", "scrape", "extension"

	Location     string `json:"location,omitempty" yaml:"location,omitempty"`         // Free-form location as shown on the posting
	Jurisdiction string `json:"jurisdiction,omitempty" yaml:"jurisdiction,omitempty"` // ISO-ish region code, e.g. "US-NY", "DE"
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`   // Raw description, may contain HTML

	Salary  *SalaryInfo     `json:"salary,omitempty" yaml:"salary,omitempty"`
	Poster  *PosterInfo     `json:"poster,omitempty" yaml:"poster,omitempty"`
	Company *CompanyInfo    `json:"company,omitempty" yaml:"company,omitempty"`
	Signals PlatformSignals `json:"signals" yaml:"signals"`
	Derived DerivedSignals  `json:"derived" yaml:"derived"`
}

// SalaryInfo is structured pay data. A record with a non-nil Salary disclosed pay.
type SalaryInfo struct {
	Min      *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Currency string   `json:"currency,omitempty" yaml:"currency,omitempty"`
	Period   string   `json:"period,omitempty" yaml:"period,omitempty"` // year, month, hour
}

// Disclosed reports whether at least one bound is present.
func (s *SalaryInfo) Disclosed() bool {
	return s != nil && (s.Min != nil || s.Max != nil)
}

// PosterInfo describes the account that published the posting.
type PosterInfo struct {
	Name               string `json:"name,omitempty" yaml:"name,omitempty"`
	Title              string `json:"title,omitempty" yaml:"title,omitempty"`
	AccountAgeMonths   *int   `json:"account_age_months,omitempty" yaml:"account_age_months,omitempty"`
	RecentPostingCount *int   `json:"recent_posting_count,omitempty" yaml:"recent_posting_count,omitempty"` // Postings in the last 30 days
}

// CompanyInfo describes the hiring company as seen by the collector.
type CompanyInfo struct {
	Name              string   `json:"name,omitempty" yaml:"name,omitempty"`
	Domain            string   `json:"domain,omitempty" yaml:"domain,omitempty"`
	DomainMatchesName *bool    `json:"domain_matches_name,omitempty" yaml:"domain_matches_name,omitempty"`
	EmployeeCount     *int     `json:"employee_count,omitempty" yaml:"employee_count,omitempty"`
	Rating            *float64 `json:"rating,omitempty" yaml:"rating,omitempty"` // External review rating, 0-5
	RecentLayoffs     *bool    `json:"recent_layoffs,omitempty" yaml:"recent_layoffs,omitempty"`
}

// Complete reports whether the company block carries enough data to corroborate
// the posting on its own.
func (c *CompanyInfo) Complete() bool {
	return c != nil && c.Domain != "" && c.EmployeeCount != nil && c.Rating != nil
}

// PlatformSignals are activity numbers exposed by the job board.
type PlatformSignals struct {
	DaysSincePosted *int  `json:"days_since_posted,omitempty" yaml:"days_since_posted,omitempty"`
	RepostCount     *int  `json:"repost_count,omitempty" yaml:"repost_count,omitempty"`
	ApplicantCount  *int  `json:"applicant_count,omitempty" yaml:"applicant_count,omitempty"`
	ViewCount       *int  `json:"view_count,omitempty" yaml:"view_count,omitempty"`
	ActivelyHiring  *bool `json:"actively_hiring,omitempty" yaml:"actively_hiring,omitempty"`
	SimplifiedApply *bool `json:"simplified_apply,omitempty" yaml:"simplified_apply,omitempty"`
}

// DerivedSignals are booleans precomputed by the collector.
type DerivedSignals struct {
	DomainMismatch         *bool `json:"domain_mismatch,omitempty" yaml:"domain_mismatch,omitempty"`
	PosterNoCompany        *bool `json:"poster_no_company,omitempty" yaml:"poster_no_company,omitempty"`
	PosterLocationMismatch *bool `json:"poster_location_mismatch,omitempty" yaml:"poster_location_mismatch,omitempty"`
	PosterCompanyMismatch  *bool `json:"poster_company_mismatch,omitempty" yaml:"poster_company_mismatch,omitempty"`
	NoPosterIdentity       *bool `json:"no_poster_identity,omitempty" yaml:"no_poster_identity,omitempty"`
}

// TrackedFieldCount is the number of optional fields counted by Coverage.
const TrackedFieldCount = 25

// Coverage returns the fraction of tracked optional fields present in the record.
func (r JobRecord) Coverage() float64 {
	present := 0
	count := func(ok bool) {
		if ok {
			present++
		}
	}

	if p := r.Poster; p != nil {
		count(p.Name != "")
		count(p.Title != "")
		count(p.AccountAgeMonths != nil)
		count(p.RecentPostingCount != nil)
	}

	if c := r.Company; c != nil {
		count(c.Name != "")
		count(c.Domain != "")
		count(c.DomainMatchesName != nil)
		count(c.EmployeeCount != nil)
		count(c.Rating != nil)
		count(c.RecentLayoffs != nil)
	}

	s := r.Signals
	count(s.DaysSincePosted != nil)
	count(s.RepostCount != nil)
	count(s.ApplicantCount != nil)
	count(s.ViewCount != nil)
	count(s.ActivelyHiring != nil)
	count(s.SimplifiedApply != nil)

	count(r.Description != "")
	count(r.Location != "")
	count(r.Jurisdiction != "")
	count(r.Salary.Disclosed())

	d := r.Derived
	count(d.DomainMismatch != nil)
	count(d.PosterNoCompany != nil)
	count(d.PosterLocationMismatch != nil)
	count(d.PosterCompanyMismatch != nil)
	count(d.NoPosterIdentity != nil)

	return float64(present) / float64(TrackedFieldCount)
}

// Bool returns a pointer to b. Used by fixtures and collectors.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to i.
func Int(i int) *int { return &i }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// IsTrue reports whether an optional bool is present and true.
func IsTrue(b *bool) bool { return b != nil && *b }

// IsFalse reports whether an optional bool is present and false.
func IsFalse(b *bool) bool { return b != nil && !*b }
