package rules

import (
	"unicode/utf8"

	"github.com/ppiankov/jobtrust/internal/extract"
	"github.com/ppiankov/jobtrust/internal/model"
)

// Rule ids. They are stable: stored scores reference them.
const (
	PosterNewAccount           = "poster_new_account"
	PosterHighPostingFrequency = "poster_high_posting_frequency"
	PosterNoCompany            = "poster_no_company"
	PosterLocationMismatch     = "poster_location_mismatch"
	PosterCompanyMismatch      = "poster_company_mismatch"
	PosterAgencyTitle          = "poster_agency_title"
	NoPosterIdentity           = "no_poster_identity"
	CompanyInfoMissing         = "company_info_missing"
	SalaryNotDisclosed         = "salary_not_disclosed"
	NoTechStackMentioned       = "no_tech_stack_mentioned"
	GenericRemoteLocation      = "generic_remote_location"
	VagueDescription           = "vague_description"
	UrgencyPressure            = "urgency_pressure"
	OffPlatformContact         = "off_platform_contact"
	UpfrontPaymentRequest      = "upfront_payment_request"
	StalePosting               = "stale_posting"
	FrequentReposting          = "frequent_reposting"
	NotActivelyRecruiting      = "not_actively_recruiting"
	DomainMismatch             = "domain_mismatch"
	LowCompanyRating           = "low_company_rating"
	RecentLayoffs              = "recent_layoffs"
	VerifiedCompanyDomain      = "verified_company_domain"
	SalaryDisclosed            = "salary_disclosed"
	StrongCompanyRating        = "strong_company_rating"
	EstablishedCompany         = "established_company"
	ActiveApplicantPool        = "active_applicant_pool"
)

// Fixed cutoffs used by the built-in triggers.
const (
	NewAccountMonths     = 6
	HighPostingFrequency = 20
	StaleAfterDays       = 30
	FrequentRepostCount  = 3
	LowRatingBelow       = 3.0
	StrongRatingAtLeast  = 4.0
	EstablishedEmployees = 200
	ActivePoolApplicants = 10
	MinDescriptionRunes  = 200
)

// DefaultRules returns the built-in rule definitions in evaluation order.
func DefaultRules() []Rule {
	red, pos := model.PolarityRedFlag, model.PolarityPositive

	return []Rule{
		// Recruiter behaviour. Only meaningful where the platform exposes the poster.
		{
			ID: PosterNewAccount, Category: model.CategoryRecruiter, BaseWeight: 0.10, Polarity: red,
			Description: "Poster account is less than 6 months old",
			Trigger: recruiter(func(in Input) Outcome {
				if in.Record.Poster == nil {
					return Inapplicable
				}
				return intBelow(in.Record.Poster.AccountAgeMonths, NewAccountMonths)
			}),
		},
		{
			ID: PosterHighPostingFrequency, Category: model.CategoryRecruiter, BaseWeight: 0.08, Polarity: red,
			Description: "Poster published 20 or more postings in the last 30 days",
			Trigger: recruiter(func(in Input) Outcome {
				if in.Record.Poster == nil {
					return Inapplicable
				}
				return intAtLeast(in.Record.Poster.RecentPostingCount, HighPostingFrequency)
			}),
		},
		{
			ID: PosterNoCompany, Category: model.CategoryRecruiter, BaseWeight: 0.08, Polarity: red,
			Description: "Poster's profile lists no employer",
			Trigger: recruiter(func(in Input) Outcome {
				return isTrue(in.Record.Derived.PosterNoCompany)
			}),
		},
		{
			ID: PosterLocationMismatch, Category: model.CategoryRecruiter, BaseWeight: 0.06, Polarity: red,
			Description: "Poster is located far from the advertised job location",
			Trigger: recruiter(func(in Input) Outcome {
				return isTrue(in.Record.Derived.PosterLocationMismatch)
			}),
		},
		{
			ID: PosterCompanyMismatch, Category: model.CategoryRecruiter, BaseWeight: 0.10, Polarity: red,
			Description: "Poster works for a different company than the one hiring",
			Trigger: recruiter(func(in Input) Outcome {
				return isTrue(in.Record.Derived.PosterCompanyMismatch)
			}),
		},
		{
			ID: PosterAgencyTitle, Category: model.CategoryRecruiter, BaseWeight: 0.06, Polarity: red,
			Description: "Poster's title reads like a third-party recruiter or staffing agent",
			Trigger: recruiter(func(in Input) Outcome {
				if in.Record.Poster == nil || in.Record.Poster.Title == "" {
					return Inapplicable
				}
				return when(extract.IsAgencyTitle(in.Record.Poster.Title))
			}),
		},

		// Disclosure gaps. Absence triggers, gated on what the platform normally supplies.
		{
			ID: NoPosterIdentity, Category: model.CategoryDisclosure, BaseWeight: 0.18, Polarity: red,
			AbsenceTrigger: true,
			Description:    "No identifiable poster behind the posting",
			Trigger: func(in Input) Outcome {
				if !in.Profile.PosterExpected {
					return Inapplicable
				}
				if model.IsTrue(in.Record.Derived.NoPosterIdentity) {
					return Matched
				}
				p := in.Record.Poster
				return when(p == nil || (p.Name == "" && p.Title == ""))
			},
		},
		{
			ID: CompanyInfoMissing, Category: model.CategoryDisclosure, BaseWeight: 0.20, Polarity: red,
			AbsenceTrigger: true,
			Description:    "Posting carries no company information",
			Trigger: func(in Input) Outcome {
				if !in.Profile.CompanyInfoExpected {
					return Inapplicable
				}
				c := in.Record.Company
				return when(c == nil || (c.Name == "" && c.Domain == ""))
			},
		},
		{
			ID: SalaryNotDisclosed, Category: model.CategoryDisclosure, BaseWeight: 0.20, Polarity: red,
			AbsenceTrigger: true,
			Description:    "Salary is not disclosed",
			Trigger: func(in Input) Outcome {
				if !in.Profile.CompanyInfoExpected && !in.PayTransparent {
					return Inapplicable
				}
				if in.Record.Salary.Disclosed() {
					return NotMatched
				}
				return when(!extract.MentionsSalary(in.Text))
			},
		},
		{
			ID: NoTechStackMentioned, Category: model.CategoryDisclosure, BaseWeight: 0.06, Polarity: red,
			AbsenceTrigger: true,
			Description:    "Description names no tools or technologies",
			Trigger: func(in Input) Outcome {
				if in.Text == "" {
					return Inapplicable
				}
				return when(!extract.MentionsTechStack(in.Text))
			},
		},

		// Description content.
		{
			ID: GenericRemoteLocation, Category: model.CategoryContent, BaseWeight: 0.14, Polarity: red,
			Description: "Location is a generic remote claim with no country or region",
			Trigger: func(in Input) Outcome {
				if in.Record.Location == "" {
					return Inapplicable
				}
				return when(extract.IsGenericRemote(in.Record.Location))
			},
		},
		{
			ID: VagueDescription, Category: model.CategoryContent, BaseWeight: 0.12, Polarity: red,
			Description: "Description is too short to describe a real role",
			Trigger: textRule(func(text string) bool {
				return utf8.RuneCountInString(text) < MinDescriptionRunes
			}),
		},
		{
			ID: UrgencyPressure, Category: model.CategoryContent, BaseWeight: 0.08, Polarity: red,
			Description: "Description pressures applicants to act immediately",
			Trigger:     textRule(extract.HasUrgency),
		},
		{
			ID: OffPlatformContact, Category: model.CategoryContent, BaseWeight: 0.45, Polarity: red,
			Description: "Description asks applicants to continue on a chat app or personal mailbox",
			Trigger:     textRule(extract.HasOffPlatformContact),
		},
		{
			ID: UpfrontPaymentRequest, Category: model.CategoryContent, BaseWeight: 0.60, Polarity: red,
			Description: "Description asks applicants to pay fees, deposits or for equipment",
			Trigger:     textRule(extract.RequestsPayment),
		},

		// Staleness.
		{
			ID: StalePosting, Category: model.CategoryStaleness, BaseWeight: 0.50, Polarity: red,
			Description: "Posting is more than 30 days old",
			Trigger: func(in Input) Outcome {
				return intAbove(in.Record.Signals.DaysSincePosted, StaleAfterDays)
			},
		},
		{
			ID: FrequentReposting, Category: model.CategoryStaleness, BaseWeight: 0.15, Polarity: red,
			Description: "Posting has been reposted 3 or more times",
			Trigger: func(in Input) Outcome {
				return intAtLeast(in.Record.Signals.RepostCount, FrequentRepostCount)
			},
		},
		{
			ID: NotActivelyRecruiting, Category: model.CategoryStaleness, BaseWeight: 0.12, Polarity: red,
			Description: "Platform reports the company is not actively recruiting",
			Trigger: func(in Input) Outcome {
				return isFalse(in.Record.Signals.ActivelyHiring)
			},
		},

		// External reputation.
		{
			ID: DomainMismatch, Category: model.CategoryReputation, BaseWeight: 0.25, Polarity: red,
			Description: "Application or contact domain does not belong to the hiring company",
			Trigger: func(in Input) Outcome {
				return isTrue(in.Record.Derived.DomainMismatch)
			},
		},
		{
			ID: LowCompanyRating, Category: model.CategoryReputation, BaseWeight: 0.15, Polarity: red,
			Description: "Company has an external rating below 3.0",
			Trigger: company(func(c *model.CompanyInfo) Outcome {
				if c.Rating == nil {
					return Inapplicable
				}
				return when(*c.Rating < LowRatingBelow)
			}),
		},
		{
			ID: RecentLayoffs, Category: model.CategoryReputation, BaseWeight: 0.08, Polarity: red,
			Description: "Company had recent layoffs",
			Trigger: company(func(c *model.CompanyInfo) Outcome {
				return isTrue(c.RecentLayoffs)
			}),
		},

		// Positive signals.
		{
			ID: VerifiedCompanyDomain, Category: model.CategoryReputation, BaseWeight: 0.30, Polarity: pos,
			Description: "Company domain matches the company name",
			Trigger: company(func(c *model.CompanyInfo) Outcome {
				return isTrue(c.DomainMatchesName)
			}),
		},
		{
			ID: SalaryDisclosed, Category: model.CategoryDisclosure, BaseWeight: 0.25, Polarity: pos,
			Description: "Salary range is disclosed",
			Trigger: func(in Input) Outcome {
				if in.Record.Salary == nil {
					return Inapplicable
				}
				return when(in.Record.Salary.Disclosed())
			},
		},
		{
			ID: StrongCompanyRating, Category: model.CategoryReputation, BaseWeight: 0.20, Polarity: pos,
			Description: "Company has an external rating of 4.0 or more",
			Trigger: company(func(c *model.CompanyInfo) Outcome {
				if c.Rating == nil {
					return Inapplicable
				}
				return when(*c.Rating >= StrongRatingAtLeast)
			}),
		},
		{
			ID: EstablishedCompany, Category: model.CategoryReputation, BaseWeight: 0.15, Polarity: pos,
			Description: "Company has 200 or more employees",
			Trigger: company(func(c *model.CompanyInfo) Outcome {
				return intAtLeast(c.EmployeeCount, EstablishedEmployees)
			}),
		},
		{
			ID: ActiveApplicantPool, Category: model.CategoryStaleness, BaseWeight: 0.10, Polarity: pos,
			Description: "Recent posting with an active applicant pool",
			Trigger: func(in Input) Outcome {
				s := in.Record.Signals
				if s.ApplicantCount == nil || s.DaysSincePosted == nil {
					return Inapplicable
				}
				return when(*s.ApplicantCount >= ActivePoolApplicants && *s.DaysSincePosted <= StaleAfterDays)
			},
		},
	}
}

// recruiter gates a trigger on the platform exposing recruiter behaviour.
func recruiter(check Trigger) Trigger {
	return func(in Input) Outcome {
		if !in.Profile.RecruiterRulesApplicable {
			return Inapplicable
		}
		return check(in)
	}
}

// company runs check only when the record carries a company block.
func company(check func(c *model.CompanyInfo) Outcome) Trigger {
	return func(in Input) Outcome {
		if in.Record.Company == nil {
			return Inapplicable
		}
		return check(in.Record.Company)
	}
}

// textRule runs a text predicate only when the record has a description.
func textRule(pred func(text string) bool) Trigger {
	return func(in Input) Outcome {
		if in.Text == "" {
			return Inapplicable
		}
		return when(pred(in.Text))
	}
}
