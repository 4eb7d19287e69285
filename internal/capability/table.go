package capability

import "github.com/ppiankov/jobtrust/internal/model"

var (
	full          = model.CapabilityProfile{PosterExpected: true, CompanyInfoExpected: true, RecruiterRulesApplicable: true}
	companyOnly   = model.CapabilityProfile{CompanyInfoExpected: true}
	posterCompany = model.CapabilityProfile{PosterExpected: true, CompanyInfoExpected: true}
)

// DefaultTable is the built-in decision table.
// Adding a platform is a matter of adding rows here; no rule changes.
func DefaultTable() []Row {
	return []Row{
		// Social boards that show who posted the job.
		{Platform: "linkedin", Method: AnyMethod, Profile: full},
		{Platform: "linkedin", Method: "feed", Profile: companyOnly, Note: "RSS/job feeds drop the poster block"},
		{Platform: "wellfound", Method: AnyMethod, Profile: full},
		{Platform: "wellfound", Method: "feed", Profile: companyOnly},
		{Platform: "xing", Method: AnyMethod, Profile: full},

		// Aggregators: company info is normal, posters are hidden.
		{Platform: "indeed", Method: AnyMethod, Profile: companyOnly},
		{Platform: "glassdoor", Method: AnyMethod, Profile: companyOnly},
		{Platform: "ziprecruiter", Method: AnyMethod, Profile: companyOnly},
		{Platform: "monster", Method: AnyMethod, Profile: companyOnly},
		{Platform: "hh", Method: AnyMethod, Profile: posterCompany, Note: "employer accounts, no individual recruiter history"},

		// Applicant tracking systems and career pages: the company is the poster.
		{Platform: "greenhouse", Method: AnyMethod, Profile: companyOnly},
		{Platform: "lever", Method: AnyMethod, Profile: companyOnly},
		{Platform: "workday", Method: AnyMethod, Profile: companyOnly},
		{Platform: "ashby", Method: AnyMethod, Profile: companyOnly},
		{Platform: "smartrecruiters", Method: AnyMethod, Profile: companyOnly},
		{Platform: "company_site", Method: AnyMethod, Profile: companyOnly},

		// Search APIs that return thin records.
		{Platform: "adzuna", Method: AnyMethod, Profile: LeastPermissive, Note: "search API returns title/company name/location only"},
		{Platform: "adzuna", Method: "scrape", Profile: companyOnly},

		// Manual entry by a user: nothing is guaranteed.
		{Platform: "manual", Method: AnyMethod, Profile: LeastPermissive},
	}
}
