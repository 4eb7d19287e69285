package modulate

import (
	"fmt"

	"github.com/ppiankov/jobtrust/internal/extract"
	"github.com/ppiankov/jobtrust/internal/model"
	"github.com/ppiankov/jobtrust/internal/rules"
)

// Context is everything an adjustment function may look at.
type Context struct {
	Record         model.JobRecord
	Profile        model.CapabilityProfile
	Matched        map[string]bool // Ids of every rule that fired for this record
	PayTransparent bool            // Record's jurisdiction mandates salary disclosure
}

// Adjustment is the result of one adjustment function.
// Multiplier 1 with an empty Reason means the weight is left alone.
type Adjustment struct {
	Multiplier float64
	Reason     string
}

// AdjustFunc computes the context multiplier for one rule. It must be pure and total:
// any absent field it would consult counts as "condition not satisfied".
type AdjustFunc func(ctx Context) Adjustment

// keep is the non-reducing result
var keep = Adjustment{Multiplier: 1}

func scale(m float64, format string, args ...any) Adjustment {
	return Adjustment{Multiplier: m, Reason: fmt.Sprintf(format, args...)}
}

// DefaultAdjustments returns the built-in strategy table keyed by rule id.
// Rules without an entry keep their base weight.
func DefaultAdjustments() map[string]AdjustFunc {
	return map[string]AdjustFunc{
		rules.SalaryNotDisclosed:         salaryByJurisdiction,
		rules.PosterNoCompany:            posterNoCompany,
		rules.PosterLocationMismatch:     posterLocationMismatch,
		rules.NotActivelyRecruiting:      notActivelyRecruiting,
		rules.FrequentReposting:          frequentReposting,
		rules.PosterHighPostingFrequency: highPostingFrequency,
		rules.RecentLayoffs:              recentLayoffs,
		rules.LowCompanyRating:           lowCompanyRating,
		rules.GenericRemoteLocation:      genericRemoteLocation,
	}
}

// salaryByJurisdiction keeps full weight where disclosure is mandatory, half elsewhere,
// and a quarter elsewhere when the company domain also checks out.
func salaryByJurisdiction(ctx Context) Adjustment {
	if ctx.PayTransparent {
		return scale(1, "jurisdiction %s mandates pay disclosure: full weight", ctx.Record.Jurisdiction)
	}
	if c := ctx.Record.Company; c != nil && model.IsTrue(c.DomainMatchesName) {
		return scale(0.25, "no disclosure mandate and company domain verified: x0.25")
	}
	return scale(0.5, "no disclosure mandate: x0.50")
}

// posterNoCompany halves when the company block alone corroborates the employer
func posterNoCompany(ctx Context) Adjustment {
	if ctx.Record.Company.Complete() {
		return scale(0.5, "company info complete: x0.50")
	}
	return keep
}

// posterLocationMismatch is meaningless for remote roles
func posterLocationMismatch(ctx Context) Adjustment {
	if ctx.Record.Location != "" && extract.IsRemote(ctx.Record.Location) {
		return scale(0, "role is remote: poster location irrelevant")
	}
	return keep
}

// notActivelyRecruiting is softened by real applicants
func notActivelyRecruiting(ctx Context) Adjustment {
	if n := ctx.Record.Signals.ApplicantCount; n != nil && *n > 0 {
		return scale(0.5, "%d applicants recorded: x0.50", *n)
	}
	return keep
}

// frequentReposting overlaps with stale_posting
func frequentReposting(ctx Context) Adjustment {
	if ctx.Matched[rules.StalePosting] {
		return scale(0.5, "overlaps with %s: x0.50", rules.StalePosting)
	}
	return keep
}

// highPostingFrequency overlaps with frequent_reposting
func highPostingFrequency(ctx Context) Adjustment {
	if ctx.Matched[rules.FrequentReposting] {
		return scale(0.5, "overlaps with %s: x0.50", rules.FrequentReposting)
	}
	return keep
}

// recentLayoffs matter less when the company is demonstrably hiring
func recentLayoffs(ctx Context) Adjustment {
	if model.IsTrue(ctx.Record.Signals.ActivelyHiring) {
		return scale(0.5, "company actively hiring: x0.50")
	}
	return keep
}

// lowCompanyRating is noise for very small companies with few reviewers
func lowCompanyRating(ctx Context) Adjustment {
	if c := ctx.Record.Company; c != nil && c.EmployeeCount != nil && *c.EmployeeCount < SmallCompanyEmployees {
		return scale(0, "fewer than %d employees: rating not representative", SmallCompanyEmployees)
	}
	return keep
}

// genericRemoteLocation halves when a jurisdiction pins the role down anyway
func genericRemoteLocation(ctx Context) Adjustment {
	if ctx.Record.Jurisdiction != "" {
		return scale(0.5, "jurisdiction %s given: x0.50", ctx.Record.Jurisdiction)
	}
	return keep
}
