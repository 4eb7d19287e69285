package extract

import (
	"regexp"
	"strings"
)

// Pattern matchers over plain-text descriptions. All matching is case-insensitive and
// operates on the output of PlainText.

var (
	salaryRegex = regexp.MustCompile(`(?i)(` +
		`[$€£]\s?\d[\d,.]*\s?[kK]?` + // $120,000  €60k  £45.000
		`|\d[\d,.]*\s?[kK]?\s?(usd|eur|gbp|cad|chf)\b` + // 90k EUR
		`|\b(salary|compensation|pay)\s+(range|band|of)\b` +
		`|\bper\s+(hour|annum|year|month)\b` +
		`|\b(hourly|annual)\s+rate\b)`)

	techRegex = regexp.MustCompile(`(?i)(^|[\s,;(/])(c\+\+|c#|\.net)([\s,;)/.]|$)|\b(` +
		`golang|python|java|javascript|typescript|react|angular|vue|node\.?js|ruby|rails|php|scala|kotlin|swift|rust|` +
		`sql|postgres(ql)?|mysql|mongodb|redis|kafka|spark|hadoop|airflow|dbt|snowflake|` +
		`kubernetes|k8s|docker|terraform|ansible|aws|gcp|azure|linux|git|graphql|grpc|` +
		`excel|salesforce|sap|tableau|power\s?bi|jira|figma|hubspot|quickbooks|autocad` +
		`)\b`)

	urgencyRegex = regexp.MustCompile(`(?i)\b(` +
		`urgent(ly)?|immediate(ly)?\s+start|start\s+immediately|hiring\s+immediately|apply\s+now|` +
		`limited\s+(spots|positions|slots)|act\s+fast|don'?t\s+miss\s+out` +
		`)\b`)

	offPlatformRegex = regexp.MustCompile(`(?i)(` +
		`\b(whatsapp|telegram|signal\s+app|wechat|google\s+hangouts?|kik)\b` +
		`|\btext\s+(me|us)\s+(at|on)\b` +
		`|[a-z0-9._%+-]+@(gmail|yahoo|hotmail|outlook|aol|proton(mail)?)\.[a-z]{2,}` +
		`)`)

	paymentRegex = regexp.MustCompile(`(?i)\b(` +
		`(registration|training|onboarding|application|processing)\s+fee|` +
		`starter\s+kit|refundable\s+deposit|security\s+deposit|` +
		`pay\s+for\s+(your\s+own\s+)?(training|equipment|background\s+check)|` +
		`purchase\s+(your\s+own\s+)?equipment|send\s+(a\s+)?(check|cheque|gift\s+card)` +
		`)\b`)

	agencyTitleRegex = regexp.MustCompile(`(?i)\b(` +
		`recruit(er|ing|ment)?|talent\s+acquisition|staffing|headhunter|sourcer|placement` +
		`)\b`)
)

// MentionsSalary reports whether the text names pay figures or a pay range.
func MentionsSalary(text string) bool {
	return salaryRegex.MatchString(text)
}

// MentionsTechStack reports whether the text names at least one tool or technology.
func MentionsTechStack(text string) bool {
	return techRegex.MatchString(text)
}

// HasUrgency reports whether the text applies time pressure on the applicant.
func HasUrgency(text string) bool {
	return urgencyRegex.MatchString(text)
}

// HasOffPlatformContact reports whether the text asks applicants to move to chat apps
// or personal mailboxes.
func HasOffPlatformContact(text string) bool {
	return offPlatformRegex.MatchString(text)
}

// RequestsPayment reports whether the text asks the applicant to pay for something.
func RequestsPayment(text string) bool {
	return paymentRegex.MatchString(text)
}

// IsAgencyTitle reports whether a poster's job title reads like a third-party recruiter.
func IsAgencyTitle(title string) bool {
	return agencyTitleRegex.MatchString(title)
}

var remoteTokens = []string{
	"work from home", "work from anywhere", "remote", "anywhere", "worldwide", "global", "wfh", "100%", "fully",
}

// IsRemote reports whether a location string describes a remote role.
func IsRemote(location string) bool {
	lower := strings.ToLower(location)
	for _, token := range []string{"remote", "work from home", "wfh", "anywhere", "worldwide"} {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// IsGenericRemote reports whether a location is nothing but a remote claim, with no country,
// region or city attached. "Remote (Anywhere)" is generic, "Remote - Germany" is not.
func IsGenericRemote(location string) bool {
	if !IsRemote(location) {
		return false
	}

	rest := strings.ToLower(location)
	for _, token := range remoteTokens {
		rest = strings.ReplaceAll(rest, token, " ")
	}
	rest = strings.Map(func(r rune) rune {
		switch r {
		case '(', ')', '[', ']', '-', '/', ',', '.', '|', ':', '•', '–':
			return ' '
		}
		return r
	}, rest)

	return strings.TrimSpace(rest) == ""
}
