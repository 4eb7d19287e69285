package extract

import "testing"

func TestMatchers(t *testing.T) {
	tests := []struct {
		name  string
		match func(string) bool
		text  string
		want  bool
	}{
		{"salary dollar figure", MentionsSalary, "Pay is $120,000 per year", true},
		{"salary k suffix currency", MentionsSalary, "Up to 90k EUR", true},
		{"salary range words", MentionsSalary, "Competitive salary range offered", true},
		{"salary absent", MentionsSalary, "Great team and snacks", false},

		{"tech go", MentionsTechStack, "Services written in golang and postgres", true},
		{"tech c++", MentionsTechStack, "Strong C++ background", true},
		{"tech .net", MentionsTechStack, "Experience with .NET, Azure", true},
		{"tech absent", MentionsTechStack, "Coordinate warehouse operations and shift schedules", false},

		{"urgency", HasUrgency, "Urgent hiring! Apply now.", true},
		{"urgency immediate start", HasUrgency, "Immediate start available", true},
		{"urgency absent", HasUrgency, "We review applications weekly", false},

		{"off platform whatsapp", HasOffPlatformContact, "Message us on WhatsApp", true},
		{"off platform gmail", HasOffPlatformContact, "Send CV to hr.jobs@gmail.com", true},
		{"off platform corporate mail", HasOffPlatformContact, "Send CV to jobs@northwind.com", false},

		{"payment training fee", RequestsPayment, "A small training fee is required", true},
		{"payment equipment", RequestsPayment, "You will purchase your own equipment", true},
		{"payment absent", RequestsPayment, "We provide a laptop", false},

		{"agency recruiter", IsAgencyTitle, "Senior Technical Recruiter", true},
		{"agency talent acquisition", IsAgencyTitle, "Talent Acquisition Partner", true},
		{"agency hiring manager", IsAgencyTitle, "Engineering Manager", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.match(tt.text); got != tt.want {
				t.Errorf("match(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		location string
		remote   bool
		generic  bool
	}{
		{"Remote (Anywhere)", true, true},
		{"Remote", true, true},
		{"Work from home", true, true},
		{"100% Remote - Worldwide", true, true},
		{"Remote - Germany", true, false},
		{"Remote, US", true, false},
		{"Austin, TX", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			if got := IsRemote(tt.location); got != tt.remote {
				t.Errorf("IsRemote(%q) = %v, want %v", tt.location, got, tt.remote)
			}
			if got := IsGenericRemote(tt.location); got != tt.generic {
				t.Errorf("IsGenericRemote(%q) = %v, want %v", tt.location, got, tt.generic)
			}
		})
	}
}
