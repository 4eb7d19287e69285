// Package capability maps a (platform, collection method) pair to the data the engine
// can expect from it. Rules consult the resolved profile, never the platform string.
package capability

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/jobtrust/internal/model"
)

// AnyMethod is the collection-method wildcard of a platform's default row.
const AnyMethod = "*"

// Row is one line of the decision table.
type Row struct {
	Platform string                  `json:"platform" yaml:"platform"`
	Method   string                  `json:"method" yaml:"method"`
	Profile  model.CapabilityProfile `json:"profile" yaml:"profile"`
	Note     string                  `json:"note,omitempty" yaml:"note,omitempty"`
}

type key struct {
	platform string
	method   string
}

// Resolver is an immutable decision table
type Resolver struct {
	rows  []Row
	table map[key]model.CapabilityProfile
}

// LeastPermissive is the profile used for platforms the table does not know:
// nothing is expected and recruiter rules do not apply, so unknown boards are never penalized
// for data they cannot supply.
var LeastPermissive = model.CapabilityProfile{}

// NewResolver builds a resolver from table rows. Duplicate (platform, method) rows are rejected.
func NewResolver(rows []Row) (*Resolver, error) {
	table := make(map[key]model.CapabilityProfile, len(rows))
	kept := make([]Row, 0, len(rows))

	for _, row := range rows {
		k := key{platform: normalize(row.Platform), method: normalizeMethod(row.Method)}
		if k.platform == "" {
			return nil, fmt.Errorf("capability row with empty platform (method %q)", row.Method)
		}
		if _, dup := table[k]; dup {
			return nil, fmt.Errorf("duplicate capability row for %s/%s", k.platform, k.method)
		}
		table[k] = row.Profile

		row.Platform, row.Method = k.platform, k.method
		kept = append(kept, row)
	}

	return &Resolver{rows: kept, table: table}, nil
}

// DefaultResolver returns the resolver built from the built-in table
func DefaultResolver() *Resolver {
	r, err := NewResolver(DefaultTable())
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the capability profile for a platform and collection method.
// Lookup order: exact row, platform default row, least-permissive profile.
func (r *Resolver) Resolve(platform, method string) model.CapabilityProfile {
	p := normalize(platform)
	if profile, ok := r.table[key{platform: p, method: normalizeMethod(method)}]; ok {
		return profile
	}
	if profile, ok := r.table[key{platform: p, method: AnyMethod}]; ok {
		return profile
	}
	return LeastPermissive
}

// Known reports whether the table has any row for the platform
func (r *Resolver) Known(platform string) bool {
	_, ok := r.table[key{platform: normalize(platform), method: AnyMethod}]
	if ok {
		return true
	}
	p := normalize(platform)
	for k := range r.table {
		if k.platform == p {
			return true
		}
	}
	return false
}

// Rows returns the table sorted by platform then method
func (r *Resolver) Rows() []Row {
	out := make([]Row, len(r.rows))
	copy(out, r.rows)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Platform != out[j].Platform {
			return out[i].Platform < out[j].Platform
		}
		return out[i].Method < out[j].Method
	})
	return out
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

func normalizeMethod(s string) string {
	s = normalize(s)
	if s == "" {
		return AnyMethod
	}
	return s
}
