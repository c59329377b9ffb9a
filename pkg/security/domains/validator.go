// Package domains decides whether a target network location is inside a
// pack's domain allow-list and outside its deny-list. It is the single
// authority for domain matching: the planner consults it for every static or
// interpolated step target, and the runner re-checks it before every
// navigation because interpolated values are only known at runtime.
package domains

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// Verdict is the outcome of one domain validation. It is a pure value;
// validating the same URL against the same lists always yields the same
// verdict.
type Verdict struct {
	// Allowed reports whether navigation to the domain is permitted.
	Allowed bool

	// Domain is the normalized host the verdict applies to. Empty when the
	// URL could not be parsed.
	Domain string

	// MatchedEntry is the allow-list or deny-list entry that decided the
	// verdict, when one did.
	MatchedEntry string

	// Reason explains a blocked verdict in human-readable form.
	Reason string
}

// compiledEntry pairs a raw list entry with its compiled wildcard matcher.
// Non-wildcard entries keep matcher nil and compare by normalized equality.
type compiledEntry struct {
	raw     string
	bare    string // entry with "*." and "www." prefixes stripped
	matcher glob.Glob
}

// Validator checks URLs against one allow-list and one deny-list.
// A Validator is immutable after construction and safe for concurrent use.
type Validator struct {
	allowed []compiledEntry
	denied  []compiledEntry
}

// NewValidator compiles the allow and deny lists into a validator.
// Entries may be exact domains ("sam.gov"), "www."-prefixed domains, or
// wildcard entries ("*.example.com") which match any subdomain and the bare
// apex itself.
func NewValidator(allowed, denied []string) (*Validator, error) {
	v := &Validator{}

	for _, entry := range allowed {
		ce, err := compileEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed domain '%s': %w", entry, err)
		}
		v.allowed = append(v.allowed, ce)
	}
	for _, entry := range denied {
		ce, err := compileEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid blocked domain '%s': %w", entry, err)
		}
		v.denied = append(v.denied, ce)
	}

	return v, nil
}

func compileEntry(entry string) (compiledEntry, error) {
	normalized := strings.ToLower(strings.TrimSpace(entry))
	ce := compiledEntry{raw: entry, bare: stripPrefixes(normalized)}

	if strings.HasPrefix(normalized, "*.") {
		g, err := glob.Compile(normalized)
		if err != nil {
			return compiledEntry{}, err
		}
		ce.matcher = g
	}
	return ce, nil
}

// stripPrefixes removes a leading "*." or "www." from a domain entry.
func stripPrefixes(domain string) string {
	domain = strings.TrimPrefix(domain, "*.")
	domain = strings.TrimPrefix(domain, "www.")
	return domain
}

// Validate checks a URL against the lists. Deny entries take precedence over
// allow entries. A URL that cannot be parsed, or that has no host, is always
// blocked with reason "invalid URL".
func (v *Validator) Validate(rawURL string) Verdict {
	host, err := hostOf(rawURL)
	if err != nil {
		return Verdict{Allowed: false, Reason: "invalid URL"}
	}

	if entry, ok := matchAny(v.denied, host); ok {
		return Verdict{
			Allowed:      false,
			Domain:       host,
			MatchedEntry: entry,
			Reason:       fmt.Sprintf("domain '%s' is on the deny-list (entry '%s')", host, entry),
		}
	}

	if entry, ok := matchAny(v.allowed, host); ok {
		return Verdict{Allowed: true, Domain: host, MatchedEntry: entry}
	}

	return Verdict{
		Allowed: false,
		Domain:  host,
		Reason:  fmt.Sprintf("domain '%s' is not on the allow-list", host),
	}
}

// hostOf extracts the normalized host from a URL: lowercased, port stripped,
// leading "www." removed.
func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("URL '%s' has no host", rawURL)
	}
	return strings.TrimPrefix(host, "www."), nil
}

// matchAny returns the first list entry matching the host: exact match on
// the normalized entry, or a wildcard match for "*." entries. A wildcard
// entry also matches its bare apex, so "*.example.com" covers both
// "a.example.com" and "example.com".
func matchAny(entries []compiledEntry, host string) (string, bool) {
	for _, ce := range entries {
		if host == ce.bare {
			return ce.raw, true
		}
		if ce.matcher != nil && ce.matcher.Match(host) {
			return ce.raw, true
		}
	}
	return "", false
}
