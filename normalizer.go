package identity

import "strings"

// UppercaseNormalizer is the default lookup normalizer: trims and uppercases,
// matching case-insensitive uniqueness semantics.
type UppercaseNormalizer struct{}

func (UppercaseNormalizer) NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func (UppercaseNormalizer) NormalizeEmail(email string) string {
	return strings.ToUpper(strings.TrimSpace(email))
}

// maybeNormalizeName normalizes through n, passing empty input through
// untouched so lookups for blank names never match normalized rows.
func maybeNormalizeName(n LookupNormalizer, name string) string {
	if name == "" {
		return name
	}
	if n == nil {
		return name
	}
	return n.NormalizeName(name)
}

// maybeNormalizeEmail mirrors maybeNormalizeName for email addresses.
func maybeNormalizeEmail(n LookupNormalizer, email string) string {
	if email == "" {
		return email
	}
	if n == nil {
		return email
	}
	return n.NormalizeEmail(email)
}
