// internal/app/system/normalize/normalize.go
//
// Package normalize canonicalizes user-supplied strings before they are
// stored or compared.
package normalize

import "strings"

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name. Case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role trims and lowercases a role.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status trims and lowercases a status.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a free-text query parameter. Case is preserved.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Filter trims and lowercases a list filter value. The value "all" means no
// filter and normalizes to "".
func Filter(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "all" {
		return ""
	}
	return s
}
