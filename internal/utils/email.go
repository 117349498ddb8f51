package utils

import "strings"

// IsCompanyEmail reports whether email belongs to the given company domain
// (i.e. has the exact form localpart@domain with a non-empty local part).
// The comparison is case-insensitive on the domain, matching how mail
// systems treat it.
func IsCompanyEmail(email, domain string) bool {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return strings.EqualFold(email[at+1:], domain)
}
