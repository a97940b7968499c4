package logger

import (
	"net/url"
	"strings"
)

var sensitiveQueryParams = []string{
	"token", "refresh_token", "mfa_token", "code", "password", "secret",
}

// QueryHasSensitiveParams reports whether a raw query string carries
// credential material and must be redacted from logs.
func QueryHasSensitiveParams(rawQuery string) bool {
	if rawQuery == "" {
		return false
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		// Unparseable queries are redacted rather than logged raw.
		return true
	}

	for key := range values {
		lower := strings.ToLower(key)
		for _, sensitive := range sensitiveQueryParams {
			if lower == sensitive || strings.Contains(lower, sensitive) {
				return true
			}
		}
	}
	return false
}

// SanitizedEmail masks an email address for logging (e.g. "r***@e***.com")
func SanitizedEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "[invalid-email]"
	}

	username := parts[0]
	domain := parts[1]

	if len(username) > 1 {
		username = string(username[0]) + strings.Repeat("*", len(username)-1)
	}

	domainParts := strings.Split(domain, ".")
	if len(domainParts) > 1 {
		for i := 0; i < len(domainParts)-1; i++ {
			domainParts[i] = strings.Repeat("*", len(domainParts[i]))
		}
		domain = strings.Join(domainParts, ".")
	}

	return username + "@" + domain
}
