// Package redact scrubs credentials, bearer tokens and citizen contact
// details from error text before it reaches logs.
package redact

import "regexp"

// Placeholders substituted for redacted fragments.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	KeyPlaceholder        = "[REDACTED_KEY]"
	JWTPlaceholder        = "[REDACTED_JWT]"
	BearerPlaceholder     = "Bearer [REDACTED]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
	MobilePlaceholder     = "[REDACTED_MOBILE]"
	PathPlaceholder       = "[REDACTED_PATH]"
	SQLPlaceholder        = "[REDACTED_SQL]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Rules run in order; JWTs go before bearer tokens so a bearer JWT is
// reported as a JWT.
var rules = []rule{
	{regexp.MustCompile(`(?i)(postgres|postgresql|redis|mysql)://[^@\s]+@`), CredentialPlaceholder},
	{regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`), CredentialPlaceholder},
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), JWTPlaceholder},
	{regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-.~+/]{8,}=*`), BearerPlaceholder},
	{regexp.MustCompile(`(?i)(api[_-]?key|secret|access[_-]?token)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`), KeyPlaceholder},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), EmailPlaceholder},
	{regexp.MustCompile(`(?:\+?91[\s-]?)?\b[6-9]\d{9}\b`), MobilePlaceholder},
	{regexp.MustCompile(
		`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\b[\s\w,.*()$=]+\b(FROM|INTO|SET)\b[\s\w,.*()$='"]*`,
	), SQLPlaceholder},
	{regexp.MustCompile(`(?:/[\w.-]+){3,}`), PathPlaceholder},
}

// String redacts sensitive fragments of input.
func String(input string) string {
	if input == "" {
		return input
	}
	for _, r := range rules {
		input = r.pattern.ReplaceAllString(input, r.placeholder)
	}
	return input
}

// Error redacts the text of err. A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
