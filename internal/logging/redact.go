package logging

import "regexp"

// RedactedText replaces secrets in logged strings.
const RedactedText = "[REDACTED]"

var (
	// password=xxx, pwd=xxx, pass=xxx up to the next delimiter
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// SecretKey=xxx in storage connection strings
	secretKeyPattern = regexp.MustCompile(`(?i)(secretkey|accountkey)=[^;&\s]+`)

	// x-api-key style headers or query parameters
	apiKeyPattern = regexp.MustCompile(`(?i)(x-api-key|api[_-]?key|apikey)[=:]\s*[A-Za-z0-9-_]{8,}`)

	// Telegram bot tokens embedded in request URLs
	botTokenPattern = regexp.MustCompile(`/bot[0-9]+:[A-Za-z0-9_-]+`)

	// user:pass@host
	userInfoPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@`)
)

// RedactConnectionString removes credentials from a SQL or storage connection string.
func RedactConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	redacted := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	redacted = secretKeyPattern.ReplaceAllString(redacted, "${1}="+RedactedText)
	redacted = userInfoPattern.ReplaceAllString(redacted, "://"+RedactedText+"@")
	return redacted
}

// RedactError renders err without credentials that drivers or HTTP clients echo back.
func RedactError(err error) string {
	if err == nil {
		return ""
	}

	redacted := RedactConnectionString(err.Error())
	redacted = apiKeyPattern.ReplaceAllString(redacted, "${1}="+RedactedText)
	redacted = botTokenPattern.ReplaceAllString(redacted, "/bot"+RedactedText)
	return redacted
}
