package logging

import (
	"log/slog"
	"net/http"
	"regexp"
	"slices"

	"github.com/m-mizutani/masq"
	"github.com/stoewer/go-strcase"
)

var (
	jwtPattern       = regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`)
	bearerPattern    = regexp.MustCompile(`(?i)^bearer\s+.+$`)
	basicAuthPattern = regexp.MustCompile(`(?i)^basic\s+.+$`)
)

// sensitiveFields are written in the client's camelCase. Bodies are logged
// after the wire rewrite too, so each name is also matched in snake_case.
var sensitiveFields = []string{
	"password", "secret", "token", "apiKey", "accessToken", "refreshToken",
	"idToken", "credential", "credentials", "authorization", "auth", "bearer",
	"cookie", "session", "privateKey", "secretKey", "otp",
}

// sensitiveHeaders are matched in their canonical form.
var sensitiveHeaders = []string{"Authorization", "Cookie", "Set-Cookie", "X-Api-Key"}

// sensitivePrefixes redact any field that starts with them.
var sensitivePrefixes = []string{"secret", "private", "password"}

// DefaultRedactOptions returns the masq options for secret redaction.
func DefaultRedactOptions() []masq.Option {
	names := make([]string, 0, 2*len(sensitiveFields)+len(sensitiveHeaders)+1)
	for _, f := range sensitiveFields {
		names = append(names, f, strcase.SnakeCase(f))
	}

	for _, h := range sensitiveHeaders {
		names = append(names, http.CanonicalHeaderKey(h))
	}

	// apikey is a common misspelling of apiKey in query strings.
	names = append(names, "apikey")

	slices.Sort(names)
	names = slices.Compact(names)

	opts := make([]masq.Option, 0, len(names)+len(sensitivePrefixes)+3)
	for _, n := range names {
		opts = append(opts, masq.WithFieldName(n))
	}

	for _, p := range sensitivePrefixes {
		opts = append(opts, masq.WithFieldPrefix(p))
	}

	return append(opts,
		masq.WithRegex(jwtPattern),
		masq.WithRegex(bearerPattern),
		masq.WithRegex(basicAuthPattern),
	)
}

// NewReplaceAttr creates a ReplaceAttr function for slog.HandlerOptions
// that redacts sensitive data using DefaultRedactOptions plus opts.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(DefaultRedactOptions(), opts...)...)
}
