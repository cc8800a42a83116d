package model

import (
	"log/slog"
	"strings"
)

// Credentials are optional login details forwarded to the extractor.
type Credentials struct {
	Username string
	Password string

	// CookiesFromBrowser names a browser to read cookies from
	// (e.g. "firefox", "chrome:Profile 1").
	CookiesFromBrowser string

	// CookiesFile is a Netscape cookies.txt path.
	CookiesFile string
}

// IsZero reports whether no credential is set.
func (c *Credentials) IsZero() bool {
	if c == nil {
		return true
	}
	return strings.TrimSpace(c.Username) == "" &&
		c.Password == "" &&
		strings.TrimSpace(c.CookiesFromBrowser) == "" &&
		strings.TrimSpace(c.CookiesFile) == ""
}

// Redacted returns a copy safe to log.
func (c *Credentials) Redacted() Credentials {
	if c == nil {
		return Credentials{}
	}
	out := *c
	if out.Password != "" {
		out.Password = "***"
	}
	return out
}

// LogValue implements slog.LogValuer. Empty fields are omitted and the
// password is masked.
func (c Credentials) LogValue() slog.Value {
	r := c.Redacted()
	var attrs []slog.Attr
	for _, f := range []struct{ key, val string }{
		{"username", r.Username},
		{"password", r.Password},
		{"cookies_from_browser", r.CookiesFromBrowser},
		{"cookies_file", r.CookiesFile},
	} {
		if strings.TrimSpace(f.val) != "" {
			attrs = append(attrs, slog.String(f.key, f.val))
		}
	}
	return slog.GroupValue(attrs...)
}
