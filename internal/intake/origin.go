package intake

import (
	"net/url"
	"strings"

	"github.com/lychee-technology/inquiry"
)

// AllowOrigin reports whether a browser Origin header matches one of the
// form's allowed domains. Entries may be a bare host, host:port or a full
// origin; the scheme is ignored. A host-only entry matches any port. An
// empty origin (non-browser client) is allowed.
func AllowOrigin(form *inquiry.Form, origin string) bool {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return true
	}
	host, hostname, ok := originHost(origin)
	if !ok {
		return false
	}
	for _, d := range form.Settings.AllowedDomains {
		entry := normalizeDomain(d)
		if entry == "" {
			continue
		}
		if entry == host {
			return true
		}
		if !strings.Contains(entry, ":") && entry == hostname {
			return true
		}
	}
	return false
}

func originHost(origin string) (host, hostname string, ok bool) {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return "", "", false
	}
	return strings.ToLower(u.Host), strings.ToLower(u.Hostname()), true
}

func normalizeDomain(d string) string {
	d = strings.ToLower(strings.Trim(d, inquiry.Whitespace))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return d
}
