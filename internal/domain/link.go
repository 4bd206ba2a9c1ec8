package domain

import (
	"net/url"
	"strings"
)

// supportedHosts lists the registrable domains of the supported platform.
// Regional and short-link hosts (www., m., vm., vt.) are subdomains of these.
var supportedHosts = []string{
	"tiktok.com",
	"tiktokv.com",
}

// IsSupportedURL reports whether raw points at the supported video host.
// The host must equal, or be a subdomain of, an allow-listed domain.
// Links pasted without a scheme are treated as https. Anything that does not
// parse classifies as false.
func IsSupportedURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		// "vm.tiktok.com/ZMabc123/" parses as a bare path.
		u, err = url.Parse("https://" + raw)
		if err != nil {
			return false
		}
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return false
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return false
	}

	for _, allowed := range supportedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

// NormalizeURL returns raw with an https scheme added when it was omitted.
// It is meant for links that already passed IsSupportedURL.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		return raw
	}
	return "https://" + raw
}
