package contact

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	phonePattern   = regexp.MustCompile(`(?:\+?1[\s.\-]?)?\(?\b(\d{3})\)?[\s.\-]?(\d{3})[\s.\-](\d{4})\b`)
	tollFreeWords  = regexp.MustCompile(`(?i)\b1-?800-?[A-Z]{3,4}-?[A-Z]{3,4}\b`)
	addressPattern = regexp.MustCompile(`(?i)\b\d{1,6}\s+(?:[A-Z0-9][a-z0-9.']*\s+){1,4}(?:street|st|avenue|ave|road|rd|boulevard|blvd|drive|dr|lane|ln|way|court|ct|place|pl|parkway|pkwy|highway|hwy)\b\.?(?:,?\s+(?:suite|ste|unit|#)\s*[a-z0-9\-]+)?`)
)

// Phones returns the distinct phone numbers in text, formatted (XXX) XXX-XXXX.
// Vanity numbers like 1-800-SAFE-NOW are kept as written.
func Phones(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range phonePattern.FindAllStringSubmatch(text, -1) {
		formatted := "(" + m[1] + ") " + m[2] + "-" + m[3]
		if _, dup := seen[formatted]; dup {
			continue
		}
		seen[formatted] = struct{}{}
		out = append(out, formatted)
	}
	for _, m := range tollFreeWords.FindAllString(text, -1) {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// Addresses returns street addresses found in text.
func Addresses(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range addressPattern.FindAllString(text, -1) {
		addr := strings.TrimRight(strings.TrimSpace(m), ",")
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// OrganizationalDomain reports whether rawURL is hosted on a .org or .gov domain.
func OrganizationalDomain(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return strings.HasSuffix(host, ".org") || strings.HasSuffix(host, ".gov")
}

// Reachable reports whether a result offers a way to contact it.
func Reachable(content, rawURL string) bool {
	return len(Phones(content)) > 0 || OrganizationalDomain(rawURL)
}
