// backend/utils/domain.go
package utils

import (
	"math/rand"
	"net/url"
	"regexp"
	"strings"
)

// User agents rotated across outbound requests so scraping traffic does not
// present a single fingerprint.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
}

// RandomUserAgent returns one of the rotated user agent strings.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

var (
	domainPattern      = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)
	companySuffixes    = regexp.MustCompile(`(?i)\s+(?:Inc|LLC|Ltd|Limited|Corp|Corporation|Co|Company)\.?$`)
	companySuffixesEU  = regexp.MustCompile(`(?i)\s+(?:GmbH|AG|S\.A\.|S\.L\.|B\.V\.)$`)
	emailPattern       = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePatterns      = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		regexp.MustCompile(`\(\d{3}\)\s?\d{3}[-.\s]?\d{4}`),
		regexp.MustCompile(`\+1\s?\d{3}[-.\s]?\d{3}[-.\s]?\d{4}`),
	}
	pseudoDomainSuffixes = []string{".google", ".meta", ".amazon", ".shopping"}
)

// ExtractDomain pulls the lowercase hostname out of a URL, stripping any
// leading "www.". Returns "" if no host can be determined.
func ExtractDomain(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	domain := strings.ToLower(parsed.Hostname())
	domain = strings.TrimPrefix(domain, "www.")
	return domain
}

// NormalizeURL forces a scheme, lowercases the host, and drops trailing
// slashes and fragments so equal pages compare equal.
func NormalizeURL(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	parsed.Fragment = ""
	return parsed.String()
}

// IsValidDomain checks that a string looks like a plausible hostname.
func IsValidDomain(domain string) bool {
	if domain == "" || !strings.Contains(domain, ".") {
		return false
	}
	return domainPattern.MatchString(domain)
}

// PseudoDomain builds the synthetic key used when no real website domain can
// be inferred for an advertiser: a slug of the display name plus the source
// word, e.g. "acmecorp.amazon".
func PseudoDomain(name, sourceWord string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "")
	slug = strings.ReplaceAll(slug, ".", "")
	return slug + "." + sourceWord
}

// IsPseudoDomain reports whether a lead key is a synthetic pseudo-domain
// rather than a real hostname. Pseudo-domain leads are excluded from
// enrichment.
func IsPseudoDomain(domain string) bool {
	for _, suffix := range pseudoDomainSuffixes {
		if strings.HasSuffix(domain, suffix) {
			return true
		}
	}
	return false
}

// CleanCompanyName strips common legal suffixes and collapses whitespace.
func CleanCompanyName(name string) string {
	cleaned := strings.TrimSpace(name)
	cleaned = companySuffixes.ReplaceAllString(cleaned, "")
	cleaned = companySuffixesEU.ReplaceAllString(cleaned, "")
	return strings.Join(strings.Fields(cleaned), " ")
}

// ExtractEmail returns the first email address found in text, or "".
func ExtractEmail(text string) string {
	return emailPattern.FindString(text)
}

// ExtractPhone returns the first US-format phone number found in text, or "".
func ExtractPhone(text string) string {
	for _, p := range phonePatterns {
		if m := p.FindString(text); m != "" {
			return m
		}
	}
	return ""
}
