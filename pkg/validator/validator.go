package validator

import (
	"net/url"
	"strings"
)

// maxURLLength bounds stored URLs; browsers and proxies start failing above it
const maxURLLength = 2048

// HasHTTPScheme reports whether u starts with "http://" or "https://",
// ignoring case. Anything else is either schemeless or a foreign scheme.
func HasHTTPScheme(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// hasOtherScheme reports whether u opens with a scheme token followed by
// "://". A "://" that appears after the host ("a.com/?next=http://b") does not count.
func hasOtherScheme(u string) bool {
	i := strings.Index(u, "://")
	if i <= 0 {
		return false
	}
	for j, r := range u[:i] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case j > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// ValidateOriginalURL checks a link destination.
// Absolute http(s) URLs and schemeless ones ("example.com/path") are both
// accepted. The value is not rewritten: callers store what the user sent.
func ValidateOriginalURL(urlStr string) error {
	urlStr = strings.TrimSpace(urlStr)

	if urlStr == "" {
		return ErrEmptyURL
	}
	if len(urlStr) > maxURLLength {
		return ErrURLTooLong
	}

	candidate := urlStr
	if !HasHTTPScheme(candidate) && !hasOtherScheme(candidate) {
		candidate = "http://" + candidate
	}

	parsedURL, err := url.Parse(candidate)
	if err != nil {
		return ErrInvalidURL
	}

	// Check scheme
	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrInvalidScheme
	}

	// Check host
	if parsedURL.Hostname() == "" {
		return ErrInvalidHost
	}
	if strings.ContainsAny(parsedURL.Host, " \t") {
		return ErrInvalidHost
	}

	return nil
}

// ValidateTags checks free-form labels
func ValidateTags(tags []string) error {
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return ErrEmptyTag
		}
		if len(tag) > 64 {
			return ErrTagTooLong
		}
	}
	return nil
}
