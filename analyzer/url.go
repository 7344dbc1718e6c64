package analyzer

import (
	"errors"
	"net/url"
	"strings"

	"github.com/ariclear/backend/report"
)

// ValidateURL accepts only absolute http(s) URLs with a host.
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, report.InvalidInput(errors.New("url is empty"))
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, report.InvalidInput(err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, report.InvalidInput(errors.New("unsupported scheme " + u.Scheme))
	}
	if u.Hostname() == "" {
		return nil, report.InvalidInput(errors.New("url has no host"))
	}
	return u, nil
}
