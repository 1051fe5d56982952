package verify

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Addressing selects how the fixture's repository view is located.
type Addressing string

const (
	// AddressingPath is the canonical form: {base}/@scope/name.
	AddressingPath Addressing = "path"
	// AddressingQuery is the alternative form: {base}/?view=repo&package=@scope/name.
	AddressingQuery Addressing = "query"
)

var fixtureRe = regexp.MustCompile(`^@[A-Za-z0-9._~-]+/[A-Za-z0-9._~-]+$`)

// ParseAddressing accepts "path" or "query" (case-insensitive). Empty means path.
func ParseAddressing(s string) (Addressing, error) {
	switch Addressing(strings.ToLower(strings.TrimSpace(s))) {
	case "", AddressingPath:
		return AddressingPath, nil
	case AddressingQuery:
		return AddressingQuery, nil
	}
	return "", fmt.Errorf("unknown addressing mode %q (want path or query)", s)
}

// Target identifies the fixture's settings view on a running application.
type Target struct {
	BaseURL    string
	Fixture    string
	Addressing Addressing
}

// Validate checks the base URL and fixture name.
func (t Target) Validate() error {
	if _, err := t.base(); err != nil {
		return err
	}
	if !fixtureRe.MatchString(t.Fixture) {
		return fmt.Errorf("invalid fixture %q (want @scope/name)", t.Fixture)
	}
	if _, err := ParseAddressing(string(t.Addressing)); err != nil {
		return err
	}
	return nil
}

func (t Target) base() (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(t.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", t.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", t.BaseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", t.BaseURL)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// URL renders the navigation URL for the target's addressing mode.
func (t Target) URL() (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	u, _ := t.base()
	mode, _ := ParseAddressing(string(t.Addressing))

	switch mode {
	case AddressingQuery:
		u.Path = strings.TrimSuffix(u.Path, "/") + "/"
		u.RawPath = ""
		u.RawQuery = "view=repo&package=" + url.QueryEscape(t.Fixture)
		return u.String(), nil
	default:
		return u.JoinPath(t.Fixture).String(), nil
	}
}

// Landmark is the visible text confirming the fixture loaded.
func (t Target) Landmark() string {
	return t.Fixture
}

// ParseTargetURL recovers a Target from a full URL in either addressing scheme.
// Trailing path segments after @scope/name (such as /settings) are ignored.
func ParseTargetURL(raw string) (Target, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Target{}, fmt.Errorf("invalid target URL %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Target{}, fmt.Errorf("invalid target URL %q: want absolute http(s) URL", raw)
	}
	origin := u.Scheme + "://" + u.Host

	q := u.Query()
	if q.Get("view") == "repo" && q.Get("package") != "" {
		t := Target{
			BaseURL:    origin + strings.TrimSuffix(u.Path, "/"),
			Fixture:    q.Get("package"),
			Addressing: AddressingQuery,
		}
		return t, t.Validate()
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, "@") || i+1 >= len(segments) {
			continue
		}
		prefix := strings.Join(segments[:i], "/")
		base := origin
		if prefix != "" {
			base += "/" + prefix
		}
		t := Target{
			BaseURL:    base,
			Fixture:    seg + "/" + segments[i+1],
			Addressing: AddressingPath,
		}
		return t, t.Validate()
	}
	return Target{}, fmt.Errorf("target URL %q names no fixture (want /@scope/name or ?view=repo&package=...)", raw)
}
