package domain

import (
	"net/url"
	"path"
	"strings"

	"go.trai.ch/zerr"
)

// ParseAddress validates a repository address. Absolute local paths are returned as file URLs.
func ParseAddress(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "/") {
		return &url.URL{Scheme: "file", Path: path.Clean(raw)}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrInvalidAddress, err.Error()), "address", raw)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return nil, zerr.With(zerr.Wrap(ErrInvalidAddress, "missing host"), "address", raw)
		}
	case "file":
		if u.Path == "" || !strings.HasPrefix(u.Path, "/") {
			return nil, zerr.With(zerr.Wrap(ErrInvalidAddress, "file address must be absolute"), "address", raw)
		}
	default:
		return nil, zerr.With(zerr.Wrap(ErrInvalidAddress, "unsupported scheme"), "address", raw)
	}
	return u, nil
}

// RepositoryNameFromAddress derives a repository name from the host and last path segment
// of an address, e.g. "https://pkgs.example.org/stable" becomes "pkgs.example.org-stable".
func RepositoryNameFromAddress(raw string) (string, error) {
	u, err := ParseAddress(raw)
	if err != nil {
		return "", err
	}

	var parts []string
	if host := u.Hostname(); host != "" {
		parts = append(parts, host)
	}
	if last := path.Base(strings.TrimSuffix(u.Path, "/")); last != "." && last != "/" && last != "" {
		parts = append(parts, last)
	}

	name := sanitizeName(strings.Join(parts, "-"))
	if name == "" {
		return "", zerr.With(zerr.Wrap(ErrInvalidAddress, "cannot derive a repository name"), "address", raw)
	}
	return name, nil
}

func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '+', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.TrimLeft(b.String(), "._+-")
}
