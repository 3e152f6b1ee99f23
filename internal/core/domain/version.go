package domain

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/zerr"
)

// AnyVersion is the constraint matching every version.
const AnyVersion = "*"

// ParseVersion parses a semantic version.
func ParseVersion(v string) (*semver.Version, error) {
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrInvalidVersion, err.Error()), "version", v)
	}
	return parsed, nil
}

// ParseConstraint parses a version constraint. An empty constraint matches any version.
func ParseConstraint(c string) (*semver.Constraints, error) {
	if strings.TrimSpace(c) == "" {
		c = AnyVersion
	}
	parsed, err := semver.NewConstraint(c)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrInvalidVersion, err.Error()), "constraint", c)
	}
	return parsed, nil
}

// CompareVersions orders two version strings. Unparsable versions sort first.
func CompareVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return va.Compare(vb)
}

// Satisfies reports whether version v matches constraint c.
func Satisfies(v, c string) (bool, error) {
	version, err := ParseVersion(v)
	if err != nil {
		return false, err
	}
	constraint, err := ParseConstraint(c)
	if err != nil {
		return false, err
	}
	return constraint.Check(version), nil
}

// Request is a package name with an optional version constraint, as typed by a user.
type Request struct {
	Name       string `json:"name"`
	Constraint string `json:"constraint,omitempty"`
}

// ParseRequest parses "name" or "name@constraint".
func ParseRequest(s string) (Request, error) {
	name, constraint, _ := strings.Cut(strings.TrimSpace(s), "@")
	if name == "" {
		return Request{}, zerr.With(zerr.Wrap(ErrNoTargetsSpecified, "empty package name"), "request", s)
	}
	if constraint != "" {
		if _, err := ParseConstraint(constraint); err != nil {
			return Request{}, err
		}
	}
	return Request{Name: name, Constraint: constraint}, nil
}

// ParseRequests parses every argument with ParseRequest. At least one is required.
func ParseRequests(args []string) ([]Request, error) {
	if len(args) == 0 {
		return nil, zerr.Wrap(ErrNoTargetsSpecified, "no packages requested")
	}
	reqs := make([]Request, 0, len(args))
	for _, s := range args {
		req, err := ParseRequest(s)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func (r Request) String() string {
	if r.Constraint == "" {
		return r.Name
	}
	return r.Name + "@" + r.Constraint
}
