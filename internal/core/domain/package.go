package domain

import (
	"path"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// ArchAny marks a package that installs on every architecture.
const ArchAny = "any"

// Requirement is a package name with an optional version constraint.
// It is used both for dependencies and for declared conflicts.
type Requirement struct {
	// Name is the required package name.
	Name string `yaml:"name" json:"name" validate:"required,pkgname"`

	// Constraint is a semantic version range. Empty means any version.
	Constraint string `yaml:"version,omitempty" json:"version,omitempty" validate:"omitempty,constraint"`
}

// Matches reports whether the named package at the given version meets the requirement.
// A malformed constraint or version never matches.
func (r Requirement) Matches(name, version string) bool {
	if r.Name != name {
		return false
	}
	ok, err := Satisfies(version, r.Constraint)
	return err == nil && ok
}

func (r Requirement) String() string {
	if r.Constraint == "" || r.Constraint == AnyVersion {
		return r.Name
	}
	return r.Name + " " + r.Constraint
}

// FileEntry is a path listed in a package manifest.
type FileEntry struct {
	// Path is slash separated and relative to the install root.
	Path string `yaml:"path" json:"path" validate:"required"`

	// Ghost paths are recorded as owned without being required on disk.
	// They may be shared between packages.
	Ghost bool `yaml:"ghost,omitempty" json:"ghost,omitempty"`
}

// Package is an immutable, published package version.
type Package struct {
	Name         string        `yaml:"name" json:"name" validate:"required,pkgname"`
	Version      string        `yaml:"version" json:"version" validate:"required,pkgversion"`
	Description  string        `yaml:"description,omitempty" json:"description,omitempty"`
	Arch         string        `yaml:"arch" json:"arch" validate:"required"`
	Dependencies []Requirement `yaml:"dependencies,omitempty" json:"dependencies,omitempty" validate:"dive"`
	Conflicts    []Requirement `yaml:"conflicts,omitempty" json:"conflicts,omitempty" validate:"dive"`
	Files        []FileEntry   `yaml:"files,omitempty" json:"files,omitempty" validate:"dive"`
	Digest       Digest        `yaml:"digest,omitempty" json:"digest,omitempty"`

	// Repository is the provenance of a listed package. It is filled in when listings are loaded.
	Repository string `yaml:"-" json:"repository,omitempty" cbor:"-"`
}

// ID returns "name@version".
func (p *Package) ID() string {
	return p.Name + "@" + p.Version
}

// SupportsArch reports whether the package installs on arch.
func (p *Package) SupportsArch(arch string) bool {
	return p.Arch == ArchAny || arch == "" || p.Arch == arch
}

// DependsOn reports whether the package declares a dependency on name.
func (p *Package) DependsOn(name string) bool {
	return slices.ContainsFunc(p.Dependencies, func(r Requirement) bool { return r.Name == name })
}

// ConflictsWith reports whether any declared conflict matches the named package version.
func (p *Package) ConflictsWith(name, version string) bool {
	return slices.ContainsFunc(p.Conflicts, func(r Requirement) bool { return r.Matches(name, version) })
}

// Clone returns a deep copy.
func (p *Package) Clone() Package {
	c := *p
	c.Dependencies = slices.Clone(p.Dependencies)
	c.Conflicts = slices.Clone(p.Conflicts)
	c.Files = slices.Clone(p.Files)
	return c
}

// CleanPath normalizes a manifest path to a slash separated path relative to the install root.
// Paths escaping the root are rejected.
func CleanPath(p string) (string, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	rel := strings.TrimPrefix(cleaned, "/")
	if rel == "" || rel == "." {
		return "", zerr.With(zerr.Wrap(ErrInvalidManifest, "empty path"), "path", p)
	}
	if slices.Contains(strings.Split(strings.ReplaceAll(p, "\\", "/"), "/"), "..") {
		return "", zerr.With(zerr.Wrap(ErrInvalidManifest, "path escapes the install root"), "path", p)
	}
	return rel, nil
}
