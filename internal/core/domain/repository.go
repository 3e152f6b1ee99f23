package domain

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// RepositoryDescriptor is the locally configured identity of a repository.
type RepositoryDescriptor struct {
	Name    string `yaml:"name" json:"name" validate:"required,pkgname"`
	Address string `yaml:"address" json:"address" validate:"required"`
	Arch    string `yaml:"arch,omitempty" json:"arch,omitempty"`
}

// Repository is a descriptor together with its last synchronized listing.
// A Repository is replaced wholesale on every sync and never mutated in place.
type Repository struct {
	RepositoryDescriptor `yaml:",inline"`

	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Packages maps a package name to every listed version, ascending.
	Packages map[string][]Package `yaml:"packages,omitempty" json:"packages,omitempty"`

	// SyncedAt is zero for a repository that was never synchronized.
	SyncedAt time.Time `yaml:"synced_at,omitempty" json:"synced_at,omitzero"`
}

// Listing is the wire form of a repository's package index.
type Listing struct {
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Arch        string    `yaml:"arch,omitempty" json:"arch,omitempty"`
	Packages    []Package `yaml:"packages" json:"packages" validate:"dive"`
}

// NewRepository builds a repository snapshot from a listing, ordering versions ascending.
func NewRepository(desc RepositoryDescriptor, listing Listing, syncedAt time.Time) Repository {
	repo := Repository{
		RepositoryDescriptor: desc,
		Description:          listing.Description,
		Packages:             make(map[string][]Package),
		SyncedAt:             syncedAt,
	}
	for i := range listing.Packages {
		pkg := listing.Packages[i].Clone()
		pkg.Repository = desc.Name
		repo.Packages[pkg.Name] = append(repo.Packages[pkg.Name], pkg)
	}
	for name := range repo.Packages {
		slices.SortStableFunc(repo.Packages[name], func(a, b Package) int {
			return CompareVersions(a.Version, b.Version)
		})
	}
	return repo
}

// Listing returns the wire form of the repository, packages ordered by name then version.
func (r *Repository) Listing() Listing {
	l := Listing{Name: r.Name, Description: r.Description, Arch: r.Arch}
	for _, name := range slices.Sorted(maps.Keys(r.Packages)) {
		l.Packages = append(l.Packages, r.Packages[name]...)
	}
	return l
}

// Latest returns the highest listed version of a package.
func (r *Repository) Latest(name string) (Package, bool) {
	versions := r.Packages[name]
	if len(versions) == 0 {
		return Package{}, false
	}
	return versions[len(versions)-1], true
}

// Len returns the number of listed package versions.
func (r *Repository) Len() int {
	n := 0
	for _, versions := range r.Packages {
		n += len(versions)
	}
	return n
}

// Clone returns a deep copy.
func (r *Repository) Clone() Repository {
	c := *r
	c.Packages = make(map[string][]Package, len(r.Packages))
	for name, versions := range r.Packages {
		cloned := make([]Package, len(versions))
		for i := range versions {
			cloned[i] = versions[i].Clone()
		}
		c.Packages[name] = cloned
	}
	return c
}

// Universe is the union of every repository's listing, filtered by architecture.
type Universe struct {
	candidates map[string][]Package
}

// NewUniverse merges repositories. Candidates for a name are ordered from the highest
// version down; equal versions are ordered by repository name.
func NewUniverse(repos []Repository, arch string) *Universe {
	u := &Universe{candidates: make(map[string][]Package)}
	for i := range repos {
		for name, versions := range repos[i].Packages {
			for j := range versions {
				if !versions[j].SupportsArch(arch) {
					continue
				}
				pkg := versions[j]
				if pkg.Repository == "" {
					pkg.Repository = repos[i].Name
				}
				u.candidates[name] = append(u.candidates[name], pkg)
			}
		}
	}
	for name := range u.candidates {
		slices.SortStableFunc(u.candidates[name], func(a, b Package) int {
			if c := CompareVersions(b.Version, a.Version); c != 0 {
				return c
			}
			return strings.Compare(a.Repository, b.Repository)
		})
	}
	return u
}

// Candidates returns every known version of name, highest first.
func (u *Universe) Candidates(name string) []Package {
	return u.candidates[name]
}

// Best returns the highest version of name satisfying constraint.
func (u *Universe) Best(name, constraint string) (Package, bool) {
	c, err := ParseConstraint(constraint)
	if err != nil {
		return Package{}, false
	}
	for _, pkg := range u.candidates[name] {
		v, err := ParseVersion(pkg.Version)
		if err != nil {
			continue
		}
		if c.Check(v) {
			return pkg, true
		}
	}
	return Package{}, false
}

// Has reports whether any repository lists name.
func (u *Universe) Has(name string) bool {
	return len(u.candidates[name]) > 0
}
