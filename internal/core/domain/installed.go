package domain

import (
	"maps"
	"slices"
	"time"
)

// InstalledDBVersion is the current format version of the installed database.
const InstalledDBVersion = 1

// OwnedFile is a path recorded as belonging to an installed package.
type OwnedFile struct {
	Path  string `json:"path"`
	Ghost bool   `json:"ghost,omitempty"`

	// Fingerprint is the xxhash of the content at install time. Zero for ghosts.
	Fingerprint uint64 `json:"fingerprint,omitempty"`
}

// InstalledPackage is an entry of the installed database.
type InstalledPackage struct {
	// Package is the full manifest, kept so that removal and conflict checks
	// still work once the package disappears from every repository.
	Package     Package     `json:"package"`
	Files       []OwnedFile `json:"files"`
	InstalledAt time.Time   `json:"installed_at,omitzero"`
	Repository  string      `json:"repository,omitempty"`
}

// Name returns the installed package name.
func (p *InstalledPackage) Name() string { return p.Package.Name }

// Version returns the installed version.
func (p *InstalledPackage) Version() string { return p.Package.Version }

// Clone returns a deep copy.
func (p *InstalledPackage) Clone() InstalledPackage {
	c := *p
	c.Package = p.Package.Clone()
	c.Files = slices.Clone(p.Files)
	return c
}

// InstalledDB is the durable record of what is believed to be on disk.
// Callers outside the transaction engine only ever receive clones.
type InstalledDB struct {
	Version  int                         `json:"version"`
	Packages map[string]InstalledPackage `json:"packages"`
}

// NewInstalledDB creates an empty database.
func NewInstalledDB() *InstalledDB {
	return &InstalledDB{
		Version:  InstalledDBVersion,
		Packages: make(map[string]InstalledPackage),
	}
}

// Clone returns a deep copy.
func (db *InstalledDB) Clone() *InstalledDB {
	c := &InstalledDB{
		Version:  db.Version,
		Packages: make(map[string]InstalledPackage, len(db.Packages)),
	}
	for name, p := range db.Packages {
		c.Packages[name] = p.Clone()
	}
	return c
}

// Get returns the installed package with the given name.
func (db *InstalledDB) Get(name string) (InstalledPackage, bool) {
	p, ok := db.Packages[name]
	return p, ok
}

// Has reports whether name is installed.
func (db *InstalledDB) Has(name string) bool {
	_, ok := db.Packages[name]
	return ok
}

// Put records an installed package, replacing any previous version.
func (db *InstalledDB) Put(p InstalledPackage) {
	if db.Packages == nil {
		db.Packages = make(map[string]InstalledPackage)
	}
	db.Packages[p.Name()] = p
}

// Delete forgets an installed package.
func (db *InstalledDB) Delete(name string) {
	delete(db.Packages, name)
}

// Names returns installed package names in lexicographic order.
func (db *InstalledDB) Names() []string {
	return slices.Sorted(maps.Keys(db.Packages))
}

// Len returns the number of installed packages.
func (db *InstalledDB) Len() int {
	return len(db.Packages)
}

// Dependents returns the installed packages declaring a dependency on name, sorted.
func (db *InstalledDB) Dependents(name string) []string {
	var out []string
	for _, n := range db.Names() {
		p := db.Packages[n]
		if n != name && p.Package.DependsOn(name) {
			out = append(out, n)
		}
	}
	return out
}

// Owner is an installed package claiming a path.
type Owner struct {
	Package string
	Ghost   bool
}

// Owners returns every installed package claiming path, sorted by package name.
func (db *InstalledDB) Owners(path string) []Owner {
	var out []Owner
	for _, n := range db.Names() {
		for _, f := range db.Packages[n].Files {
			if f.Path == path {
				out = append(out, Owner{Package: n, Ghost: f.Ghost})
				break
			}
		}
	}
	return out
}

// ExclusiveOwner returns the package that owns path as a regular file, if any.
// Packages listed in except are ignored.
func (db *InstalledDB) ExclusiveOwner(path string, except ...string) (string, bool) {
	for _, o := range db.Owners(path) {
		if o.Ghost || slices.Contains(except, o.Package) {
			continue
		}
		return o.Package, true
	}
	return "", false
}
