// Package resolver turns install, upgrade and removal intents into ordered plans.
package resolver

import (
	"maps"
	"slices"

	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/gany/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Resolver = (*Resolver)(nil)

// Resolver selects package versions from a universe of repositories.
// It keeps no state between calls.
type Resolver struct{}

// New creates a Resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve computes the plan for intent. Neither db nor universe is modified.
func (r *Resolver) Resolve(db *domain.InstalledDB, universe *domain.Universe, intent domain.Intent) (*domain.Plan, error) {
	switch intent.Kind {
	case domain.IntentInstall:
		return r.install(db, universe, intent.Targets)
	case domain.IntentUpgrade:
		return r.upgrade(db, universe, intent.Names())
	case domain.IntentRemove:
		return r.remove(db, intent.Names(), intent.Cascade)
	default:
		return nil, zerr.With(zerr.New("unknown intent"), "kind", string(intent.Kind))
	}
}

// request is a constraint on a package, either typed by the user or declared by a dependent.
type request struct {
	name       string
	constraint string
	// requiredBy is empty for direct targets.
	requiredBy string
}

type solver struct {
	db       *domain.InstalledDB
	universe *domain.Universe
	selected map[string]domain.Package
}

func newSolver(db *domain.InstalledDB, universe *domain.Universe) *solver {
	return &solver{
		db:       db,
		universe: universe,
		selected: make(map[string]domain.Package),
	}
}

func (r *Resolver) install(db *domain.InstalledDB, universe *domain.Universe, targets []domain.Request) (*domain.Plan, error) {
	if len(targets) == 0 {
		return nil, zerr.Wrap(domain.ErrNoTargetsSpecified, "nothing to install")
	}
	s := newSolver(db, universe)
	queue := make([]request, 0, len(targets))
	for _, t := range targets {
		if !db.Has(t.Name) && !universe.Has(t.Name) {
			return nil, zerr.With(zerr.Wrap(domain.ErrPackageNotFound, "no repository offers the package"), "package", t.Name)
		}
		queue = append(queue, request{name: t.Name, constraint: t.Constraint})
	}
	if err := s.solve(queue); err != nil {
		return nil, err
	}
	return s.plan()
}

func (r *Resolver) upgrade(db *domain.InstalledDB, universe *domain.Universe, names []string) (*domain.Plan, error) {
	if len(names) == 0 {
		names = db.Names()
	}
	s := newSolver(db, universe)
	var queue []request
	for _, name := range slices.Sorted(slices.Values(names)) {
		inst, ok := db.Get(name)
		if !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrPackageNotInstalled, "cannot upgrade"), "package", name)
		}
		// Packages no repository lists any more stay as they are.
		if !universe.Has(name) {
			continue
		}
		next, ok := s.newer(inst)
		if !ok {
			continue
		}
		s.selected[name] = next
		for _, dep := range next.Dependencies {
			queue = append(queue, request{name: dep.Name, constraint: dep.Constraint, requiredBy: next.ID()})
		}
	}
	if err := s.solve(queue); err != nil {
		return nil, err
	}
	return s.plan()
}

// newer returns the highest version above the installed one that the installed dependents accept.
func (s *solver) newer(inst domain.InstalledPackage) (domain.Package, bool) {
	for _, c := range s.universe.Candidates(inst.Name()) {
		if domain.CompareVersions(c.Version, inst.Version()) <= 0 {
			return domain.Package{}, false
		}
		if _, blocked := s.blockedBy(c); !blocked {
			return c, true
		}
	}
	return domain.Package{}, false
}

// blockedBy returns the first installed, unselected dependent whose requirement pkg violates.
func (s *solver) blockedBy(pkg domain.Package) (request, bool) {
	for _, name := range s.db.Dependents(pkg.Name) {
		if _, ok := s.selected[name]; ok {
			continue
		}
		dependent, _ := s.db.Get(name)
		for _, dep := range dependent.Package.Dependencies {
			if dep.Name == pkg.Name && !dep.Matches(pkg.Name, pkg.Version) {
				return request{name: pkg.Name, constraint: dep.Constraint, requiredBy: dependent.Package.ID()}, true
			}
		}
	}
	return request{}, false
}

// solve selects a version for every request and, transitively, for its dependencies.
// A package already installed at a satisfying version is kept.
func (s *solver) solve(queue []request) error {
	for len(queue) > 0 {
		req := queue[0]
		queue = queue[1:]

		if pkg, ok := s.selected[req.name]; ok {
			if !satisfies(pkg.Version, req.constraint) {
				return unsatisfied(req)
			}
			continue
		}
		if inst, ok := s.db.Get(req.name); ok && satisfies(inst.Version(), req.constraint) {
			continue
		}

		pkg, err := s.pick(req)
		if err != nil {
			return err
		}
		s.selected[req.name] = pkg
		for _, dep := range pkg.Dependencies {
			queue = append(queue, request{name: dep.Name, constraint: dep.Constraint, requiredBy: pkg.ID()})
		}
	}
	return nil
}

// pick returns the highest version matching req that installed dependents also accept.
func (s *solver) pick(req request) (domain.Package, error) {
	c, err := domain.ParseConstraint(req.constraint)
	if err != nil {
		return domain.Package{}, zerr.With(err, "package", req.name)
	}

	var blocker *request
	for _, pkg := range s.universe.Candidates(req.name) {
		v, err := domain.ParseVersion(pkg.Version)
		if err != nil || !c.Check(v) {
			continue
		}
		if b, blocked := s.blockedBy(pkg); blocked {
			if blocker == nil {
				blocker = &b
			}
			continue
		}
		return pkg, nil
	}
	if blocker != nil {
		return domain.Package{}, unsatisfied(*blocker)
	}
	return domain.Package{}, unsatisfied(req)
}

// final returns the package that holds name once the plan is applied.
func (s *solver) final(name string) (domain.Package, bool) {
	if pkg, ok := s.selected[name]; ok {
		return pkg, true
	}
	if inst, ok := s.db.Get(name); ok {
		return inst.Package, true
	}
	return domain.Package{}, false
}

// plan orders the selected packages and checks the resulting installed set.
func (s *solver) plan() (*domain.Plan, error) {
	g := domain.NewGraph()
	for _, name := range slices.Sorted(maps.Keys(s.selected)) {
		g.AddNode(name)
		pkg := s.selected[name]
		for _, dep := range pkg.Dependencies {
			if _, ok := s.selected[dep.Name]; ok {
				g.AddEdge(name, dep.Name)
			}
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkConflicts(g); err != nil {
		return nil, err
	}
	if err := s.checkDependencies(); err != nil {
		return nil, err
	}

	plan := &domain.Plan{}
	for name := range g.Walk() {
		pkg := s.selected[name]
		if inst, ok := s.db.Get(name); ok {
			plan.Actions = append(plan.Actions, domain.Replace(inst.Package, pkg))
			continue
		}
		plan.Actions = append(plan.Actions, domain.Install(pkg))
	}
	return plan, nil
}

// checkConflicts reports the first selected package, in install order, that conflicts
// with any other member of the resulting installed set, in either direction.
func (s *solver) checkConflicts(g *domain.Graph) error {
	members := slices.Sorted(maps.Keys(s.selected))
	for _, name := range s.db.Names() {
		if _, ok := s.selected[name]; !ok {
			members = append(members, name)
		}
	}
	slices.Sort(members)

	for name := range g.Walk() {
		pkg := s.selected[name]
		for _, other := range members {
			if other == name {
				continue
			}
			o, _ := s.final(other)
			if pkg.ConflictsWith(o.Name, o.Version) || o.ConflictsWith(pkg.Name, pkg.Version) {
				return &domain.ConflictError{Package: pkg.Name, ConflictsWith: o.Name}
			}
		}
	}
	return nil
}

// checkDependencies verifies that every selected package, and every kept package depending
// on a selected one, finds its dependencies in the resulting installed set.
func (s *solver) checkDependencies() error {
	names := slices.Sorted(maps.Keys(s.selected))
	for _, name := range s.db.Names() {
		if _, ok := s.selected[name]; ok {
			continue
		}
		inst, _ := s.db.Get(name)
		for _, dep := range inst.Package.Dependencies {
			if _, ok := s.selected[dep.Name]; ok {
				names = append(names, name)
				break
			}
		}
	}

	for _, name := range names {
		pkg, _ := s.final(name)
		for _, dep := range pkg.Dependencies {
			target, ok := s.final(dep.Name)
			if !ok || !dep.Matches(target.Name, target.Version) {
				return unsatisfied(request{name: dep.Name, constraint: dep.Constraint, requiredBy: pkg.ID()})
			}
		}
	}
	return nil
}

func (r *Resolver) remove(db *domain.InstalledDB, names []string, cascade bool) (*domain.Plan, error) {
	if len(names) == 0 {
		return nil, zerr.Wrap(domain.ErrNoTargetsSpecified, "nothing to remove")
	}
	targets := make(map[string]bool, len(names))
	for _, name := range names {
		if !db.Has(name) {
			return nil, zerr.With(zerr.Wrap(domain.ErrPackageNotInstalled, "cannot remove"), "package", name)
		}
		targets[name] = true
	}

	if !cascade {
		for _, name := range slices.Sorted(maps.Keys(targets)) {
			var blocking []string
			for _, dependent := range db.Dependents(name) {
				if !targets[dependent] {
					blocking = append(blocking, dependent)
				}
			}
			if len(blocking) > 0 {
				return nil, &domain.DependentPackageError{Target: name, Blocking: blocking}
			}
		}
	}

	queue := slices.Sorted(maps.Keys(targets))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, dependent := range db.Dependents(name) {
			if !targets[dependent] {
				targets[dependent] = true
				queue = append(queue, dependent)
			}
		}
	}

	g := domain.NewGraph()
	for _, name := range slices.Sorted(maps.Keys(targets)) {
		g.AddNode(name)
		inst, _ := db.Get(name)
		for _, dep := range inst.Package.Dependencies {
			if targets[dep.Name] {
				g.AddEdge(name, dep.Name)
			}
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	plan := &domain.Plan{}
	for name := range g.WalkReverse() {
		inst, _ := db.Get(name)
		plan.Actions = append(plan.Actions, domain.Remove(inst.Package))
	}
	return plan, nil
}

func satisfies(version, constraint string) bool {
	ok, err := domain.Satisfies(version, constraint)
	return err == nil && ok
}

func unsatisfied(req request) error {
	return &domain.UnsatisfiedDependencyError{Name: req.name, Constraint: req.constraint, RequiredBy: req.requiredBy}
}
