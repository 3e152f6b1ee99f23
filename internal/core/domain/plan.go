package domain

import "iter"

// ActionKind is the kind of change an action applies.
type ActionKind string

const (
	// ActionInstall installs a package that is not currently installed.
	ActionInstall ActionKind = "install"
	// ActionRemove removes an installed package.
	ActionRemove ActionKind = "remove"
	// ActionReplace swaps an installed version for another.
	ActionReplace ActionKind = "replace"
)

// Action is a single step of a resolution plan.
type Action struct {
	Kind ActionKind `json:"kind"`

	// Name is the package the action applies to.
	Name string `json:"name"`

	// Package is the version being installed. Unset for removals.
	Package *Package `json:"package,omitempty"`

	// Previous is the installed version being replaced or removed.
	Previous *Package `json:"previous,omitempty"`
}

// Install creates an install action.
func Install(p Package) Action {
	return Action{Kind: ActionInstall, Name: p.Name, Package: &p}
}

// Remove creates a removal action.
func Remove(p Package) Action {
	return Action{Kind: ActionRemove, Name: p.Name, Previous: &p}
}

// Replace creates a replace action.
func Replace(old, next Package) Action {
	return Action{Kind: ActionReplace, Name: next.Name, Package: &next, Previous: &old}
}

// NeedsArchive reports whether the action installs content.
func (a Action) NeedsArchive() bool {
	return a.Kind == ActionInstall || a.Kind == ActionReplace
}

func (a Action) String() string {
	switch a.Kind {
	case ActionInstall:
		return "install " + a.Package.ID()
	case ActionReplace:
		return "replace " + a.Previous.ID() + " with " + a.Package.Version
	case ActionRemove:
		if a.Previous != nil {
			return "remove " + a.Previous.ID()
		}
		return "remove " + a.Name
	default:
		return string(a.Kind) + " " + a.Name
	}
}

// Plan is an ordered sequence of actions. Removals come first, dependents before
// their dependencies; installs and replaces follow, dependencies before dependents.
type Plan struct {
	Actions []Action `json:"actions"`
}

// Empty reports whether the plan has nothing to do.
func (p *Plan) Empty() bool {
	return len(p.Actions) == 0
}

// Len returns the number of actions.
func (p *Plan) Len() int {
	return len(p.Actions)
}

// Walk yields the actions in order.
func (p *Plan) Walk() iter.Seq2[int, Action] {
	return func(yield func(int, Action) bool) {
		for i, a := range p.Actions {
			if !yield(i, a) {
				return
			}
		}
	}
}

// Installs returns the actions that install content.
func (p *Plan) Installs() []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.NeedsArchive() {
			out = append(out, a)
		}
	}
	return out
}
