package domain

// IntentKind is what a user asked the engine to do.
type IntentKind string

const (
	// IntentInstall installs packages and their dependencies.
	IntentInstall IntentKind = "install"
	// IntentUpgrade upgrades named packages, or every installed package when none is named.
	IntentUpgrade IntentKind = "upgrade"
	// IntentRemove removes packages.
	IntentRemove IntentKind = "remove"
)

// Intent is the input of the resolver.
type Intent struct {
	Kind    IntentKind `json:"kind"`
	Targets []Request  `json:"targets,omitempty"`

	// Cascade extends a removal to every installed package depending on the targets.
	Cascade bool `json:"cascade,omitempty"`
}

// InstallIntent builds an install intent.
func InstallIntent(targets ...Request) Intent {
	return Intent{Kind: IntentInstall, Targets: targets}
}

// UpgradeIntent builds an upgrade intent. No names means upgrade everything.
func UpgradeIntent(names ...string) Intent {
	i := Intent{Kind: IntentUpgrade}
	for _, n := range names {
		i.Targets = append(i.Targets, Request{Name: n})
	}
	return i
}

// RemoveIntent builds a removal intent.
func RemoveIntent(cascade bool, names ...string) Intent {
	i := Intent{Kind: IntentRemove, Cascade: cascade}
	for _, n := range names {
		i.Targets = append(i.Targets, Request{Name: n})
	}
	return i
}

// Names returns the target package names.
func (i Intent) Names() []string {
	out := make([]string, len(i.Targets))
	for idx, t := range i.Targets {
		out[idx] = t.Name
	}
	return out
}
