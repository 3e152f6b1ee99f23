package domain

import (
	"maps"
	"slices"
)

// Snapshot is the result of fetching one repository's listing.
// Err is set when the fetch failed, in which case Listing is ignored.
type Snapshot struct {
	Repository RepositoryDescriptor
	Listing    Listing
	Err        error
}

// SyncReport records the outcome of a sync per repository.
type SyncReport struct {
	Updated []string
	Failed  map[string]error
}

// FailedNames returns the names of repositories that kept their previous snapshot, sorted.
func (r *SyncReport) FailedNames() []string {
	return slices.Sorted(maps.Keys(r.Failed))
}

// OK reports whether every repository was updated.
func (r *SyncReport) OK() bool {
	return len(r.Failed) == 0
}
