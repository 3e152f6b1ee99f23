package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

var (
	// ErrDuplicateRepository is returned when a repository name is already registered.
	ErrDuplicateRepository = zerr.New("repository already exists")

	// ErrInvalidAddress is returned when a repository address cannot be parsed.
	ErrInvalidAddress = zerr.New("invalid repository address")

	// ErrRepositoryNotFound is returned when a named repository is not configured.
	ErrRepositoryNotFound = zerr.New("repository not found")

	// ErrStoreCorruption is returned when persisted state cannot be decoded.
	ErrStoreCorruption = zerr.New("store corruption")

	// ErrCyclicDependency is returned when the dependency graph contains a cycle.
	ErrCyclicDependency = zerr.New("cyclic dependency")

	// ErrUnsatisfiedDependency is returned when no known version satisfies a constraint.
	ErrUnsatisfiedDependency = zerr.New("unsatisfied dependency")

	// ErrDependentPackage is returned when removing a package that installed packages still require.
	ErrDependentPackage = zerr.New("package is required by installed packages")

	// ErrPackageConflict is returned when two packages of the resulting set declare a conflict.
	ErrPackageConflict = zerr.New("package conflict")

	// ErrFileConflict is returned when a path is already owned by another package.
	ErrFileConflict = zerr.New("file conflict")

	// ErrIntegrity is returned when an archive digest does not match the expected digest.
	ErrIntegrity = zerr.New("integrity check failed")

	// ErrCorruptArchive is returned when an archive cannot be decompressed or unpacked.
	ErrCorruptArchive = zerr.New("corrupt archive")

	// ErrWrite is returned when a file cannot be written atomically.
	ErrWrite = zerr.New("write failed")

	// ErrPartialCommit is returned when a transaction failed after some actions were applied.
	ErrPartialCommit = zerr.New("transaction partially committed")

	// ErrPackageNotFound is returned when no repository offers the requested package.
	ErrPackageNotFound = zerr.New("package not found")

	// ErrPackageNotInstalled is returned when an operation targets a package that is not installed.
	ErrPackageNotInstalled = zerr.New("package not installed")

	// ErrInvalidManifest is returned when a package manifest fails validation.
	ErrInvalidManifest = zerr.New("invalid package manifest")

	// ErrInvalidVersion is returned when a version or constraint cannot be parsed.
	ErrInvalidVersion = zerr.New("invalid version")

	// ErrInvalidDigest is returned when a digest string cannot be parsed.
	ErrInvalidDigest = zerr.New("invalid digest")

	// ErrUnsupportedAlgorithm is returned when a digest or compression algorithm is unknown.
	ErrUnsupportedAlgorithm = zerr.New("unsupported algorithm")

	// ErrStagingFailed is returned when staging a transaction failed and was rolled back.
	ErrStagingFailed = zerr.New("staging failed, transaction rolled back")

	// ErrFetchFailed is returned when a listing or archive could not be fetched.
	ErrFetchFailed = zerr.New("fetch failed")

	// ErrLocked is returned when another process holds the system lock.
	ErrLocked = zerr.New("another transaction is in progress")

	// ErrInvalidTransition is returned when a transaction moves to a state it cannot reach.
	ErrInvalidTransition = zerr.New("invalid transaction state transition")

	// ErrInvalidConfig is returned when the configuration file fails validation.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrNoTargetsSpecified is returned when an intent names no packages.
	ErrNoTargetsSpecified = zerr.New("no packages specified")

	// ErrVerificationFailed is returned when installed files no longer match the database.
	ErrVerificationFailed = zerr.New("verification failed")
)

// CyclicDependencyError reports the packages forming a dependency cycle.
// The first and last element of Cycle are the same package.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return ErrCyclicDependency.Error() + ": " + strings.Join(e.Cycle, " -> ")
}

func (e *CyclicDependencyError) Unwrap() error { return ErrCyclicDependency }

// UnsatisfiedDependencyError reports a dependency for which no version could be selected.
type UnsatisfiedDependencyError struct {
	Name       string
	Constraint string
	// RequiredBy is empty for packages requested directly.
	RequiredBy string
}

func (e *UnsatisfiedDependencyError) Error() string {
	msg := ErrUnsatisfiedDependency.Error() + ": " + e.Name
	if e.Constraint != "" && e.Constraint != AnyVersion {
		msg += " " + e.Constraint
	}
	if e.RequiredBy != "" {
		msg += " (required by " + e.RequiredBy + ")"
	}
	return msg
}

func (e *UnsatisfiedDependencyError) Unwrap() error { return ErrUnsatisfiedDependency }

// DependentPackageError lists the installed packages blocking a removal.
type DependentPackageError struct {
	Target   string
	Blocking []string
}

func (e *DependentPackageError) Error() string {
	return ErrDependentPackage.Error() + ": " + e.Target + " is required by " + strings.Join(e.Blocking, ", ")
}

func (e *DependentPackageError) Unwrap() error { return ErrDependentPackage }

// ConflictError reports two packages that cannot be installed together.
type ConflictError struct {
	Package       string
	ConflictsWith string
}

func (e *ConflictError) Error() string {
	return ErrPackageConflict.Error() + ": " + e.Package + " conflicts with " + e.ConflictsWith
}

func (e *ConflictError) Unwrap() error { return ErrPackageConflict }

// FileConflictError reports a path claimed by a package while owned by another.
// Owner is empty when the path exists on disk without belonging to any package.
type FileConflictError struct {
	Path    string
	Package string
	Owner   string
}

func (e *FileConflictError) Error() string {
	owner := e.Owner
	if owner == "" {
		owner = "an unmanaged file"
	}
	return ErrFileConflict.Error() + ": " + e.Path + " of " + e.Package + " is owned by " + owner
}

func (e *FileConflictError) Unwrap() error { return ErrFileConflict }

// StagingError aggregates every failure that caused a transaction to be rolled back.
type StagingError struct {
	Errs []error
}

func (e *StagingError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return ErrStagingFailed.Error() + ": " + strings.Join(msgs, "; ")
}

// Unwrap exposes the sentinel and every underlying failure.
func (e *StagingError) Unwrap() []error {
	return append([]error{ErrStagingFailed}, e.Errs...)
}

// PartialCommitError reports which plan actions were applied before a commit failed.
type PartialCommitError struct {
	Completed []Action
	Failed    []Action
	Err       error
}

func (e *PartialCommitError) Error() string {
	completed := make([]string, 0, len(e.Completed))
	for _, a := range e.Completed {
		completed = append(completed, a.String())
	}
	failed := make([]string, 0, len(e.Failed))
	for _, a := range e.Failed {
		failed = append(failed, a.String())
	}
	msg := ErrPartialCommit.Error() + ": completed [" + strings.Join(completed, ", ") +
		"], failed [" + strings.Join(failed, ", ") + "]"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *PartialCommitError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPartialCommit}
	}
	return []error{ErrPartialCommit, e.Err}
}
