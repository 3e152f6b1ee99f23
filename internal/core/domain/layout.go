package domain

import "path/filepath"

const (
	// DefaultRoot is the directory packages are installed into.
	DefaultRoot = "/"

	// DefaultStateDir holds the installed database, repository caches and staging areas.
	DefaultStateDir = "/var/lib/gany"

	// DefaultConfigPath is the system-wide configuration file.
	DefaultConfigPath = "/etc/gany/gany.yaml"

	// ReposFileName is the name of the repository descriptor list.
	ReposFileName = "repos.yaml"

	// ReposDirName is the directory holding cached repository listings.
	ReposDirName = "repos"

	// ListingExt is the extension of a cached repository listing.
	ListingExt = ".cbor"

	// IndexFileName is the listing file published at a repository address.
	IndexFileName = "index.cbor"

	// InstalledFileName is the name of the installed package database.
	InstalledFileName = "installed.json"

	// JournalFileName records the last transaction.
	JournalFileName = "journal.json"

	// StagingDirName is the directory holding per-transaction staging areas.
	StagingDirName = "staging"

	// LockFileName is the system-wide transaction lock.
	LockFileName = "lock"

	// ManifestFileName is the manifest inside a package source tree.
	ManifestFileName = "manifest.yaml"

	// SourceDirName is the directory of a package source tree that is archived.
	SourceDirName = "src"

	// ArchiveExt is the extension of a package archive.
	ArchiveExt = ".gany"

	// InfoExt is the extension of a binary package manifest.
	InfoExt = ".ganyinf"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// InstallDirPerm is the permission for directories created below the install root (rwxr-xr-x).
	InstallDirPerm = 0o755

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// ReposFilePath returns the path of the repository descriptor list under stateDir.
func ReposFilePath(stateDir string) string {
	return filepath.Join(stateDir, ReposFileName)
}

// ListingPath returns the path of the cached listing of the named repository.
func ListingPath(stateDir, repo string) string {
	return filepath.Join(stateDir, ReposDirName, repo+ListingExt)
}

// InstalledPath returns the path of the installed package database.
func InstalledPath(stateDir string) string {
	return filepath.Join(stateDir, InstalledFileName)
}

// JournalPath returns the path of the transaction journal.
func JournalPath(stateDir string) string {
	return filepath.Join(stateDir, JournalFileName)
}

// StagingPath returns the staging area of a transaction.
func StagingPath(stateDir, txID string) string {
	return filepath.Join(stateDir, StagingDirName, txID)
}

// LockPath returns the path of the system-wide lock file.
func LockPath(stateDir string) string {
	return filepath.Join(stateDir, LockFileName)
}

// ArchiveFileName returns the archive file name of a package.
func ArchiveFileName(name, version string) string {
	return name + "-" + version + ArchiveExt
}

// InfoFileName returns the binary manifest file name of a package.
func InfoFileName(name, version string) string {
	return name + "-" + version + InfoExt
}
