package domain

import "io/fs"

// StagedFile is an entry extracted from an archive into a staging area.
type StagedFile struct {
	// Path is slash separated and relative to the staging directory.
	Path string
	Mode fs.FileMode
	// Link is the target of a symbolic link.
	Link string
	Size int64
}

// FileSet is the content of an extracted archive.
type FileSet struct {
	// Dir is the staging directory the files were extracted into.
	Dir   string
	Files []StagedFile
}

// Paths returns the staged paths in archive order.
func (s *FileSet) Paths() []string {
	out := make([]string, len(s.Files))
	for i, f := range s.Files {
		out[i] = f.Path
	}
	return out
}

// StagedPackage is a verified package waiting in staging to be committed.
type StagedPackage struct {
	Package Package
	Content FileSet
}

// FileIssue describes an installed file that no longer matches the database.
type FileIssue struct {
	Package string `json:"package"`
	Path    string `json:"path"`
	Problem string `json:"problem"`
}

const (
	// IssueMissing marks a regular owned file that is absent from disk.
	IssueMissing = "missing"
	// IssueModified marks a file whose content changed since install.
	IssueModified = "modified"
)
