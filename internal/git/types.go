// Package git provides the git operations autosync runs against a checkout.
// This file defines types used by the Runner.
package git

// Status represents the current state of a Git working tree.
type Status struct {
	Staged    []FileChange // Files staged for commit
	Unstaged  []FileChange // Modified but not staged
	Untracked []string     // Untracked files
	Unmerged  []string     // Paths with unresolved conflicts
	Branch    string       // Current branch name, empty when detached
	Upstream  string       // Tracking branch, e.g. origin/master
	Detached  bool         // HEAD is not on a branch
	Ahead     int          // Commits ahead of upstream
	Behind    int          // Commits behind upstream
}

// FileChange represents a changed file in the working tree.
type FileChange struct {
	Path    string     // File path relative to repo root
	Status  ChangeType // Type of change (Added, Modified, Deleted, etc.)
	OldPath string     // For renamed files, the original path
}

// ChangeType represents the type of change for a file.
type ChangeType string

// Change type constants for git status.
const (
	ChangeAdded    ChangeType = "A"
	ChangeModified ChangeType = "M"
	ChangeDeleted  ChangeType = "D"
	ChangeRenamed  ChangeType = "R"
	ChangeCopied   ChangeType = "C"
)

// IsClean returns true if the working tree has no changes.
func (s *Status) IsClean() bool {
	return len(s.Staged) == 0 && len(s.Unstaged) == 0 && len(s.Untracked) == 0 && len(s.Unmerged) == 0
}

// HasStagedChanges returns true if there are staged changes ready to commit.
func (s *Status) HasStagedChanges() bool {
	return len(s.Staged) > 0
}

// HasConflicts returns true if any path is unmerged.
func (s *Status) HasConflicts() bool {
	return len(s.Unmerged) > 0
}

// ChangedCount is the number of distinct paths with any pending change.
func (s *Status) ChangedCount() int {
	seen := make(map[string]struct{}, len(s.Staged)+len(s.Unstaged)+len(s.Untracked))
	for _, c := range s.Staged {
		seen[c.Path] = struct{}{}
	}
	for _, c := range s.Unstaged {
		seen[c.Path] = struct{}{}
	}
	for _, p := range s.Untracked {
		seen[p] = struct{}{}
	}
	for _, p := range s.Unmerged {
		seen[p] = struct{}{}
	}
	return len(seen)
}
