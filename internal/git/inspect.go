// Package git provides the git operations autosync runs against a checkout.
// This file reads repository state in-process with go-git, without spawning git.
package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	autosyncerrors "github.com/mrz1836/autosync/internal/errors"
)

// maxWalk bounds the ahead/behind commit walk.
const maxWalk = 10000

// Snapshot is a read-only view of the refs a sync run cares about.
type Snapshot struct {
	Branch       string   `json:"branch"`
	Detached     bool     `json:"detached"`
	Head         string   `json:"head,omitempty"`
	Remote       string   `json:"remote"`
	RemoteURLs   []string `json:"remote_urls,omitempty"`
	TrackingHead string   `json:"tracking_head,omitempty"`
	// Ahead and Behind are -1 when unknown (no tracking ref, or the walk was too long).
	Ahead  int `json:"ahead"`
	Behind int `json:"behind"`
}

// Inspect opens the repository containing path and reports its branch, HEAD,
// remote binding and position relative to the remote-tracking branch.
func Inspect(path, remote string) (*Snapshot, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", autosyncerrors.ErrNotGitRepo, err)
	}

	snap := &Snapshot{Remote: remote, Ahead: -1, Behind: -1}

	headRef, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return nil, fmt.Errorf("failed to read HEAD: %w", err)
	}
	if headRef.Type() == plumbing.SymbolicReference {
		snap.Branch = headRef.Target().Short()
	} else {
		snap.Detached = true
	}

	var headHash plumbing.Hash
	if resolved, err := repo.Head(); err == nil {
		headHash = resolved.Hash()
		snap.Head = headHash.String()
	} else if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	if r, err := repo.Remote(remote); err == nil {
		snap.RemoteURLs = r.Config().URLs
	} else if !errors.Is(err, gogit.ErrRemoteNotFound) {
		return nil, fmt.Errorf("failed to read remote %s: %w", remote, err)
	}

	if snap.Branch == "" {
		return snap, nil
	}

	tracking, err := repo.Reference(plumbing.NewRemoteReferenceName(remote, snap.Branch), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return snap, nil
		}
		return nil, fmt.Errorf("failed to read tracking ref: %w", err)
	}
	snap.TrackingHead = tracking.Hash().String()

	if headHash.IsZero() {
		return snap, nil
	}

	ahead, behind, err := divergence(repo, headHash, tracking.Hash())
	if err == nil {
		snap.Ahead, snap.Behind = ahead, behind
	}

	return snap, nil
}

// divergence counts commits on each side of the merge base of local and upstream.
func divergence(repo *gogit.Repository, local, upstream plumbing.Hash) (int, int, error) {
	if local == upstream {
		return 0, 0, nil
	}

	localCommit, err := repo.CommitObject(local)
	if err != nil {
		return 0, 0, err
	}
	upstreamCommit, err := repo.CommitObject(upstream)
	if err != nil {
		return 0, 0, err
	}

	bases, err := localCommit.MergeBase(upstreamCommit)
	if err != nil {
		return 0, 0, err
	}
	stop := make(map[plumbing.Hash]struct{}, len(bases))
	for _, b := range bases {
		stop[b.Hash] = struct{}{}
	}

	ahead, err := countUntil(repo, localCommit, stop)
	if err != nil {
		return 0, 0, err
	}
	behind, err := countUntil(repo, upstreamCommit, stop)
	if err != nil {
		return 0, 0, err
	}
	return ahead, behind, nil
}

// countUntil walks parents breadth-first from start and counts commits not in stop.
func countUntil(repo *gogit.Repository, start *object.Commit, stop map[plumbing.Hash]struct{}) (int, error) {
	visited := map[plumbing.Hash]struct{}{}
	queue := []plumbing.Hash{start.Hash}

	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]

		if _, done := stop[hash]; done {
			continue
		}
		if _, seen := visited[hash]; seen {
			continue
		}
		visited[hash] = struct{}{}
		if len(visited) > maxWalk {
			return 0, fmt.Errorf("history walk exceeded %d commits", maxWalk)
		}

		commit, err := repo.CommitObject(hash)
		if err != nil {
			return 0, err
		}
		queue = append(queue, commit.ParentHashes...)
	}

	return len(visited), nil
}
