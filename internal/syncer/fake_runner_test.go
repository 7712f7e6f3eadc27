package syncer

import (
	"context"
	"fmt"
	"strings"

	autosyncerrors "github.com/mrz1836/autosync/internal/errors"
	"github.com/mrz1836/autosync/internal/git"
)

// fakeRunner is a stateful git.Runner: Commit moves HEAD and clears the
// index, Push records calls and answers through pushFn.
type fakeRunner struct {
	calls []string

	branch           string
	head             string
	staged           bool
	unmerged         int
	rebaseUnmerged   int
	rebaseInProgress bool
	remoteURL        string
	remoteBranch     bool
	commitCount      int

	addErr    error
	commitErr error
	fetchErr  error
	rebaseErr error

	pushFn        func(call int, remote, branch string, setUpstream bool) (*git.PushReport, error)
	pushCalls     int
	lastUpstream  bool
	commitMessage string
}

var _ git.Runner = (*fakeRunner)(nil)

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		branch:       "master",
		head:         strings.Repeat("a", 40),
		remoteURL:    "https://example.com/old.git",
		remoteBranch: true,
	}
}

func (f *fakeRunner) record(call string) { f.calls = append(f.calls, call) }

func (f *fakeRunner) called(call string) bool {
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeRunner) WorkDir() string { return "/repo" }

func (f *fakeRunner) Status(context.Context) (*git.Status, error) {
	f.record("status")
	st := &git.Status{Branch: f.branch}
	for i := 0; i < f.unmerged; i++ {
		st.Unmerged = append(st.Unmerged, fmt.Sprintf("file%d.txt", i))
	}
	return st, nil
}

func (f *fakeRunner) Add(context.Context, []string) error {
	f.record("add")
	return f.addErr
}

func (f *fakeRunner) HasStagedChanges(context.Context) (bool, error) {
	f.record("diff")
	return f.staged, nil
}

func (f *fakeRunner) Commit(_ context.Context, message string) error {
	f.record("commit")
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commitCount++
	f.commitMessage = message
	f.head = strings.Repeat(fmt.Sprint(f.commitCount%10), 40)
	f.staged = false
	return nil
}

func (f *fakeRunner) Push(_ context.Context, remote, branch string, setUpstream bool) (*git.PushReport, error) {
	f.record("push")
	f.pushCalls++
	f.lastUpstream = setUpstream
	if f.pushFn != nil {
		return f.pushFn(f.pushCalls, remote, branch, setUpstream)
	}
	return fastForward(branch), nil
}

func (f *fakeRunner) CurrentBranch(context.Context) (string, error) {
	f.record("symbolic-ref")
	return f.branch, nil
}

func (f *fakeRunner) HeadSHA(context.Context) (string, error) { return f.head, nil }

func (f *fakeRunner) RemoteURL(context.Context, string) (string, error) { return f.remoteURL, nil }

func (f *fakeRunner) SetRemoteURL(_ context.Context, _, url string) (bool, error) {
	f.record("set-url")
	changed := f.remoteURL != url
	f.remoteURL = url
	return changed, nil
}

func (f *fakeRunner) Fetch(context.Context, string) error {
	f.record("fetch")
	return f.fetchErr
}

func (f *fakeRunner) RemoteBranchExists(context.Context, string, string) (bool, error) {
	return f.remoteBranch, nil
}

func (f *fakeRunner) Rebase(_ context.Context, onto string) error {
	f.record("rebase " + onto)
	if f.rebaseErr != nil {
		f.rebaseInProgress = true
		return f.rebaseErr
	}
	f.unmerged = f.rebaseUnmerged
	return nil
}


func (f *fakeRunner) IsRebaseInProgress(context.Context) (bool, error) {
	return f.rebaseInProgress, nil
}

func upToDate(branch string) *git.PushReport {
	ref := "refs/heads/" + branch
	return &git.PushReport{Refs: []git.RefUpdate{{Local: ref, Remote: ref, Status: git.RefUpToDate}}}
}

func fastForward(branch string) *git.PushReport {
	ref := "refs/heads/" + branch
	return &git.PushReport{Refs: []git.RefUpdate{{Local: ref, Remote: ref, Status: git.RefFastForward}}}
}

func rejected(branch string) (*git.PushReport, error) {
	ref := "refs/heads/" + branch
	report := &git.PushReport{Refs: []git.RefUpdate{{Local: ref, Remote: ref, Status: git.RefRejected, Reason: "fetch first"}}}
	return report, fmt.Errorf("push of %s rejected (fetch first): %w", branch, autosyncerrors.ErrPushRejected)
}
