// Package git provides the git operations autosync runs against a checkout.
// This file parses `git push --porcelain` output.
package git

import "strings"

// RefStatus is the outcome git reported for one pushed ref.
type RefStatus string

// Ref statuses, keyed off the porcelain flag character.
const (
	RefUpToDate    RefStatus = "up_to_date"
	RefFastForward RefStatus = "fast_forward"
	RefForced      RefStatus = "forced"
	RefNew         RefStatus = "new"
	RefDeleted     RefStatus = "deleted"
	RefRejected    RefStatus = "rejected"
	RefError       RefStatus = "error"
)

// RefUpdate is one ref line of porcelain push output:
//
//	<flag> \t <from>:<to> \t <summary> (<reason>)
type RefUpdate struct {
	Local   string    `json:"local"`
	Remote  string    `json:"remote"`
	Status  RefStatus `json:"status"`
	Summary string    `json:"summary,omitempty"`
	Reason  string    `json:"reason,omitempty"`
}

// PushReport is the parsed result of one push invocation.
type PushReport struct {
	Destination string      `json:"destination,omitempty"`
	Refs        []RefUpdate `json:"refs"`
}

// UpToDate reports whether the push transferred nothing.
func (p *PushReport) UpToDate() bool {
	if p == nil {
		return false
	}
	for _, ref := range p.Refs {
		if ref.Status != RefUpToDate {
			return false
		}
	}
	return true
}

// Updated reports whether at least one remote ref moved.
func (p *PushReport) Updated() bool {
	if p == nil {
		return false
	}
	for _, ref := range p.Refs {
		switch ref.Status {
		case RefFastForward, RefForced, RefNew:
			return true
		case RefUpToDate, RefDeleted, RefRejected, RefError:
		}
	}
	return false
}

// Rejected returns the first ref the remote refused.
func (p *PushReport) Rejected() (RefUpdate, bool) {
	if p == nil {
		return RefUpdate{}, false
	}
	for _, ref := range p.Refs {
		if ref.Status == RefRejected {
			return ref, true
		}
	}
	return RefUpdate{}, false
}

// ParsePushPorcelain parses the stdout of `git push --porcelain`.
// Unknown lines ("Done", hints) are ignored.
func ParsePushPorcelain(output string) *PushReport {
	report := &PushReport{Refs: []RefUpdate{}}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "To ") {
			report.Destination = strings.TrimPrefix(line, "To ")
			continue
		}
		if ref, ok := parseRefLine(line); ok {
			report.Refs = append(report.Refs, ref)
		}
	}

	return report
}

func parseRefLine(line string) (RefUpdate, bool) {
	fields := strings.SplitN(line, "\t", 3)
	if len(fields) < 2 || len(fields[0]) != 1 {
		return RefUpdate{}, false
	}

	ref := RefUpdate{}
	if from, to, ok := strings.Cut(fields[1], ":"); ok {
		ref.Local, ref.Remote = from, to
	} else {
		ref.Remote = fields[1]
	}

	if len(fields) == 3 {
		ref.Summary = fields[2]
		if open := strings.Index(fields[2], " ("); open != -1 && strings.HasSuffix(fields[2], ")") {
			ref.Summary = fields[2][:open]
			ref.Reason = fields[2][open+2 : len(fields[2])-1]
		}
	}

	switch fields[0][0] {
	case '=':
		ref.Status = RefUpToDate
	case ' ':
		ref.Status = RefFastForward
	case '+':
		ref.Status = RefForced
	case '*':
		ref.Status = RefNew
	case '-':
		ref.Status = RefDeleted
	case '!':
		// "[rejected]" is a non-fast-forward refusal; "[remote rejected]" is a hook or permission failure.
		if strings.HasPrefix(ref.Summary, "[rejected]") {
			ref.Status = RefRejected
		} else {
			ref.Status = RefError
		}
	default:
		return RefUpdate{}, false
	}

	return ref, true
}
