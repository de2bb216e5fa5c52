// Package vmerr implements the structured error taxonomy of the pipeline:
// SchemaError, ReferenceError, ConstraintError, MethodConfigError,
// TieError, ContiguityError and DeterminismError. QuorumError is
// deliberately absent here - a quorum failure is recorded as a gate
// result, never returned as a Go error.
package vmerr

import (
	"fmt"
	"sort"
)

// Kind names a taxonomy bucket. These are semantic labels, not Go types -
// every Issue carries one.
type Kind string

const (
	SchemaError       Kind = "SchemaError"
	ReferenceError    Kind = "ReferenceError"
	ConstraintError   Kind = "ConstraintError"
	MethodConfigError Kind = "MethodConfigError"
	TieError          Kind = "TieError"
	ContiguityError   Kind = "ContiguityError"
	DeterminismError  Kind = "DeterminismError"
)

// Issue is one accumulated validation or runtime failure. VarID and Token
// give the sort key the loader uses to report issues deterministically;
// UnitID is set when the issue is scoped to a single unit.
type Issue struct {
	Kind    Kind
	VarID   string // e.g. "VM-VAR-013", empty if not variable-scoped
	Token   string // symbolic token, e.g. "magnitude_lt_one"
	UnitID  string
	Message string
}

func (i Issue) Error() string {
	if i.UnitID != "" {
		return fmt.Sprintf("%s[%s/%s unit=%s]: %s", i.Kind, i.VarID, i.Token, i.UnitID, i.Message)
	}
	return fmt.Sprintf("%s[%s/%s]: %s", i.Kind, i.VarID, i.Token, i.Message)
}

// IssueList accumulates every failure found during validation; validation
// never short-circuits on the first error (spec.md SS4.6, SS7).
type IssueList struct {
	issues []Issue
}

// Add appends an issue. Safe to call repeatedly; nil-safe on a zero value.
func (l *IssueList) Add(issue Issue) {
	l.issues = append(l.issues, issue)
}

// Addf is a convenience constructor for Add.
func (l *IssueList) Addf(kind Kind, varID, token, unitID, format string, args ...interface{}) {
	l.Add(Issue{Kind: kind, VarID: varID, Token: token, UnitID: unitID, Message: fmt.Sprintf(format, args...)})
}

// Empty reports whether no issues were accumulated.
func (l *IssueList) Empty() bool { return len(l.issues) == 0 }

// Len returns the number of accumulated issues.
func (l *IssueList) Len() int { return len(l.issues) }

// Sort orders issues ascending by (VarID, Token) per spec.md SS4.6/SS7 and
// returns the sorted slice. The receiver's internal order is also updated.
func (l *IssueList) Sort() []Issue {
	sort.SliceStable(l.issues, func(i, j int) bool {
		a, b := l.issues[i], l.issues[j]
		if a.VarID != b.VarID {
			return a.VarID < b.VarID
		}
		return a.Token < b.Token
	})
	return l.issues
}

// Issues returns the accumulated issues without sorting.
func (l *IssueList) Issues() []Issue {
	return l.issues
}

// Error implements the error interface so an IssueList can be returned or
// wrapped directly; it reports the sorted issue list.
func (l *IssueList) Error() string {
	sorted := l.Sort()
	s := fmt.Sprintf("%d issue(s):", len(sorted))
	for _, issue := range sorted {
		s += "\n\t* " + issue.Error()
	}
	return s
}
