package body

import (
	"errors"
	"fmt"
)

// Configuration errors. Only ErrNoReference and ErrMultipleReferences are
// fatal to catalog construction.
var (
	ErrInvalidOrbitSpec   = errors.New("invalid orbit spec")
	ErrMissingPrimary     = errors.New("missing primary")
	ErrCyclicHierarchy    = errors.New("cyclic hierarchy")
	ErrNoReference        = errors.New("no reference body")
	ErrMultipleReferences = errors.New("multiple reference bodies")
	ErrDuplicateID        = errors.New("duplicate body id")
	ErrClamped            = errors.New("value clamped")
)

// Severity of a reported issue.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Issue is a single clamp, skip or exclusion observed by the engine.
type Issue struct {
	Severity Severity
	BodyID   string
	Err      error
}

func (i Issue) String() string {
	if i.BodyID == "" {
		return fmt.Sprintf("%s: %v", i.Severity, i.Err)
	}
	return fmt.Sprintf("%s: %s: %v", i.Severity, i.BodyID, i.Err)
}

// Kind returns a short label for the sentinel the issue wraps.
func (i Issue) Kind() string {
	switch {
	case errors.Is(i.Err, ErrInvalidOrbitSpec):
		return "invalid_orbit"
	case errors.Is(i.Err, ErrCyclicHierarchy):
		return "cyclic_hierarchy"
	case errors.Is(i.Err, ErrMissingPrimary):
		return "missing_primary"
	case errors.Is(i.Err, ErrDuplicateID):
		return "duplicate_id"
	case errors.Is(i.Err, ErrClamped):
		return "clamped"
	default:
		return "other"
	}
}

// Reporter receives issues. Implementations must not block.
type Reporter interface {
	Report(Issue)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Issue)

func (f ReporterFunc) Report(i Issue) { f(i) }

// Discard drops every issue.
var Discard Reporter = ReporterFunc(func(Issue) {})

// IssueList collects issues in order.
type IssueList struct {
	Issues []Issue
}

func (l *IssueList) Report(i Issue) {
	l.Issues = append(l.Issues, i)
}

// Has reports whether an issue for id wrapping target was collected.
func (l *IssueList) Has(id string, target error) bool {
	for _, i := range l.Issues {
		if i.BodyID == id && errors.Is(i.Err, target) {
			return true
		}
	}
	return false
}

// Tee fans an issue out to several reporters. Nil entries are skipped.
func Tee(rs ...Reporter) Reporter {
	return ReporterFunc(func(i Issue) {
		for _, r := range rs {
			if r != nil {
				r.Report(i)
			}
		}
	})
}
