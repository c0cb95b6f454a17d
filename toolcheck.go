package angrnative

import (
	"github.com/cockroachdb/errors"
)

// ToolStatus describes whether a build tool candidate can be started.
type ToolStatus struct {
	Candidate Candidate
	Path      string // Resolved executable, empty when missing
	Err       error  // Lookup error when missing
}

// Available reports whether the candidate's executable was found.
func (s ToolStatus) Available() bool {
	return s.Err == nil
}

// CheckCandidates looks up every candidate's executable without running it.
//
// The report is advisory: Dispatch decides availability by starting the
// program, which also catches executables that are found but cannot run.
func CheckCandidates(candidates []Candidate) []ToolStatus {
	statuses := make([]ToolStatus, 0, len(candidates))
	for _, c := range candidates {
		status := ToolStatus{Candidate: c}
		if len(c) == 0 {
			status.Err = errors.New("empty build command")
			statuses = append(statuses, status)
			continue
		}
		path, err := execLookPath(c.Program())
		if err != nil {
			status.Err = errors.Newf("%s not found in PATH", c.Program())
		} else {
			status.Path = path
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// FirstAvailable returns the first candidate whose executable is found, or nil.
func FirstAvailable(candidates []Candidate) Candidate {
	for _, s := range CheckCandidates(candidates) {
		if s.Available() {
			return s.Candidate
		}
	}
	return nil
}
