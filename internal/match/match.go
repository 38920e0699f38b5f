// Package match submits recorded humming to the remote matcher and resolves
// the returned track identifiers against the catalog.
package match

import (
	"errors"
	"fmt"

	"github.com/llehouerou/humdrum/internal/catalog"
)

// Status classifies a completed submission.
type Status int

const (
	// StatusMatched means at least one candidate resolved to a song.
	StatusMatched Status = iota
	// StatusEmpty means the matcher returned no candidates.
	StatusEmpty
	// StatusRecognizedButAbsent means the matcher returned candidates but
	// none of them exist in the catalog.
	StatusRecognizedButAbsent
)

func (s Status) String() string {
	switch s {
	case StatusMatched:
		return "Matched"
	case StatusEmpty:
		return "EmptyMatch"
	case StatusRecognizedButAbsent:
		return "RecognizedButAbsent"
	default:
		return "Unknown"
	}
}

// Candidate is one matcher result. Rank 0 is the best match.
type Candidate struct {
	TrackID string
	Rank    int
}

// Result is the outcome of a submission. Songs are in matcher rank order
// and only populated for StatusMatched.
type Result struct {
	Status     Status
	Songs      []catalog.Song
	Candidates []Candidate
}

// ErrMalformedResponse is wrapped when a 2xx body is not valid JSON.
var ErrMalformedResponse = errors.New("malformed matcher response")

// NetworkMatchError reports a failed submission: either the request did not
// complete (Err set) or the matcher answered with a non-2xx status.
type NetworkMatchError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *NetworkMatchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("matcher returned %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("matcher request failed: %v", e.Err)
}

func (e *NetworkMatchError) Unwrap() error {
	return e.Err
}
