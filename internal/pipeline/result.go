package pipeline

import (
	"insightdeal/dealworker/internal/models"
	"insightdeal/dealworker/internal/scraper"
)

// PostResult is the outcome of processing one post candidate. Exactly one of
// the three shapes holds: deals were produced, the post was skipped with a
// reason, or processing failed with an error. A failure never aborts the rest
// of the batch; the caller logs it and moves on.
type PostResult struct {
	Candidate scraper.PostCandidate
	Deals     []models.Deal
	Skipped   bool
	Reason    string
	Err       error
}

// Failed reports whether processing ended in an error.
func (r PostResult) Failed() bool {
	return r.Err != nil
}

func skipped(candidate scraper.PostCandidate, reason string) PostResult {
	return PostResult{Candidate: candidate, Skipped: true, Reason: reason}
}

func failed(candidate scraper.PostCandidate, err error) PostResult {
	return PostResult{Candidate: candidate, Err: err}
}
