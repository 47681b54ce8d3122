// Package jobs provides River job workers for the matching pipeline.
package jobs

import "time"

// MatchingJobArgs contains the arguments for one draft matching pass.
// Zero From/To select the trailing day ending at job start.
type MatchingJobArgs struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Kind returns the job type identifier for River
func (MatchingJobArgs) Kind() string { return "draft_matching" }
