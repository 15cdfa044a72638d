package model

import (
	"time"
)

/*

Classification is the per-post category analysis produced by the language
model service

PostID: primary key, the Id of the classified Post. At most one row per post,
re-classification after staleness upserts the same row.
AnalyzedAt: when the analysis was produced. A classification older than the
classification TTL is stale and will be recomputed on next read.

The four flags are independent booleans, a post may match any subset:
SolutionRequests: the post asks for a solution to a problem
PainAndAnger: the post expresses distress or frustration
AdviceRequests: the post asks for advice
MoneyTalk: the post discusses spending money
*/

type Classification struct {
	PostID           string    `gorm:"primaryKey" json:"-"`
	AnalyzedAt       time.Time `json:"analyzed_at"`
	SolutionRequests bool      `json:"solutionRequests"`
	PainAndAnger     bool      `json:"painAndAnger"`
	AdviceRequests   bool      `json:"adviceRequests"`
	MoneyTalk        bool      `json:"moneyTalk"`
}

// AnnotatedPost is a Post joined with its Classification at read time. It is
// the unit returned to clients and is never persisted on its own.
type AnnotatedPost struct {
	Post
	Category Classification `json:"category"`
}
