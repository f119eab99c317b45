// Package llm is the boundary to the external text-analysis collaborator.
// Everything it returns is untrusted input: the engine validates stat tags
// and tone tags against caller-known-good sets before committing anything.
package llm

import "context"

type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnalyzeRequest carries the frozen journal conversation plus the closed
// vocabularies the collaborator must stay within.
type AnalyzeRequest struct {
	Date           string
	InitialMessage string
	Turns          []ConversationTurn
	ValidStats     []string
	ToneVocabulary []string
	MaxToneTags    int
}

type StatTag struct {
	Stat string `json:"stat"`
	XP   int    `json:"xp"`
}

type JournalAnalysis struct {
	Summary     string    `json:"summary"`
	Synopsis    string    `json:"synopsis"`
	Title       string    `json:"title"`
	ContentTags []string  `json:"content_tags"`
	ToneTags    []string  `json:"tone_tags"`
	StatTags    []StatTag `json:"stat_tags"`
}

type Analyzer interface {
	AnalyzeJournal(ctx context.Context, req AnalyzeRequest) (*JournalAnalysis, error)
}
