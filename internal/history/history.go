// Package history keeps an append-only log of user interactions.
package history

import "time"

// Kind tags the entry variants.
type Kind string

const (
	KindQuestionAnswer Kind = "question_answer"
	KindStudyBuddy     Kind = "study_buddy"
)

// Entry is one immutable interaction record. Exactly one of the variant
// fields is set, selected by Kind.
type Entry struct {
	Kind Kind      `json:"kind"`
	Time time.Time `json:"time"`

	QuestionAnswer *QuestionAnswerEntry `json:"question_answer,omitempty"`
	StudyBuddy     *StudyBuddyEntry     `json:"study_buddy,omitempty"`
}

// QuestionAnswerEntry records one answered question.
type QuestionAnswerEntry struct {
	Model          string   `json:"model"`
	Question       string   `json:"question"`
	ContextSummary string   `json:"context_summary"`
	Answer         string   `json:"answer"`
	Laws           []string `json:"laws,omitempty"`
}

// StudyBuddyEntry records one generated quiz question and its assessment.
type StudyBuddyEntry struct {
	Model       string `json:"model"`
	Topic       string `json:"topic"`
	Source      string `json:"source"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation"`
	Assessment  *bool  `json:"assessment,omitempty"`
}

// Store persists interaction entries.
type Store interface {
	// Append adds one entry to the log
	Append(entry Entry) error

	// Query returns entries of the given kind, oldest first.
	// An empty kind returns everything.
	Query(kind Kind) ([]Entry, error)

	// Reset deletes the entire history. Use with caution.
	Reset() error
}
