package qa

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"unicode"

	"github.com/gesetzbot/gesetzbot/internal/history"
	"github.com/gesetzbot/gesetzbot/internal/llm"
	"github.com/gesetzbot/gesetzbot/internal/model"
)

// questionTemperature is raised above zero so repeated quizzes on the same
// topic do not produce the same question.
const questionTemperature = 0.7

// StudyBuddy generates comprehension questions from the corpus and grades
// free-text answers against the context the question came from.
type StudyBuddy struct {
	retriever    *Retriever
	client       llm.Client
	history      history.Store
	defaultModel string

	// intn is swappable for deterministic tests
	intn func(n int) int
}

// NewStudyBuddy creates a study buddy.
func NewStudyBuddy(retriever *Retriever, client llm.Client, hist history.Store, defaultModel string) *StudyBuddy {
	return &StudyBuddy{
		retriever:    retriever,
		client:       client,
		history:      hist,
		defaultModel: defaultModel,
		intn:         rand.Intn,
	}
}

// QuestionRequest asks for a quiz question about a topic.
type QuestionRequest struct {
	Topic string
	TopK  int
	Laws  model.LawFilter
	Model string
}

// Question is a generated quiz question together with the context it was
// generated from; the context is needed again for grading.
type Question struct {
	Source  string // chunk id the question is based on
	Context string // chunk text as indexed
	Text    string // the question itself
}

// GenerateQuestion retrieves candidate chunks for the topic, picks one
// uniformly at random, and asks the model for a comprehension question.
func (s *StudyBuddy) GenerateQuestion(ctx context.Context, req QuestionRequest) (*Question, error) {
	if req.TopK < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, req.TopK)
	}

	chatModel := req.Model
	if chatModel == "" {
		chatModel = s.defaultModel
	}

	chunks, err := s.retriever.Retrieve(ctx, req.Topic, req.TopK, req.Laws)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks in the index match topic %q", req.Topic)
	}

	chunk := chunks[s.intn(len(chunks))]
	prompt := renderPrompt(promptGenerateQuestion, map[string]string{
		"context": chunk.Document,
	})
	reply, err := s.client.Complete(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Model:       chatModel,
		Temperature: questionTemperature,
	})
	if err != nil {
		return nil, err
	}

	return &Question{
		Source:  chunk.ID,
		Context: chunk.Document,
		Text:    strings.TrimSpace(reply),
	}, nil
}

// AssessRequest grades a learner's answer to a generated question.
type AssessRequest struct {
	Topic    string
	Question Question
	Answer   string // the learner's free-text answer
	Model    string
}

// AssessAnswer grades the answer against the question's context and persists
// the interaction, including a boolean verdict extracted from the feedback
// by a second model call. Only the feedback text is returned; the verdict
// lives in the history.
func (s *StudyBuddy) AssessAnswer(ctx context.Context, req AssessRequest) (string, error) {
	chatModel := req.Model
	if chatModel == "" {
		chatModel = s.defaultModel
	}

	prompt := renderPrompt(promptAssessAnswer, map[string]string{
		"question": req.Question.Text,
		"context":  req.Question.Context,
		"response": req.Answer,
	})
	feedback, err := s.client.Complete(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Model:       chatModel,
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}

	verdictPrompt := renderPrompt(promptExtractVerdict, map[string]string{
		"assessment": feedback,
	})
	verdictReply, err := s.client.Complete(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: verdictPrompt}},
		Model:       chatModel,
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}
	verdict := affirmativeVerdict(verdictReply)

	entry := history.Entry{
		Kind: history.KindStudyBuddy,
		StudyBuddy: &history.StudyBuddyEntry{
			Model:       chatModel,
			Topic:       req.Topic,
			Source:      req.Question.Source,
			Question:    req.Question.Text,
			Answer:      req.Answer,
			Explanation: feedback,
			Assessment:  &verdict,
		},
	}
	if err := s.history.Append(entry); err != nil {
		return "", fmt.Errorf("append history: %w", err)
	}

	return feedback, nil
}

// affirmativeVerdict reads the verdict reply of a model instructed to answer
// ja/nein. Only a leading "ja" as its own word counts; "Jahr" or a trailing
// "ja" in a longer sentence does not.
func affirmativeVerdict(reply string) bool {
	reply = strings.ToLower(strings.TrimSpace(reply))
	word := reply
	if i := strings.IndexFunc(reply, func(r rune) bool { return !unicode.IsLetter(r) }); i >= 0 {
		word = reply[:i]
	}
	return word == "ja"
}
