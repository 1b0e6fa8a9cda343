package qa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gesetzbot/gesetzbot/internal/history"
	"github.com/gesetzbot/gesetzbot/internal/llm"
)

func newTestStudyBuddy(reply func(req llm.CompletionRequest) (string, error)) (*StudyBuddy, *fakeClient, *fakeStore) {
	client := &fakeClient{reply: reply}
	store := &fakeStore{}
	index := &fakeIndex{chunks: threeChunks()}
	retriever := NewRetriever(&fakeEmbedder{vec: []float32{0.1, 0.2}}, index)
	return NewStudyBuddy(retriever, client, store, "test-model"), client, store
}

func TestGenerateQuestion(t *testing.T) {
	chunks := threeChunks()
	buddy, client, _ := newTestStudyBuddy(func(req llm.CompletionRequest) (string, error) {
		return "  Was regelt § 7?  \n", nil
	})
	buddy.intn = func(n int) int { return 1 } // deterministic pick

	question, err := buddy.GenerateQuestion(context.Background(), QuestionRequest{Topic: "Abschreibung", TopK: 3})
	if err != nil {
		t.Fatalf("GenerateQuestion failed: %v", err)
	}

	if question.Source != "EStG_7" {
		t.Errorf("expected source EStG_7, got %q", question.Source)
	}
	if question.Context != chunks[1].Document {
		t.Errorf("question context should be the picked chunk document, got %q", question.Context)
	}
	if question.Text != "Was regelt § 7?" {
		t.Errorf("reply should be trimmed, got %q", question.Text)
	}

	if client.callCount() != 1 {
		t.Fatalf("expected 1 model call, got %d", client.callCount())
	}
	if !strings.Contains(client.calls[0].Messages[0].Content, chunks[1].Document) {
		t.Error("question prompt does not contain the picked chunk")
	}
	if client.calls[0].Temperature != questionTemperature {
		t.Errorf("expected temperature %v, got %v", questionTemperature, client.calls[0].Temperature)
	}
}

func TestGenerateQuestion_InvalidTopK(t *testing.T) {
	buddy, client, _ := newTestStudyBuddy(func(req llm.CompletionRequest) (string, error) {
		return "should not be called", nil
	})

	_, err := buddy.GenerateQuestion(context.Background(), QuestionRequest{Topic: "Abschreibung", TopK: 0})
	if !errors.Is(err, ErrInvalidTopK) {
		t.Fatalf("expected ErrInvalidTopK, got %v", err)
	}
	if client.callCount() != 0 {
		t.Errorf("model must not be called, got %d calls", client.callCount())
	}
}

func TestAssessAnswer_Correct(t *testing.T) {
	buddy, client, store := newTestStudyBuddy(func(req llm.CompletionRequest) (string, error) {
		prompt := req.Messages[0].Content
		if strings.Contains(prompt, "BEWERTUNG:") {
			return "Ja.", nil
		}
		return "Die Antwort ist korrekt, § 7 regelt die Absetzung.", nil
	})

	question := Question{
		Source:  "EStG_7",
		Context: "§ 7 Absetzung\n\nAbsetzung für Abnutzung.",
		Text:    "Was regelt § 7?",
	}
	feedback, err := buddy.AssessAnswer(context.Background(), AssessRequest{
		Topic:    "Abschreibung",
		Question: question,
		Answer:   "Die Absetzung für Abnutzung.",
	})
	if err != nil {
		t.Fatalf("AssessAnswer failed: %v", err)
	}

	// One grading call plus one verdict extraction call.
	if client.callCount() != 2 {
		t.Fatalf("expected 2 model calls, got %d", client.callCount())
	}
	assessPrompt := client.calls[0].Messages[0].Content
	if !strings.Contains(assessPrompt, question.Context) {
		t.Error("assessment prompt does not contain the question's context")
	}
	if !strings.Contains(assessPrompt, "Die Absetzung für Abnutzung.") {
		t.Error("assessment prompt does not contain the learner's answer")
	}
	if !strings.Contains(client.calls[1].Messages[0].Content, feedback) {
		t.Error("verdict prompt does not contain the feedback")
	}

	if feedback != "Die Antwort ist korrekt, § 7 regelt die Absetzung." {
		t.Errorf("unexpected feedback: %q", feedback)
	}

	if len(store.entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(store.entries))
	}
	entry := store.entries[0]
	if entry.Kind != history.KindStudyBuddy || entry.StudyBuddy == nil {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	sb := entry.StudyBuddy
	if sb.Source != "EStG_7" || sb.Question != question.Text || sb.Explanation != feedback {
		t.Errorf("history entry fields wrong: %+v", sb)
	}
	if sb.Assessment == nil || !*sb.Assessment {
		t.Errorf("expected a positive assessment, got %+v", sb.Assessment)
	}
}

func TestAssessAnswer_Incorrect(t *testing.T) {
	buddy, _, store := newTestStudyBuddy(func(req llm.CompletionRequest) (string, error) {
		if strings.Contains(req.Messages[0].Content, "BEWERTUNG:") {
			return "nein", nil
		}
		return "Leider falsch, § 7 regelt die Absetzung für Abnutzung.", nil
	})

	_, err := buddy.AssessAnswer(context.Background(), AssessRequest{
		Topic:    "Abschreibung",
		Question: Question{Source: "EStG_7", Context: "ctx", Text: "Frage?"},
		Answer:   "Etwas anderes.",
	})
	if err != nil {
		t.Fatalf("AssessAnswer failed: %v", err)
	}

	sb := store.entries[0].StudyBuddy
	if sb.Assessment == nil || *sb.Assessment {
		t.Errorf("expected a negative assessment, got %+v", sb.Assessment)
	}
}

func TestAffirmativeVerdict(t *testing.T) {
	tests := []struct {
		reply string
		want  bool
	}{
		{"Ja", true},
		{"ja", true},
		{"Ja.", true},
		{"  Ja, die Antwort ist korrekt.", true},
		{"Nein", false},
		{"nein.", false},
		{"Jahrelange Rechtsprechung bestätigt das.", false},
		{"Nein, aber ja im Einzelfall.", false},
		{"Die Antwort ist richtig, also ja.", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := affirmativeVerdict(tt.reply); got != tt.want {
			t.Errorf("affirmativeVerdict(%q) = %v, want %v", tt.reply, got, tt.want)
		}
	}
}

func TestAssessAnswer_VerdictNotFooledByJaSubstring(t *testing.T) {
	buddy, _, store := newTestStudyBuddy(func(req llm.CompletionRequest) (string, error) {
		if strings.Contains(req.Messages[0].Content, "BEWERTUNG:") {
			return "Jahreswechsel hin oder her, die Antwort ist falsch.", nil
		}
		return "Leider falsch.", nil
	})

	_, err := buddy.AssessAnswer(context.Background(), AssessRequest{
		Topic:    "Abschreibung",
		Question: Question{Source: "EStG_7", Context: "ctx", Text: "Frage?"},
		Answer:   "Etwas anderes.",
	})
	if err != nil {
		t.Fatalf("AssessAnswer failed: %v", err)
	}

	sb := store.entries[0].StudyBuddy
	if sb.Assessment == nil || *sb.Assessment {
		t.Errorf("a 'ja' inside another word must not count as affirmative, got %+v", sb.Assessment)
	}
}

func TestAssessAnswer_GradingFailure(t *testing.T) {
	modelErr := errors.New("model unavailable")
	buddy, _, store := newTestStudyBuddy(func(req llm.CompletionRequest) (string, error) {
		return "", modelErr
	})

	_, err := buddy.AssessAnswer(context.Background(), AssessRequest{
		Question: Question{Source: "EStG_7", Context: "ctx", Text: "Frage?"},
		Answer:   "Antwort.",
	})
	if !errors.Is(err, modelErr) {
		t.Fatalf("expected the model error to propagate, got %v", err)
	}
	if len(store.entries) != 0 {
		t.Errorf("failed assessment must not append history, got %d entries", len(store.entries))
	}
}
